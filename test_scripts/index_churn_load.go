package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// createResponse mirrors the body returned by POST /{db}/_index
type createResponse struct {
	Result string `json:"result"`
	ID     string `json:"id"`
	Name   string `json:"name"`
}

func do(client *http.Client, method, url string, body interface{}, out interface{}) error {
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			return fmt.Errorf("failed to marshal body: %w", err)
		}
	}

	req, err := http.NewRequest(method, url, &payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && !(method == "PUT" && resp.StatusCode == http.StatusPreconditionFailed) {
		return fmt.Errorf("%s %s: unexpected status code: %d", method, url, resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// churn creates and deletes one index per iteration
func churn(client *http.Client, dbURL string, worker, iterations int, ops *atomic.Int64) error {
	for i := 0; i < iterations; i++ {
		var created createResponse
		err := do(client, "POST", dbURL+"/_index", map[string]interface{}{
			"index": map[string]interface{}{"fields": []string{fmt.Sprintf("w%d_field%d", worker, i%16)}},
		}, &created)
		if err != nil {
			return err
		}
		ops.Add(1)

		if err := do(client, "DELETE", dbURL+"/_index/"+created.ID+"/json/"+created.Name, nil, nil); err != nil {
			return err
		}
		ops.Add(1)
	}
	return nil
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run test_scripts/index_churn_load.go <iterations_per_worker> [workers] [server_url]")
		fmt.Println("Example: go run test_scripts/index_churn_load.go 500")
		fmt.Println("Example: go run test_scripts/index_churn_load.go 500 8 http://localhost:8080")
		os.Exit(1)
	}

	iterations, err := strconv.Atoi(os.Args[1])
	if err != nil || iterations <= 0 {
		fmt.Printf("Error: Invalid iteration count '%s'. Please provide a positive integer.\n", os.Args[1])
		os.Exit(1)
	}

	workers := 4
	if len(os.Args) >= 3 {
		if workers, err = strconv.Atoi(os.Args[2]); err != nil || workers <= 0 {
			fmt.Printf("Error: Invalid worker count '%s'.\n", os.Args[2])
			os.Exit(1)
		}
	}

	serverURL := "http://localhost:8080"
	if len(os.Args) >= 4 {
		serverURL = os.Args[3]
	}
	dbURL := serverURL + "/loadtest"

	client := &http.Client{Timeout: 10 * time.Second}
	if err := do(client, "PUT", dbURL, nil, nil); err != nil {
		fmt.Printf("Error: could not create database: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Starting churn: %d workers x %d create/delete cycles against %s\n", workers, iterations, dbURL)

	var ops atomic.Int64
	startTime := time.Now()

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			return churn(client, dbURL, w, iterations, &ops)
		})
	}
	runErr := g.Wait()

	var listing struct {
		TotalRows int `json:"total_rows"`
	}
	listErr := do(client, "GET", dbURL+"/_index", nil, &listing)

	totalTime := time.Since(startTime)
	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("CHURN TEST COMPLETE")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Operations:            %d\n", ops.Load())
	fmt.Printf("Total time:            %v\n", totalTime)
	fmt.Printf("Average rate:          %.2f ops/sec\n", float64(ops.Load())/totalTime.Seconds())
	if listErr == nil {
		fmt.Printf("Indexes left:          %d (expected 1)\n", listing.TotalRows)
	}

	if runErr != nil {
		fmt.Printf("\nError: %v\n", runErr)
		os.Exit(1)
	}
	if listErr != nil || listing.TotalRows != 1 {
		fmt.Println("\nWarning: listing did not return to its initial state")
		os.Exit(1)
	}

	fmt.Println("\nLoad test completed successfully!")
}
