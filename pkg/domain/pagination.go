package domain

import "strconv"

// ListOptions defines limit/skip pagination over the index listing.
// Nil fields mean "not supplied".
type ListOptions struct {
	Limit *int `json:"limit,omitempty"`
	Skip  *int `json:"skip,omitempty"`
}

// Validate validates pagination options
func (lo ListOptions) Validate() error {
	if lo.Limit != nil && *lo.Limit <= 0 {
		return &PaginationError{Param: "limit", Value: strconv.Itoa(*lo.Limit)}
	}
	if lo.Skip != nil && *lo.Skip < 0 {
		return &PaginationError{Param: "skip", Value: strconv.Itoa(*lo.Skip)}
	}
	return nil
}

// Window returns the [start, end) bounds of the page over n items
func (lo ListOptions) Window(n int) (int, int) {
	start := 0
	if lo.Skip != nil {
		start = *lo.Skip
	}
	if start > n {
		start = n
	}
	end := n
	if lo.Limit != nil && *lo.Limit < n-start {
		end = start + *lo.Limit
	}
	return start, end
}

// IndexListing is one page of the index listing
type IndexListing struct {
	TotalRows int               `json:"total_rows"`
	Indexes   []IndexDefinition `json:"indexes"`
}
