package indexing

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adfharrison1/go-db-index/pkg/domain"
	"github.com/adfharrison1/go-db-index/pkg/metrics"
	"github.com/adfharrison1/go-db-index/pkg/storage"
)

const testDB = "testdb"

func newTestRegistry(t *testing.T, opts ...Option) (*Registry, *storage.Engine) {
	t.Helper()
	engine, err := storage.NewEngine()
	require.NoError(t, err)
	require.NoError(t, engine.CreateDatabase(context.Background(), testDB))
	t.Cleanup(func() { engine.Close() })
	return NewRegistry(engine, opts...), engine
}

// indexRequest builds a create request; empty name or ddoc are left absent
func indexRequest(fields []string, name, ddoc string) domain.CreateIndexRequest {
	req := domain.CreateIndexRequest{Fields: domain.NewRaw(fields)}
	if name != "" {
		req.Name = domain.NewRaw(name)
	}
	if ddoc != "" {
		req.DDoc = domain.NewRaw(ddoc)
	}
	return req
}

func mustCreate(t *testing.T, r *Registry, req domain.CreateIndexRequest) *domain.CreateIndexResult {
	t.Helper()
	result, err := r.CreateIndex(context.Background(), testDB, req)
	require.NoError(t, err)
	return result
}

func mustList(t *testing.T, r *Registry) []domain.IndexDefinition {
	t.Helper()
	defs, err := r.Indexes(context.Background(), testDB)
	require.NoError(t, err)
	return defs
}

func putForeignDesignDoc(t *testing.T, engine *storage.Engine, id string) {
	t.Helper()
	_, err := engine.Mutate(context.Background(), testDB, id, func(*domain.DesignDocument) (*domain.DesignDocument, error) {
		return &domain.DesignDocument{Language: "javascript"}, nil
	})
	require.NoError(t, err)
}

func TestCreateIndex(t *testing.T) {
	r, _ := newTestRegistry(t)

	result := mustCreate(t, r, indexRequest([]string{"foo", "bar"}, "", ""))
	assert.True(t, result.Created)
	assert.Len(t, result.Name, 16)
	assert.Equal(t, "_design/"+result.Name, result.ID)

	defs := mustList(t, r)
	require.Len(t, defs, 2)
	assert.Equal(t, domain.SpecialIndexName, defs[0].Name)
	assert.Equal(t, result.ID, defs[1].DDoc)
	assert.Equal(t, result.Name, defs[1].Name)
	assert.Equal(t, domain.IndexTypeJSON, defs[1].Type)
	assert.Equal(t, "foo:asc,bar:asc", defs[1].Def.Fields.Key())
}

func TestCreateIndex_Idempotent(t *testing.T) {
	r, _ := newTestRegistry(t)

	t.Run("named", func(t *testing.T) {
		first := mustCreate(t, r, indexRequest([]string{"foo", "bar"}, "idx_01", ""))
		second := mustCreate(t, r, indexRequest([]string{"foo", "bar"}, "idx_01", ""))
		assert.True(t, first.Created)
		assert.False(t, second.Created)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, first.Name, second.Name)
	})

	t.Run("unnamed", func(t *testing.T) {
		first := mustCreate(t, r, indexRequest([]string{"baz"}, "", ""))
		second := mustCreate(t, r, indexRequest([]string{"baz"}, "", ""))
		assert.True(t, first.Created)
		assert.False(t, second.Created)
		assert.Equal(t, first, &domain.CreateIndexResult{Created: true, ID: second.ID, Name: second.Name})
	})

	t.Run("equivalent under another name", func(t *testing.T) {
		first := mustCreate(t, r, indexRequest([]string{"qux"}, "original", "shared"))
		second := mustCreate(t, r, indexRequest([]string{"qux"}, "renamed", "shared"))
		assert.False(t, second.Created)
		assert.Equal(t, "original", second.Name)
		assert.Equal(t, first.ID, second.ID)
	})

	assert.Len(t, mustList(t, r), 4)
}

func TestCreateIndex_NameConflict(t *testing.T) {
	r, _ := newTestRegistry(t)
	mustCreate(t, r, indexRequest([]string{"foo"}, "idx", "mine"))

	_, err := r.CreateIndex(context.Background(), testDB, indexRequest([]string{"bar"}, "idx", "mine"))
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Len(t, mustList(t, r), 2)
}

func TestCreateIndex_ValidationDoesNotMutate(t *testing.T) {
	r, _ := newTestRegistry(t)
	pre := mustList(t, r)

	requests := []domain.CreateIndexRequest{
		{Fields: domain.NewRaw(nil)},
		{Fields: domain.NewRaw([]interface{}{map[string]interface{}{"foo": "desc"}})},
		{Fields: domain.NewRaw([]string{"foo"}), Type: domain.NewRaw("geo")},
		{Fields: domain.NewRaw([]string{"foo"}), Name: domain.NewRaw(nil)},
		{Fields: domain.NewRaw([]string{"foo"}), DDoc: domain.NewRaw(true)},
	}
	for _, req := range requests {
		_, err := r.CreateIndex(context.Background(), testDB, req)
		assert.True(t, domain.IsValidationError(err), "expected validation error, got %v", err)
	}
	assert.Equal(t, pre, mustList(t, r))
}

func TestCreateIndex_UnknownDatabase(t *testing.T) {
	r, _ := newTestRegistry(t)
	_, err := r.CreateIndex(context.Background(), "missing", indexRequest([]string{"foo"}, "", ""))
	assert.ErrorIs(t, err, domain.ErrDatabaseNotFound)
}

func TestCreateIndex_ForeignDesignDoc(t *testing.T) {
	r, engine := newTestRegistry(t)
	putForeignDesignDoc(t, engine, "_design/views")

	_, err := r.CreateIndex(context.Background(), testDB, indexRequest([]string{"foo"}, "", "views"))
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCreateIndex_DesignDocTakenLiterally(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	result := mustCreate(t, r, indexRequest([]string{"foo"}, "idx_01", "rate%41x"))
	assert.Equal(t, "_design/rate%41x", result.ID)

	_, err := r.GetDesignDoc(ctx, testDB, "_design/rateAx")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// references are decoded, so the percent sign itself is escaped
	require.NoError(t, r.DeleteIndex(ctx, testDB, "_design/rate%2541x", "idx_01", domain.IndexTypeJSON))
	assert.Len(t, mustList(t, r), 1)
}

func TestDeleteIndex_DesignDocForms(t *testing.T) {
	forms := []struct {
		name string
		ref  func(id string) string
	}{
		{"qualified", func(id string) string { return id }},
		{"bare", func(id string) string { return domain.LocalDesignID(id) }},
		{"escaped", func(id string) string { return "_design%2F" + domain.LocalDesignID(id) }},
	}

	for _, form := range forms {
		t.Run(form.name, func(t *testing.T) {
			r, _ := newTestRegistry(t)
			mustCreate(t, r, indexRequest([]string{"keep"}, "", ""))
			pre := mustList(t, r)

			result := mustCreate(t, r, indexRequest([]string{"foo", "bar"}, "idx_01", ""))
			require.Len(t, mustList(t, r), len(pre)+1)

			err := r.DeleteIndex(context.Background(), testDB, form.ref(result.ID), result.Name, domain.IndexTypeJSON)
			require.NoError(t, err)
			assert.Equal(t, pre, mustList(t, r))
		})
	}
}

func TestDeleteIndex_WithoutType(t *testing.T) {
	r, _ := newTestRegistry(t)
	result := mustCreate(t, r, indexRequest([]string{"foo"}, "", ""))

	require.NoError(t, r.DeleteIndex(context.Background(), testDB, result.ID, result.Name, ""))
	assert.Len(t, mustList(t, r), 1)
}

func TestDeleteIndex_NotFound(t *testing.T) {
	r, _ := newTestRegistry(t)
	result := mustCreate(t, r, indexRequest([]string{"foo"}, "idx_01", ""))
	pre := mustList(t, r)

	tests := []struct {
		name    string
		ddoc    string
		idxName string
		idxType domain.IndexType
	}{
		{"missing ddoc", "_design/nope", "idx_01", domain.IndexTypeJSON},
		{"missing name", result.ID, "nope", domain.IndexTypeJSON},
		{"type mismatch", result.ID, "idx_01", domain.IndexTypeText},
		{"empty ddoc", "", "idx_01", ""},
		{"empty name", result.ID, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.DeleteIndex(context.Background(), testDB, tt.ddoc, tt.idxName, tt.idxType)
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
	assert.Equal(t, pre, mustList(t, r))
}

func TestDeleteIndex_LastIndexRemovesDesignDoc(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	mustCreate(t, r, indexRequest([]string{"a"}, "first", "mine"))
	mustCreate(t, r, indexRequest([]string{"b"}, "second", "mine"))

	require.NoError(t, r.DeleteIndex(ctx, testDB, "mine", "first", ""))
	doc, err := r.GetDesignDoc(ctx, testDB, "mine")
	require.NoError(t, err)
	assert.Len(t, doc.Indexes, 1)

	require.NoError(t, r.DeleteIndex(ctx, testDB, "mine", "second", ""))
	_, err = r.GetDesignDoc(ctx, testDB, "mine")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecreateIndex(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	pre := mustList(t, r)

	for i := 0; i < 5; i++ {
		result := mustCreate(t, r, indexRequest([]string{"bing"}, "", ""))
		assert.True(t, result.Created)
		require.NoError(t, r.DeleteIndex(ctx, testDB, result.ID, result.Name, domain.IndexTypeJSON))
		assert.Equal(t, pre, mustList(t, r))
	}
}

func TestGetDesignDoc(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	result := mustCreate(t, r, indexRequest([]string{"foo"}, "idx_01", "mine"))

	for _, ref := range []string{"mine", "_design/mine", "_design%2Fmine"} {
		doc, err := r.GetDesignDoc(ctx, testDB, ref)
		require.NoError(t, err, ref)
		assert.Equal(t, result.ID, doc.ID)
		assert.Equal(t, domain.QueryLanguage, doc.Language)
		assert.Contains(t, doc.Indexes, "idx_01")
	}

	_, err := r.GetDesignDoc(ctx, testDB, "_design/")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteDesignDoc(t *testing.T) {
	r, engine := newTestRegistry(t)
	ctx := context.Background()
	result := mustCreate(t, r, indexRequest([]string{"foo"}, "", ""))
	putForeignDesignDoc(t, engine, "_design/views")

	require.NoError(t, r.DeleteDesignDoc(ctx, testDB, result.ID))
	assert.ErrorIs(t, r.DeleteDesignDoc(ctx, testDB, result.ID), domain.ErrNotFound)
	assert.ErrorIs(t, r.DeleteDesignDoc(ctx, testDB, "_design/views"), domain.ErrNotIndexDoc)

	_, err := engine.GetDesignDoc(ctx, testDB, "_design/views")
	assert.NoError(t, err)
}

func TestCreateIndex_ConcurrentIdentical(t *testing.T) {
	r, _ := newTestRegistry(t)

	var created atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := r.CreateIndex(context.Background(), testDB, indexRequest([]string{"foo", "bar"}, "", ""))
			if assert.NoError(t, err) && result.Created {
				created.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
	assert.Len(t, mustList(t, r), 2)
}

func TestListing_ConsistentUnderConcurrentMutation(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	mustCreate(t, r, indexRequest([]string{"anchor"}, "anchor", "shared"))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			res, err := r.CreateIndex(ctx, testDB, indexRequest([]string{"churn"}, "churn", "shared"))
			if !assert.NoError(t, err) {
				break
			}
			assert.NoError(t, r.DeleteIndex(ctx, testDB, res.ID, res.Name, ""))
		}
		close(stop)
	}()

	for {
		select {
		case <-stop:
			wg.Wait()
			assert.Len(t, mustList(t, r), 2)
			return
		default:
		}
		defs := mustList(t, r)
		require.GreaterOrEqual(t, len(defs), 2)
		require.LessOrEqual(t, len(defs), 3)
		for _, def := range defs[1:] {
			assert.Equal(t, "_design/shared", def.DDoc)
			assert.NotEmpty(t, def.Def.Fields)
		}
	}
}

func TestRegistry_Metrics(t *testing.T) {
	m := metrics.NewMetrics(prometheus.NewRegistry())
	r, _ := newTestRegistry(t, WithMetrics(m))
	ctx := context.Background()

	result := mustCreate(t, r, indexRequest([]string{"foo"}, "", ""))
	mustCreate(t, r, indexRequest([]string{"foo"}, "", ""))
	_, err := r.CreateIndex(ctx, testDB, domain.CreateIndexRequest{Fields: domain.NewRaw("foo")})
	require.Error(t, err)
	require.NoError(t, r.DeleteIndex(ctx, testDB, result.ID, result.Name, ""))
	assert.True(t, errors.Is(r.DeleteIndex(ctx, testDB, result.ID, result.Name, ""), domain.ErrNotFound))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.IndexOperations.WithLabelValues("create", metrics.OutcomeCreated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IndexOperations.WithLabelValues("create", metrics.OutcomeExists)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IndexOperations.WithLabelValues("create", metrics.OutcomeInvalid)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IndexOperations.WithLabelValues("delete", metrics.OutcomeDeleted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IndexOperations.WithLabelValues("delete", metrics.OutcomeNotFound)))
}
