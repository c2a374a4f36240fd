package storage

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adfharrison1/go-db-index/pkg/domain"
)

func newMemoryEngine(t *testing.T, dbs ...string) *Engine {
	t.Helper()
	engine, err := NewEngine()
	require.NoError(t, err)
	for _, db := range dbs {
		require.NoError(t, engine.CreateDatabase(context.Background(), db))
	}
	return engine
}

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	assert.False(t, engine.Persistent())
	assert.Nil(t, engine.journal)
	assert.Empty(t, engine.ListDatabases())
	assert.NoError(t, engine.Close())
}

func TestNewEngine_WithDataDir(t *testing.T) {
	engine, err := NewEngine(WithDataDir(t.TempDir()), WithDurability(DurabilityFull))
	require.NoError(t, err)
	defer engine.Close()

	assert.True(t, engine.Persistent())
	require.NotNil(t, engine.journal)
	assert.Equal(t, DurabilityFull, engine.journal.durability)
}

func TestParseDurability(t *testing.T) {
	for in, want := range map[string]DurabilityLevel{"": DurabilityOS, "os": DurabilityOS, "FULL": DurabilityFull, "none": DurabilityNone} {
		got, err := ParseDurability(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseDurability("sometimes")
	assert.Error(t, err)
}

func TestEngine_CreateDatabase(t *testing.T) {
	ctx := context.Background()
	engine := newMemoryEngine(t)

	require.NoError(t, engine.CreateDatabase(ctx, "users"))
	assert.True(t, engine.DatabaseExists("users"))

	err := engine.CreateDatabase(ctx, "users")
	assert.ErrorIs(t, err, domain.ErrDatabaseExists)

	for _, bad := range []string{"", "_users", "a/b", "with space"} {
		err := engine.CreateDatabase(ctx, bad)
		assert.True(t, domain.IsValidationError(err), bad)
	}
}

func TestEngine_DropDatabase(t *testing.T) {
	ctx := context.Background()
	engine := newMemoryEngine(t, "users")
	putIndex(t, engine, "users", "_design/a", "idx", "name")

	require.NoError(t, engine.DropDatabase(ctx, "users"))
	assert.False(t, engine.DatabaseExists("users"))
	assert.ErrorIs(t, engine.DropDatabase(ctx, "users"), domain.ErrDatabaseNotFound)

	// recreating starts empty
	require.NoError(t, engine.CreateDatabase(ctx, "users"))
	docs, err := engine.ListDesignDocs(ctx, "users")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestEngine_GetDesignDoc(t *testing.T) {
	ctx := context.Background()
	engine := newMemoryEngine(t, "users")

	_, err := engine.GetDesignDoc(ctx, "users", "_design/missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = engine.GetDesignDoc(ctx, "nope", "_design/missing")
	assert.ErrorIs(t, err, domain.ErrDatabaseNotFound)

	putIndex(t, engine, "users", "_design/a", "idx", "name")
	doc, err := engine.GetDesignDoc(ctx, "users", "_design/a")
	require.NoError(t, err)
	assert.Equal(t, "_design/a", doc.ID)
	assert.True(t, strings.HasPrefix(doc.Rev, "1-"))

	// returned documents are copies
	delete(doc.Indexes, "idx")
	again, err := engine.GetDesignDoc(ctx, "users", "_design/a")
	require.NoError(t, err)
	assert.Contains(t, again.Indexes, "idx")
}

func TestEngine_Mutate(t *testing.T) {
	ctx := context.Background()
	engine := newMemoryEngine(t, "users")

	first := putIndex(t, engine, "users", "_design/a", "one", "name")
	second := putIndex(t, engine, "users", "_design/a", "two", "age")
	assert.True(t, strings.HasPrefix(second.Rev, "2-"))
	assert.NotEqual(t, first.Rev, second.Rev)
	assert.Len(t, second.Indexes, 2)

	t.Run("error leaves document untouched", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := engine.Mutate(ctx, "users", "_design/a", func(cur *domain.DesignDocument) (*domain.DesignDocument, error) {
			delete(cur.Indexes, "one")
			return nil, boom
		})
		assert.ErrorIs(t, err, boom)

		doc, err := engine.GetDesignDoc(ctx, "users", "_design/a")
		require.NoError(t, err)
		assert.Len(t, doc.Indexes, 2)
		assert.Equal(t, second.Rev, doc.Rev)
	})

	t.Run("nil result deletes", func(t *testing.T) {
		deleteDoc(t, engine, "users", "_design/a")
		_, err := engine.GetDesignDoc(ctx, "users", "_design/a")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("deleting a missing document is a no-op", func(t *testing.T) {
		doc, err := engine.Mutate(ctx, "users", "_design/none", func(cur *domain.DesignDocument) (*domain.DesignDocument, error) {
			assert.Nil(t, cur)
			return nil, nil
		})
		assert.NoError(t, err)
		assert.Nil(t, doc)
	})

	t.Run("unknown database", func(t *testing.T) {
		_, err := engine.Mutate(ctx, "nope", "_design/a", func(cur *domain.DesignDocument) (*domain.DesignDocument, error) {
			t.Fatal("mutate func must not run")
			return nil, nil
		})
		assert.ErrorIs(t, err, domain.ErrDatabaseNotFound)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := engine.Mutate(cctx, "users", "_design/a", func(cur *domain.DesignDocument) (*domain.DesignDocument, error) {
			return cur, nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestEngine_MutateJournalFailure(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(WithDataDir(t.TempDir()))
	require.NoError(t, err)
	require.NoError(t, engine.CreateDatabase(ctx, "users"))

	require.NoError(t, engine.journal.Close())

	_, err = engine.Mutate(ctx, "users", "_design/a", func(cur *domain.DesignDocument) (*domain.DesignDocument, error) {
		return domain.NewDesignDocument("_design/a"), nil
	})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	// nothing became visible
	_, err = engine.GetDesignDoc(ctx, "users", "_design/a")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEngine_MutateBlocksDropAndRecreate(t *testing.T) {
	ctx := context.Background()
	engine := newMemoryEngine(t, "users")

	recreated := make(chan error, 1)
	_, err := engine.Mutate(ctx, "users", "_design/a", func(cur *domain.DesignDocument) (*domain.DesignDocument, error) {
		go func() {
			if err := engine.DropDatabase(ctx, "users"); err != nil {
				recreated <- err
				return
			}
			recreated <- engine.CreateDatabase(ctx, "users")
		}()

		select {
		case err := <-recreated:
			t.Error("database was dropped during a mutation")
			recreated <- err
		case <-time.After(50 * time.Millisecond):
		}
		return domain.NewDesignDocument("_design/a"), nil
	})
	require.NoError(t, err)
	require.NoError(t, <-recreated)

	// the write belonged to the dropped database, not its replacement
	_, err = engine.GetDesignDoc(ctx, "users", "_design/a")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEngine_ConcurrentMutateSameDocument(t *testing.T) {
	ctx := context.Background()
	engine := newMemoryEngine(t, "users")

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Mutate(ctx, "users", "_design/counter", func(cur *domain.DesignDocument) (*domain.DesignDocument, error) {
				if cur == nil {
					cur = domain.NewDesignDocument("_design/counter")
				}
				cur.Indexes[string(rune('a'+len(cur.Indexes)%26))+strings.Repeat("x", len(cur.Indexes)/26)] = domain.IndexEntry{Type: domain.IndexTypeJSON}
				return cur, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// every read-modify-write saw its predecessor's result
	doc, err := engine.GetDesignDoc(ctx, "users", "_design/counter")
	require.NoError(t, err)
	assert.Len(t, doc.Indexes, workers)
	assert.True(t, strings.HasPrefix(doc.Rev, "50-"))
}

func TestEngine_ListDesignDocsSorted(t *testing.T) {
	ctx := context.Background()
	engine := newMemoryEngine(t, "users")
	putIndex(t, engine, "users", "_design/c", "idx", "c")
	putIndex(t, engine, "users", "_design/a", "idx", "a")
	putIndex(t, engine, "users", "_design/b", "idx", "b")

	docs, err := engine.ListDesignDocs(ctx, "users")
	require.NoError(t, err)
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	assert.Equal(t, []string{"_design/a", "_design/b", "_design/c"}, ids)
}
