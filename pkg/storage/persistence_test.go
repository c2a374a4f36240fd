package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adfharrison1/go-db-index/pkg/domain"
)

func putIndex(t *testing.T, engine *Engine, db, id, name string, fields ...string) *domain.DesignDocument {
	t.Helper()
	doc, err := engine.Mutate(context.Background(), db, id, func(cur *domain.DesignDocument) (*domain.DesignDocument, error) {
		if cur == nil {
			cur = domain.NewDesignDocument(id)
		}
		spec := make(domain.IndexFieldSpec, len(fields))
		for i, f := range fields {
			spec[i] = domain.IndexField{Name: f, Direction: domain.DirectionAsc}
		}
		cur.Indexes[name] = domain.IndexEntry{Type: domain.IndexTypeJSON, Def: domain.IndexDef{Fields: spec}, Seq: engine.NextSequence()}
		return cur, nil
	})
	require.NoError(t, err)
	return doc
}

func deleteDoc(t *testing.T, engine *Engine, db, id string) {
	t.Helper()
	_, err := engine.Mutate(context.Background(), db, id, func(*domain.DesignDocument) (*domain.DesignDocument, error) {
		return nil, nil
	})
	require.NoError(t, err)
}

func TestEngine_SaveAndLoadFile(t *testing.T) {
	ctx := context.Background()
	tempFile := filepath.Join(t.TempDir(), "test_save"+FileExtension)

	engine1, err := NewEngine()
	require.NoError(t, err)
	require.NoError(t, engine1.CreateDatabase(ctx, "users"))
	require.NoError(t, engine1.CreateDatabase(ctx, "orders"))
	putIndex(t, engine1, "users", "_design/a", "by_name", "name")
	putIndex(t, engine1, "users", "_design/a", "by_age", "age", "name")
	putIndex(t, engine1, "orders", "_design/b", "by_total", "total")

	require.NoError(t, engine1.SaveToFile(tempFile))
	info, err := os.Stat(tempFile)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	engine2, err := NewEngine()
	require.NoError(t, err)
	require.NoError(t, engine2.LoadFromFile(tempFile))

	assert.Equal(t, []string{"orders", "users"}, engine2.ListDatabases())
	doc, err := engine2.GetDesignDoc(ctx, "users", "_design/a")
	require.NoError(t, err)
	assert.Len(t, doc.Indexes, 2)
	assert.Equal(t, domain.IndexFieldSpec{{Name: "age", Direction: domain.DirectionAsc}, {Name: "name", Direction: domain.DirectionAsc}},
		doc.Indexes["by_age"].Def.Fields)

	// the sequence counter resumes past every restored definition
	assert.Greater(t, engine2.NextSequence(), doc.Indexes["by_age"].Seq)
}

func TestEngine_LoadFromFile_FileNotExists(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)
	assert.NoError(t, engine.LoadFromFile(filepath.Join(t.TempDir(), "missing"+FileExtension)))
	assert.Empty(t, engine.ListDatabases())
}

func TestEngine_LoadFromFile_InvalidFile(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "invalid"+FileExtension)
	require.NoError(t, os.WriteFile(tempFile, []byte("not a snapshot"), 0644))

	engine, err := NewEngine()
	require.NoError(t, err)
	err = engine.LoadFromFile(tempFile)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid file header")
}

func TestEngine_RecoverFromJournal(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	engine1, err := NewEngine(WithDataDir(dir))
	require.NoError(t, err)
	require.NoError(t, engine1.CreateDatabase(ctx, "users"))
	putIndex(t, engine1, "users", "_design/a", "by_name", "name")
	putIndex(t, engine1, "users", "_design/b", "by_age", "age")
	deleteDoc(t, engine1, "users", "_design/b")

	// simulate a crash: no checkpoint, journal only
	require.NoError(t, engine1.journal.Close())

	engine2, err := NewEngine(WithDataDir(dir))
	require.NoError(t, err)
	defer engine2.Close()

	docs, err := engine2.ListDesignDocs(ctx, "users")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "_design/a", docs[0].ID)
	assert.Equal(t, int64(4), engine2.GetStats().JournalEntriesApplied)
}

func TestEngine_CheckpointTruncatesJournal(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	engine1, err := NewEngine(WithDataDir(dir))
	require.NoError(t, err)
	require.NoError(t, engine1.CreateDatabase(ctx, "users"))
	putIndex(t, engine1, "users", "_design/a", "by_name", "name")

	require.NoError(t, engine1.Checkpoint())
	info, err := os.Stat(filepath.Join(dir, JournalFileName))
	require.NoError(t, err)
	assert.Zero(t, info.Size())

	// writes after the checkpoint land in the journal only
	putIndex(t, engine1, "users", "_design/b", "by_age", "age")
	require.NoError(t, engine1.journal.Close())

	engine2, err := NewEngine(WithDataDir(dir))
	require.NoError(t, err)
	defer engine2.Close()

	docs, err := engine2.ListDesignDocs(ctx, "users")
	require.NoError(t, err)
	assert.Len(t, docs, 2)
	assert.Equal(t, int64(1), engine2.GetStats().JournalEntriesApplied)
}

func TestEngine_CloseWritesFinalCheckpoint(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	engine1, err := NewEngine(WithDataDir(dir), WithJournal(false))
	require.NoError(t, err)
	require.NoError(t, engine1.CreateDatabase(ctx, "users"))
	putIndex(t, engine1, "users", "_design/a", "by_name", "name")
	require.NoError(t, engine1.Close())
	require.NoError(t, engine1.Close())

	_, err = os.Stat(filepath.Join(dir, "indexes"+FileExtension))
	require.NoError(t, err)

	engine2, err := NewEngine(WithDataDir(dir))
	require.NoError(t, err)
	defer engine2.Close()
	assert.True(t, engine2.DatabaseExists("users"))
}

func TestEngine_ConcurrentCheckpointAndWrites(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	engine1, err := NewEngine(WithDataDir(dir))
	require.NoError(t, err)
	require.NoError(t, engine1.CreateDatabase(ctx, "users"))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			putIndex(t, engine1, "users", "_design/d"+string(rune('a'+i)), "idx", "f")
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 5; i++ {
			assert.NoError(t, engine1.Checkpoint())
		}
	}()
	wg.Wait()
	require.NoError(t, engine1.journal.Close())

	engine2, err := NewEngine(WithDataDir(dir))
	require.NoError(t, err)
	defer engine2.Close()

	docs, err := engine2.ListDesignDocs(ctx, "users")
	require.NoError(t, err)
	assert.Len(t, docs, 20)
}
