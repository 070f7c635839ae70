package repository_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/kioku-ai/kioku/pkg/model"
	"github.com/kioku-ai/kioku/pkg/repository"
)

func setupStore(t *testing.T) (*repository.SQLite, string) {
	path := filepath.Join(t.TempDir(), "kioku.db")
	store, err := repository.NewSQLite(path)
	gt.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, path
}

func textRecord(content string, values ...float32) *model.MemoryRecord {
	return &model.MemoryRecord{
		Content:        content,
		Embedding:      model.Vector{Space: model.SpaceText, Values: values},
		Modality:       model.ModalityText,
		SourceFilename: content + ".txt",
	}
}

func TestInsertAndSelfRetrieval(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	rec := textRecord("summer trip to the lake", 0.9, 0.1, 0.2)
	ids, failed, err := store.Insert(ctx, []*model.MemoryRecord{
		rec,
		textRecord("tax return paperwork", -0.5, 0.8, 0.1),
	})
	gt.NoError(t, err)
	gt.A(t, failed).Length(0)
	gt.A(t, ids).Length(2)

	hits, err := store.Search(ctx, rec.Embedding, 1)
	gt.NoError(t, err)
	gt.A(t, hits).Length(1)
	gt.Equal(t, hits[0].Record.ID, ids[0])
	gt.Equal(t, hits[0].Record.Content, "summer trip to the lake")
}

func TestSearchFewerRecordsThanLimit(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	_, failed, err := store.Insert(ctx, []*model.MemoryRecord{
		textRecord("a", 1, 0),
		textRecord("b", 0.9, 0.1),
		textRecord("c", 0, 1),
	})
	gt.NoError(t, err)
	gt.A(t, failed).Length(0)

	hits, err := store.Search(ctx, model.Vector{Space: model.SpaceText, Values: []float32{1, 0}}, 10)
	gt.NoError(t, err)
	gt.A(t, hits).Length(3)

	// Ordered by descending similarity
	for i := 0; i < len(hits)-1; i++ {
		gt.True(t, hits[i].Similarity >= hits[i+1].Similarity)
	}
	gt.Equal(t, hits[0].Record.Content, "a")
	gt.Equal(t, hits[2].Record.Content, "c")
}

func TestSearchEmptyStore(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	hits, err := store.Search(ctx, model.Vector{Space: model.SpaceText, Values: []float32{1, 0}}, 5)
	gt.NoError(t, err)
	gt.A(t, hits).Length(0)
}

func TestSearchInvalidLimit(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	_, err := store.Search(ctx, model.Vector{Space: model.SpaceText, Values: []float32{1, 0}}, 0)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrInvalidArgument))
}

func TestSearchStaysWithinEmbeddingSpace(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	image := &model.MemoryRecord{
		Content:   "a lake at sunset",
		Embedding: model.Vector{Space: model.SpaceMultimodal, Values: []float32{1, 0}},
		Modality:  model.ModalityImage,
	}
	_, failed, err := store.Insert(ctx, []*model.MemoryRecord{
		textRecord("summer trip to the lake", 1, 0),
		image,
	})
	gt.NoError(t, err)
	gt.A(t, failed).Length(0)

	// A text-space query must never rank the multimodal record.
	hits, err := store.Search(ctx, model.Vector{Space: model.SpaceText, Values: []float32{1, 0}}, 10)
	gt.NoError(t, err)
	gt.A(t, hits).Length(1)
	gt.Equal(t, hits[0].Record.Modality, model.ModalityText)

	hits, err = store.Search(ctx, model.Vector{Space: model.SpaceMultimodal, Values: []float32{1, 0}}, 10)
	gt.NoError(t, err)
	gt.A(t, hits).Length(1)
	gt.Equal(t, hits[0].Record.Modality, model.ModalityImage)
}

func TestInsertPartialFailure(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	bad := &model.MemoryRecord{
		Content:  "no embedding",
		Modality: model.ModalityText,
	}
	ids, failed, err := store.Insert(ctx, []*model.MemoryRecord{
		textRecord("first", 1, 0),
		bad,
		textRecord("third", 0, 1),
	})
	gt.NoError(t, err)
	gt.A(t, ids).Length(2)
	gt.A(t, failed).Length(1)
	gt.Equal(t, failed[0].Index, 1)
	gt.Error(t, failed[0].Err)

	// Siblings of the failed record are persisted.
	all, err := store.ListAll(ctx)
	gt.NoError(t, err)
	gt.A(t, all).Length(2)
}

func TestDeleteAbsentIDIsNoop(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	_, _, err := store.Insert(ctx, []*model.MemoryRecord{textRecord("keep me", 1, 0)})
	gt.NoError(t, err)

	gt.NoError(t, store.Delete(ctx, model.MemoryID("no-such-id")))

	all, err := store.ListAll(ctx)
	gt.NoError(t, err)
	gt.A(t, all).Length(1)
}

func TestDeleteByID(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	ids, _, err := store.Insert(ctx, []*model.MemoryRecord{
		textRecord("a", 1, 0),
		textRecord("b", 0, 1),
	})
	gt.NoError(t, err)

	gt.NoError(t, store.Delete(ctx, ids[0]))

	all, err := store.ListAll(ctx)
	gt.NoError(t, err)
	gt.A(t, all).Length(1)
	gt.Equal(t, all[0].ID, ids[1])
}

func TestClearIsIdempotentAndLeavesStoreUsable(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	_, _, err := store.Insert(ctx, []*model.MemoryRecord{textRecord("a", 1, 0)})
	gt.NoError(t, err)

	gt.NoError(t, store.Clear(ctx))
	gt.NoError(t, store.Clear(ctx))

	all, err := store.ListAll(ctx)
	gt.NoError(t, err)
	gt.A(t, all).Length(0)

	ids, failed, err := store.Insert(ctx, []*model.MemoryRecord{textRecord("b", 0, 1)})
	gt.NoError(t, err)
	gt.A(t, failed).Length(0)
	gt.A(t, ids).Length(1)
}

func TestRestartRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kioku.db")
	ctx := context.Background()

	store, err := repository.NewSQLite(path)
	gt.NoError(t, err)

	records := []*model.MemoryRecord{
		textRecord("first memory", 0.1, 0.2, 0.3),
		textRecord("second memory", 0.4, 0.5, 0.6),
		textRecord("third memory", 0.7, 0.8, 0.9),
	}
	ids, failed, err := store.Insert(ctx, records)
	gt.NoError(t, err)
	gt.A(t, failed).Length(0)
	gt.A(t, ids).Length(3)
	gt.NoError(t, store.Close())

	reopened, err := repository.NewSQLite(path)
	gt.NoError(t, err)
	defer reopened.Close()

	all, err := reopened.ListAll(ctx)
	gt.NoError(t, err)
	gt.A(t, all).Length(3)

	byID := map[model.MemoryID]*model.MemoryRecord{}
	for _, rec := range all {
		byID[rec.ID] = rec
	}
	for i, id := range ids {
		got := byID[id]
		gt.V(t, got).NotNil()
		gt.Equal(t, got.Content, records[i].Content)
		gt.Equal(t, got.Modality, records[i].Modality)
		gt.Equal(t, got.SourceFilename, records[i].SourceFilename)
		gt.Equal(t, got.Embedding.Space, records[i].Embedding.Space)
		gt.A(t, got.Embedding.Values).Length(len(records[i].Embedding.Values))
		for j := range got.Embedding.Values {
			diff := got.Embedding.Values[j] - records[i].Embedding.Values[j]
			gt.True(t, diff < 1e-6 && diff > -1e-6)
		}
	}
}

func TestCorruptStoreFailsAtOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kioku.db")
	gt.NoError(t, os.WriteFile(path, []byte("this is not a sqlite database at all"), 0o644))

	_, err := repository.NewSQLite(path)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrStoreCorruption))
}

func TestEmptyPathRejected(t *testing.T) {
	_, err := repository.NewSQLite("")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrConfiguration))
}
