package ingest_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/kioku-ai/kioku/pkg/model"
	"github.com/kioku-ai/kioku/pkg/repository"
	"github.com/kioku-ai/kioku/pkg/service/embedding/mock"
	"github.com/kioku-ai/kioku/pkg/service/extract"
	"github.com/kioku-ai/kioku/pkg/usecase/ingest"
)

type stubMedia struct{}

func (stubMedia) Caption(ctx context.Context, data []byte, mimeType string) (string, error) {
	return "a lake at sunset", nil
}

func (stubMedia) Transcribe(ctx context.Context, data []byte, mimeType string) (string, error) {
	return "hello from the trail", nil
}

func setup(t *testing.T) (*ingest.UseCase, repository.Repository, string) {
	store, err := repository.NewSQLite(filepath.Join(t.TempDir(), "kioku.db"))
	gt.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	x := extract.New(mock.New(), stubMedia{})
	uc := ingest.New(store, x, ingest.WithConcurrency(2))

	dir := t.TempDir()
	return uc, store, dir
}

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	gt.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIngestMixedBatch(t *testing.T) {
	uc, store, dir := setup(t)
	ctx := context.Background()

	paths := []string{
		write(t, dir, "trip.txt", "summer trip to the lake"),
		write(t, dir, "sunset.png", "fake png bytes"),
		write(t, dir, "trail.mp3", "fake mp3 bytes"),
	}

	report, err := uc.Ingest(ctx, paths)
	gt.NoError(t, err)
	gt.A(t, report.Stored()).Length(3)
	gt.A(t, report.Failed()).Length(0)

	all, err := store.ListAll(ctx)
	gt.NoError(t, err)
	gt.A(t, all).Length(3)

	byModality := map[model.Modality]*model.MemoryRecord{}
	for _, rec := range all {
		byModality[rec.Modality] = rec
	}

	gt.Equal(t, byModality[model.ModalityText].Content, "summer trip to the lake")
	gt.Equal(t, byModality[model.ModalityText].SourceFilename, "trip.txt")
	gt.Equal(t, byModality[model.ModalityText].Embedding.Space, model.SpaceText)

	gt.Equal(t, byModality[model.ModalityImage].Content, "a lake at sunset")
	gt.Equal(t, byModality[model.ModalityImage].Embedding.Space, model.SpaceMultimodal)

	gt.Equal(t, byModality[model.ModalityAudio].Content, "hello from the trail")
	gt.Equal(t, byModality[model.ModalityAudio].Embedding.Space, model.SpaceText)
}

func TestIngestContinuesPastBadFiles(t *testing.T) {
	uc, store, dir := setup(t)
	ctx := context.Background()

	paths := []string{
		write(t, dir, "good.txt", "a good memory"),
		write(t, dir, "movie.mov", "unsupported"),
		filepath.Join(dir, "missing.png"),
		write(t, dir, "another.txt", "another good memory"),
	}

	report, err := uc.Ingest(ctx, paths)
	gt.NoError(t, err)
	gt.A(t, report.Stored()).Length(2)
	gt.A(t, report.Failed()).Length(2)

	failed := report.Failed()
	gt.True(t, errors.Is(failed[0].Err, model.ErrUnsupportedModality))
	gt.True(t, errors.Is(failed[1].Err, model.ErrExtraction))

	all, err := store.ListAll(ctx)
	gt.NoError(t, err)
	gt.A(t, all).Length(2)
}

func TestIngestEmptyBatch(t *testing.T) {
	uc, store, _ := setup(t)
	ctx := context.Background()

	report, err := uc.Ingest(ctx, nil)
	gt.NoError(t, err)
	gt.A(t, report.Results).Length(0)

	all, err := store.ListAll(ctx)
	gt.NoError(t, err)
	gt.A(t, all).Length(0)
}

func TestIngestAssignsIDs(t *testing.T) {
	uc, _, dir := setup(t)
	ctx := context.Background()

	report, err := uc.Ingest(ctx, []string{
		write(t, dir, "one.txt", "first"),
		write(t, dir, "two.txt", "second"),
	})
	gt.NoError(t, err)

	stored := report.Stored()
	gt.A(t, stored).Length(2)
	gt.NotEqual(t, stored[0].ID, model.MemoryID(""))
	gt.NotEqual(t, stored[1].ID, model.MemoryID(""))
	gt.NotEqual(t, stored[0].ID, stored[1].ID)
}

func TestIngestCustomExtensionMap(t *testing.T) {
	store, err := repository.NewSQLite(filepath.Join(t.TempDir(), "kioku.db"))
	gt.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	// The same map drives both modality resolution and the extractor.
	exts := extract.DefaultExtensions()
	exts[".md"] = model.ModalityText

	x := extract.New(mock.New(), stubMedia{}, extract.WithExtensions(exts))
	uc := ingest.New(store, x, ingest.WithExtensions(exts))

	ctx := context.Background()
	dir := t.TempDir()
	report, err := uc.Ingest(ctx, []string{
		write(t, dir, "notes.md", "# markdown memory"),
	})
	gt.NoError(t, err)
	gt.A(t, report.Failed()).Length(0)
	gt.A(t, report.Stored()).Length(1)

	all, err := store.ListAll(ctx)
	gt.NoError(t, err)
	gt.A(t, all).Length(1)
	gt.Equal(t, all[0].Content, "# markdown memory")
	gt.Equal(t, all[0].Modality, model.ModalityText)
	gt.Equal(t, all[0].SourceFilename, "notes.md")
}
