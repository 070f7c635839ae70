// Package ingest turns a batch of staged files into persisted memory
// records. Files are extracted independently and in parallel; one batched
// insert follows. A failure on one file never aborts its siblings; the
// report says exactly which files made it in and which did not.
package ingest

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/kioku-ai/kioku/pkg/model"
	"github.com/kioku-ai/kioku/pkg/repository"
	"github.com/kioku-ai/kioku/pkg/service/extract"
	"github.com/kioku-ai/kioku/pkg/utils/logging"
)

// UseCase provides batch ingestion
type UseCase struct {
	repo        repository.Repository
	extractor   *extract.Extractor
	extensions  extract.ExtensionMap
	concurrency int
}

type Option func(*UseCase)

// WithExtensions overrides the extension to modality mapping
func WithExtensions(m extract.ExtensionMap) Option {
	return func(uc *UseCase) {
		uc.extensions = m
	}
}

// WithConcurrency bounds the number of files extracted in parallel
func WithConcurrency(n int) Option {
	return func(uc *UseCase) {
		if n > 0 {
			uc.concurrency = n
		}
	}
}

func New(repo repository.Repository, extractor *extract.Extractor, opts ...Option) *UseCase {
	uc := &UseCase{
		repo:        repo,
		extractor:   extractor,
		extensions:  extract.DefaultExtensions(),
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// FileResult is the per-file outcome of one ingestion batch
type FileResult struct {
	Path     string
	Modality model.Modality
	ID       model.MemoryID
	Err      error
}

// Report collects per-file outcomes in input order
type Report struct {
	Results []FileResult
}

// Stored returns the results that were persisted
func (r *Report) Stored() []FileResult {
	var out []FileResult
	for _, res := range r.Results {
		if res.Err == nil {
			out = append(out, res)
		}
	}
	return out
}

// Failed returns the results that were rejected, with reasons
func (r *Report) Failed() []FileResult {
	var out []FileResult
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Ingest extracts every file and persists the successful extractions as one
// batch. The returned error covers store-level failures only; per-file
// problems live in the report.
func (uc *UseCase) Ingest(ctx context.Context, paths []string) (*Report, error) {
	logger := logging.From(ctx)

	report := &Report{Results: make([]FileResult, len(paths))}
	records := make([]*model.MemoryRecord, len(paths))

	var wg sync.WaitGroup
	sem := make(chan struct{}, uc.concurrency)

	for i, path := range paths {
		report.Results[i].Path = path

		modality, err := uc.extensions.Resolve(path)
		if err != nil {
			report.Results[i].Err = err
			continue
		}
		report.Results[i].Modality = modality

		wg.Add(1)
		go func(i int, path string, modality model.Modality) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			result, err := uc.extractor.Extract(ctx, path, modality)
			if err != nil {
				report.Results[i].Err = err
				return
			}

			records[i] = &model.MemoryRecord{
				Content:        result.Content,
				Embedding:      result.Embedding,
				Modality:       result.Modality,
				SourceFilename: filepath.Base(path),
			}
		}(i, path, modality)
	}
	wg.Wait()

	// Collapse to the records that extracted cleanly, remembering which
	// input index each one came from so insert failures map back.
	var (
		batch   []*model.MemoryRecord
		origins []int
	)
	for i, rec := range records {
		if rec != nil {
			batch = append(batch, rec)
			origins = append(origins, i)
		}
	}

	if len(batch) == 0 {
		return report, nil
	}

	_, failed, err := uc.repo.Insert(ctx, batch)
	if err != nil {
		return report, err
	}

	failedAt := map[int]error{}
	for _, f := range failed {
		failedAt[f.Index] = f.Err
	}
	for bi, origin := range origins {
		if err, ok := failedAt[bi]; ok {
			report.Results[origin].Err = err
			continue
		}
		report.Results[origin].ID = batch[bi].ID
	}

	logger.Info("ingested batch",
		"files", len(paths),
		"stored", len(report.Stored()),
		"failed", len(report.Failed()),
	)

	return report, nil
}
