// Package query answers natural-language questions over the vault. A query
// is embedded once per embedding space, each space is searched separately,
// and the ranked lists are merged by similarity. Cross-space distances are
// never computed.
package query

import (
	"context"
	"sort"

	"github.com/m-mizutani/goerr/v2"

	"github.com/kioku-ai/kioku/pkg/model"
	"github.com/kioku-ai/kioku/pkg/repository"
)

// Embedder is the subset of the embedding provider used for queries
type Embedder interface {
	EmbedText(ctx context.Context, text string) (model.Vector, error)
	EmbedTextMultimodal(ctx context.Context, text string) (model.Vector, error)
}

// Gateway is the external generation collaborator. It receives the fully
// assembled prompt and returns generated text.
type Gateway interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// UseCase provides retrieval and creative generation over stored memories
type UseCase struct {
	repo     repository.Repository
	embedder Embedder
	gateway  Gateway
	limit    int
}

type Option func(*UseCase)

// WithLimit sets the default number of records retrieved per query
func WithLimit(k int) Option {
	return func(uc *UseCase) {
		if k > 0 {
			uc.limit = k
		}
	}
}

func New(repo repository.Repository, embedder Embedder, gateway Gateway, opts ...Option) *UseCase {
	uc := &UseCase{
		repo:     repo,
		embedder: embedder,
		gateway:  gateway,
		limit:    5,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Retrieve returns the contents of the k most relevant records in rank
// order, ready for concatenation into a generation prompt. k <= 0 falls
// back to the configured default.
func (uc *UseCase) Retrieve(ctx context.Context, queryText string, k int) ([]string, error) {
	hits, err := uc.retrieve(ctx, queryText, k)
	if err != nil {
		return nil, err
	}

	contents := make([]string, len(hits))
	for i, hit := range hits {
		contents[i] = hit.Record.Content
	}
	return contents, nil
}

func (uc *UseCase) retrieve(ctx context.Context, queryText string, k int) ([]*repository.Hit, error) {
	if queryText == "" {
		return nil, goerr.Wrap(model.ErrEmbedding, "query text is empty")
	}
	if k <= 0 {
		k = uc.limit
	}

	textVec, err := uc.embedder.EmbedText(ctx, queryText)
	if err != nil {
		return nil, err
	}
	jointVec, err := uc.embedder.EmbedTextMultimodal(ctx, queryText)
	if err != nil {
		return nil, err
	}

	textHits, err := uc.repo.Search(ctx, textVec, k)
	if err != nil {
		return nil, goerr.Wrap(err, "text space search failed")
	}
	jointHits, err := uc.repo.Search(ctx, jointVec, k)
	if err != nil {
		return nil, goerr.Wrap(err, "multimodal space search failed")
	}

	// Cosine similarities from the two spaces are only best-effort
	// comparable, which matches the cross-modal ranking contract.
	merged := append(textHits, jointHits...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Similarity > merged[j].Similarity
	})

	if k < len(merged) {
		merged = merged[:k]
	}
	return merged, nil
}
