package repository

import (
	"context"

	"github.com/kioku-ai/kioku/pkg/model"
)

// Hit is one similarity search result
type Hit struct {
	Record     *model.MemoryRecord
	Similarity float64
}

// InsertFailure reports a record that could not be persisted, identified by
// its index in the submitted batch.
type InsertFailure struct {
	Index int
	Err   error
}

// Repository defines the interface for memory record persistence
type Repository interface {
	// Insert persists a batch of records, assigning one ID per record.
	// Each record is persisted atomically on its own: a failure on record i
	// never rolls back records 0..i-1. Failed records are reported by batch
	// index; ids holds the IDs of the records that succeeded, in batch order.
	Insert(ctx context.Context, records []*model.MemoryRecord) (ids []model.MemoryID, failed []InsertFailure, err error)

	// Search returns up to limit records ordered by descending cosine
	// similarity to the query vector. Only records tagged with the query's
	// embedding space participate. An empty store yields an empty result,
	// not an error.
	Search(ctx context.Context, query model.Vector, limit int) ([]*Hit, error)

	// ListAll returns every stored record. Ordering is stable within one
	// store lifetime but otherwise unspecified.
	ListAll(ctx context.Context) ([]*model.MemoryRecord, error)

	// Delete removes the record if present; deleting an absent ID is a no-op.
	Delete(ctx context.Context, id model.MemoryID) error

	// Clear removes all records. The store stays usable afterwards.
	Clear(ctx context.Context) error

	// Close releases the underlying storage handle.
	Close() error
}
