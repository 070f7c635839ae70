package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

type MemoryID string

// NewMemoryID generates a new unique MemoryID
func NewMemoryID() MemoryID {
	return MemoryID(uuid.New().String())
}

// Modality is the media category of an uploaded item
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityImage Modality = "image"
	ModalityAudio Modality = "audio"
)

// Validate checks if the modality is one of the recognized values
func (m Modality) Validate() error {
	switch m {
	case ModalityText, ModalityImage, ModalityAudio:
		return nil
	default:
		return goerr.Wrap(ErrUnsupportedModality, "unknown modality", goerr.V("modality", m))
	}
}

// EmbeddingSpace identifies the vector geometry of one embedding backend.
// Vectors from different spaces must never be compared by similarity.
type EmbeddingSpace string

const (
	// SpaceText is the text-only space used for documents and transcripts
	SpaceText EmbeddingSpace = "gemini-text"
	// SpaceMultimodal is the joint text/image space used for cross-modal retrieval
	SpaceMultimodal EmbeddingSpace = "gemini-multimodal"
)

// Vector is a fixed-length embedding tagged with the space that produced it
type Vector struct {
	Space  EmbeddingSpace
	Values []float32
}

// Dim returns the vector dimensionality
func (v Vector) Dim() int {
	return len(v.Values)
}

// Validate checks that the vector is usable for similarity comparison
func (v Vector) Validate() error {
	if v.Space == "" {
		return goerr.Wrap(ErrInvalidArgument, "embedding space is empty")
	}
	if len(v.Values) == 0 {
		return goerr.Wrap(ErrInvalidArgument, "embedding has no values")
	}
	return nil
}

// Comparable reports whether two vectors live in the same space with the
// same dimensionality.
func (v Vector) Comparable(o Vector) bool {
	return v.Space == o.Space && len(v.Values) == len(o.Values)
}

// MemoryRecord is one persisted (content, embedding, metadata) triple.
// ID is assigned by the store at insert time and immutable thereafter.
type MemoryRecord struct {
	ID             MemoryID
	Content        string
	Embedding      Vector
	Modality       Modality
	SourceFilename string
	CreatedAt      time.Time
}

// Validate checks the fields required before insertion
func (r *MemoryRecord) Validate() error {
	if err := r.Modality.Validate(); err != nil {
		return err
	}
	if err := r.Embedding.Validate(); err != nil {
		return err
	}
	return nil
}
