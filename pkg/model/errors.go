package model

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrUnsupportedModality is returned when a file type or modality hint
	// is not one of text, image, audio. The file is skipped, the batch continues.
	ErrUnsupportedModality = goerr.New("unsupported modality")

	// ErrExtraction is returned when a decoder or model cannot process a
	// file. Reported per file, does not abort sibling files.
	ErrExtraction = goerr.New("extraction failed")

	// ErrEmbedding is returned when the embedding backend fails or the
	// input is not embeddable. Aborts the single operation in progress.
	ErrEmbedding = goerr.New("embedding failed")

	// ErrStoreCorruption is returned when the on-disk store structure is
	// damaged. Fatal at store initialization.
	ErrStoreCorruption = goerr.New("store corruption detected")

	// ErrConfiguration is returned for missing credentials or paths at
	// startup. Fatal before any I/O.
	ErrConfiguration = goerr.New("invalid configuration")

	// ErrInvalidArgument covers malformed caller input such as a
	// non-positive search limit or an untagged vector.
	ErrInvalidArgument = goerr.New("invalid argument")
)
