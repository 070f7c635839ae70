// Package extract converts staged media files into plain text plus an
// embedding. One extractor handles all three modalities; the caller passes
// a modality hint resolved from the file extension.
package extract

import (
	"context"
	"errors"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/kioku-ai/kioku/pkg/model"
)

// Embedder is the subset of the embedding provider used during extraction
type Embedder interface {
	EmbedText(ctx context.Context, text string) (model.Vector, error)
	EmbedImage(ctx context.Context, data []byte, mimeType string) (model.Vector, error)
}

// MediaModel converts non-text media into natural language
type MediaModel interface {
	Caption(ctx context.Context, data []byte, mimeType string) (string, error)
	Transcribe(ctx context.Context, data []byte, mimeType string) (string, error)
}

// Result is the uniform output of a successful extraction
type Result struct {
	Content   string
	Embedding model.Vector
	Modality  model.Modality
}

// Extractor dispatches per-modality extraction. It reads the input file and
// nothing else; staging and cleanup belong to the caller.
type Extractor struct {
	embedder   Embedder
	media      MediaModel
	extensions ExtensionMap
	timeout    time.Duration
}

type Option func(*Extractor)

// WithTimeout bounds each model call (caption, transcription, embedding).
// Expiry surfaces as an extraction error instead of hanging the caller.
func WithTimeout(d time.Duration) Option {
	return func(x *Extractor) {
		x.timeout = d
	}
}

// WithExtensions overrides the extension to modality mapping. An extension
// mapped to text here is read as plain text even without a dedicated
// decoder, so configured extensions work end to end.
func WithExtensions(m ExtensionMap) Option {
	return func(x *Extractor) {
		x.extensions = m
	}
}

func New(embedder Embedder, media MediaModel, opts ...Option) *Extractor {
	x := &Extractor{
		embedder:   embedder,
		media:      media,
		extensions: DefaultExtensions(),
		timeout:    2 * time.Minute,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Extract converts one file into (content, embedding, modality). The hint
// must match the file's actual type; a wrong hint picks the wrong method.
func (x *Extractor) Extract(ctx context.Context, path string, hint model.Modality) (*Result, error) {
	if err := hint.Validate(); err != nil {
		return nil, err
	}

	if x.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.timeout)
		defer cancel()
	}

	switch hint {
	case model.ModalityText:
		return x.extractText(ctx, path)
	case model.ModalityImage:
		return x.extractImage(ctx, path)
	case model.ModalityAudio:
		return x.extractAudio(ctx, path)
	default:
		return nil, goerr.Wrap(model.ErrUnsupportedModality, "no extraction method",
			goerr.V("modality", hint))
	}
}

func (x *Extractor) extractText(ctx context.Context, path string) (*Result, error) {
	content, err := documentText(path, x.extensions)
	if err != nil {
		return nil, err
	}

	embedding, err := x.embedder.EmbedText(ctx, content)
	if err != nil {
		return nil, wrapModelErr(err, "failed to embed document text", path)
	}

	return &Result{Content: content, Embedding: embedding, Modality: model.ModalityText}, nil
}

func (x *Extractor) extractImage(ctx context.Context, path string) (*Result, error) {
	data, mimeType, err := x.readMedia(path)
	if err != nil {
		return nil, err
	}

	caption, err := x.media.Caption(ctx, data, mimeType)
	if err != nil {
		return nil, wrapModelErr(err, "failed to caption image", path)
	}

	// The embedding comes from the pixels, not the caption: the record is
	// then reachable both by visual similarity and by a text query
	// projected into the joint space.
	embedding, err := x.embedder.EmbedImage(ctx, data, mimeType)
	if err != nil {
		return nil, wrapModelErr(err, "failed to embed image", path)
	}

	return &Result{Content: caption, Embedding: embedding, Modality: model.ModalityImage}, nil
}

func (x *Extractor) extractAudio(ctx context.Context, path string) (*Result, error) {
	data, mimeType, err := x.readMedia(path)
	if err != nil {
		return nil, err
	}

	transcript, err := x.media.Transcribe(ctx, data, mimeType)
	if err != nil {
		return nil, wrapModelErr(err, "failed to transcribe audio", path)
	}

	embedding, err := x.embedder.EmbedText(ctx, transcript)
	if err != nil {
		return nil, wrapModelErr(err, "failed to embed transcript", path)
	}

	return &Result{Content: transcript, Embedding: embedding, Modality: model.ModalityAudio}, nil
}

// readMedia loads the file and resolves its MIME type. Extensions beyond
// the built-in set, enabled through the configured extension map, resolve
// through the platform MIME table.
func (x *Extractor) readMedia(path string) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", goerr.Wrap(model.ErrExtraction, "failed to read file",
			goerr.V("path", path), goerr.V("cause", err.Error()))
	}

	ext := strings.ToLower(filepath.Ext(path))
	mimeType, ok := mimeTypes[ext]
	if !ok {
		if _, configured := x.extensions[ext]; configured {
			mimeType = mime.TypeByExtension(ext)
		}
	}
	if mimeType == "" {
		return nil, "", goerr.Wrap(model.ErrExtraction, "unknown media type",
			goerr.V("path", path))
	}

	return data, mimeType, nil
}

// wrapModelErr keeps embedding failures distinguishable from decoder and
// model failures while adding the file path. Timeouts on model calls fall
// under extraction failures.
func wrapModelErr(err error, msg, path string) error {
	sentinel := model.ErrExtraction
	if errors.Is(err, model.ErrEmbedding) {
		sentinel = model.ErrEmbedding
	}
	return goerr.Wrap(sentinel, msg, goerr.V("path", path), goerr.V("cause", err.Error()))
}

var mimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".bmp":  "image/bmp",
	".tiff": "image/tiff",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
}
