package extract

import (
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/kioku-ai/kioku/pkg/model"
)

// ExtensionMap resolves a file extension (with leading dot, lower case) to
// the modality used for extraction.
type ExtensionMap map[string]model.Modality

// DefaultExtensions returns the recognized extension to modality mapping
func DefaultExtensions() ExtensionMap {
	return ExtensionMap{
		".pdf":  model.ModalityText,
		".docx": model.ModalityText,
		".txt":  model.ModalityText,
		".jpg":  model.ModalityImage,
		".jpeg": model.ModalityImage,
		".png":  model.ModalityImage,
		".bmp":  model.ModalityImage,
		".tiff": model.ModalityImage,
		".mp3":  model.ModalityAudio,
		".wav":  model.ModalityAudio,
		".flac": model.ModalityAudio,
		".m4a":  model.ModalityAudio,
	}
}

// Resolve infers the modality of a file from its extension
func (m ExtensionMap) Resolve(path string) (model.Modality, error) {
	ext := strings.ToLower(filepath.Ext(path))
	modality, ok := m[ext]
	if !ok {
		return "", goerr.Wrap(model.ErrUnsupportedModality, "unrecognized file extension",
			goerr.V("path", path), goerr.V("ext", ext))
	}
	return modality, nil
}
