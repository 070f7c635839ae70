package extract

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fumiama/go-docx"
	"github.com/ledongthuc/pdf"
	"github.com/m-mizutani/goerr/v2"

	"github.com/kioku-ai/kioku/pkg/model"
)

// documentText dispatches on the file extension to the matching document
// extractor. Extensions mapped to text through the configured extension map
// are read as plain text; anything else is an error, not an empty success.
func documentText(path string, exts ExtensionMap) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return pdfText(path)
	case ".docx":
		return docxText(path)
	case ".txt":
		return txtText(path)
	}

	if exts[ext] == model.ModalityText {
		return txtText(path)
	}

	return "", goerr.Wrap(model.ErrExtraction, "unsupported document extension",
		goerr.V("path", path))
}

// pdfText concatenates the plain text of every page
func pdfText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", goerr.Wrap(model.ErrExtraction, "failed to open PDF",
			goerr.V("path", path), goerr.V("cause", err.Error()))
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", goerr.Wrap(model.ErrExtraction, "failed to extract PDF page",
				goerr.V("path", path), goerr.V("page", i), goerr.V("cause", err.Error()))
		}
		sb.WriteString(text)
	}

	return sb.String(), nil
}

// docxText concatenates paragraph text, newline separated
func docxText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", goerr.Wrap(model.ErrExtraction, "failed to open DOCX",
			goerr.V("path", path), goerr.V("cause", err.Error()))
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", goerr.Wrap(model.ErrExtraction, "failed to stat DOCX", goerr.V("path", path))
	}

	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return "", goerr.Wrap(model.ErrExtraction, "failed to parse DOCX",
			goerr.V("path", path), goerr.V("cause", err.Error()))
	}

	var sb strings.Builder
	for _, item := range doc.Document.Body.Items {
		if para, ok := item.(*docx.Paragraph); ok {
			sb.WriteString(para.String())
			sb.WriteByte('\n')
		}
	}

	return sb.String(), nil
}

func txtText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", goerr.Wrap(model.ErrExtraction, "failed to read text file",
			goerr.V("path", path), goerr.V("cause", err.Error()))
	}
	return string(data), nil
}
