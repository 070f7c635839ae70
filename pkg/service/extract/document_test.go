package extract_test

import (
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/kioku-ai/kioku/pkg/model"
	"github.com/kioku-ai/kioku/pkg/service/extract"
)

func TestResolveModality(t *testing.T) {
	exts := extract.DefaultExtensions()

	cases := []struct {
		path string
		want model.Modality
	}{
		{"diary.pdf", model.ModalityText},
		{"letter.DOCX", model.ModalityText},
		{"notes.txt", model.ModalityText},
		{"photo.jpg", model.ModalityImage},
		{"photo.JPEG", model.ModalityImage},
		{"scan.tiff", model.ModalityImage},
		{"voicemail.mp3", model.ModalityAudio},
		{"interview.m4a", model.ModalityAudio},
	}

	for _, tc := range cases {
		got, err := exts.Resolve(tc.path)
		gt.NoError(t, err)
		gt.Equal(t, got, tc.want)
	}
}

func TestResolveUnrecognizedExtension(t *testing.T) {
	exts := extract.DefaultExtensions()

	for _, path := range []string{"movie.mov", "archive.zip", "noextension"} {
		_, err := exts.Resolve(path)
		gt.Error(t, err)
	}
}

func TestResolveCustomMapping(t *testing.T) {
	exts := extract.DefaultExtensions()
	exts[".md"] = model.ModalityText

	got, err := exts.Resolve("README.md")
	gt.NoError(t, err)
	gt.Equal(t, got, model.ModalityText)
}
