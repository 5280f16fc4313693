package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText_PlainText(t *testing.T) {
	e := NewExtractor()

	out, err := e.ExtractText("cv.txt", []byte("Experience\nBuilt things.\n"))
	require.NoError(t, err)
	assert.Equal(t, "Experience\nBuilt things.\n", out)
}

func TestExtractText_ExtensionCaseInsensitive(t *testing.T) {
	e := NewExtractor()

	out, err := e.ExtractText("CV.TXT", []byte("content"))
	require.NoError(t, err)
	assert.Equal(t, "content", out)
}

func TestExtractText_EmptyDocument(t *testing.T) {
	e := NewExtractor()

	_, err := e.ExtractText("cv.txt", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is empty")
}

func TestExtractText_UnsupportedExtension(t *testing.T) {
	e := NewExtractor()

	_, err := e.ExtractText("cv.odt", []byte("content"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type: .odt")
}

func TestExtractText_CorruptPDF(t *testing.T) {
	e := NewExtractor()

	_, err := e.ExtractText("cv.pdf", []byte("this is not a pdf"))
	assert.Error(t, err)
}

func TestExtractText_CorruptDocx(t *testing.T) {
	e := NewExtractor()

	_, err := e.ExtractText("cv.docx", []byte("this is not a zip archive"))
	assert.Error(t, err)
}
