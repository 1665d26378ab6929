package normalisers

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ndavault/internal/core/domain"
	"github.com/custodia-labs/ndavault/internal/postprocessors/chunker"
)

type stubNormaliser struct {
	exts []string
	text string
	err  error
}

func (s *stubNormaliser) Extensions() []string { return s.exts }

func (s *stubNormaliser) Normalise(_ context.Context, _ []byte) (string, error) {
	return s.text, s.err
}

func buildDOCX(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var body bytes.Buffer
	for _, p := range paragraphs {
		body.WriteString("<w:p><w:r><w:t>" + p + "</w:t></w:r></w:p>")
	}
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	f, err := w.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() + `</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestDefaultRegistry_Extensions(t *testing.T) {
	r := NewDefaultRegistry(chunker.New())
	assert.Equal(t, []string{".docx", ".pdf"}, r.Extensions())
}

func TestExtract_DOCX(t *testing.T) {
	r := NewDefaultRegistry(chunker.New())
	data := buildDOCX(t, "Mutual NDA", "The termination clause survives for two years.")

	ext, err := r.Extract(context.Background(), "blue_nda.DOCX", data)
	require.NoError(t, err)
	assert.Contains(t, ext.Text, "termination clause")
	require.Len(t, ext.Fragments, 1)
	assert.Equal(t, "blue_nda.DOCX", ext.Fragments[0].Filename)
}

func TestExtract_Unsupported(t *testing.T) {
	r := NewDefaultRegistry(chunker.New())

	_, err := r.Extract(context.Background(), "notes.txt", []byte("hello"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	assert.True(t, domain.IsValidation(err))
}

func TestExtract_NormaliserFailure(t *testing.T) {
	r := NewRegistry(chunker.New())
	r.Register(&stubNormaliser{exts: []string{".pdf"}, err: errors.New("corrupt xref")})

	_, err := r.Extract(context.Background(), "broken.pdf", []byte("x"))
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
	assert.Contains(t, err.Error(), "corrupt xref")
	assert.False(t, domain.IsValidation(err))
}

func TestExtract_NoText(t *testing.T) {
	r := NewRegistry(chunker.New())
	r.Register(&stubNormaliser{exts: []string{".pdf"}, text: "  \n  "})

	_, err := r.Extract(context.Background(), "scanned.pdf", []byte("x"))
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
}

func TestExtract_Cancelled(t *testing.T) {
	r := NewRegistry(chunker.New())
	r.Register(&stubNormaliser{exts: []string{".pdf"}, err: context.Canceled})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Extract(ctx, "a.pdf", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrExtractionFailed)
}

func TestRegister_Replaces(t *testing.T) {
	r := NewRegistry(chunker.New())
	r.Register(&stubNormaliser{exts: []string{".PDF"}, text: "first"})
	r.Register(&stubNormaliser{exts: []string{".pdf"}, text: "second"})

	ext, err := r.Extract(context.Background(), "a.pdf", nil)
	require.NoError(t, err)
	assert.Equal(t, "second", ext.Text)
	assert.Equal(t, []string{".pdf"}, r.Extensions())
}
