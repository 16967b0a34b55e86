package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/docqa/testutil"
)

func TestSniff(t *testing.T) {
	got, err := Sniff([]byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, MimeText, got)

	got, err = Sniff(testutil.TextPDF("Hi"))
	require.NoError(t, err)
	assert.Equal(t, MimePDF, got)

	// PNG signature.
	_, err = Sniff([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestExtractText(t *testing.T) {
	x := New()
	got, err := x.Extract(context.Background(), []byte("hello world"), MimeText)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)

	got, err = x.Extract(context.Background(), []byte("caf\xc3\xa9 \xff\xfe ok"), MimeText)
	require.NoError(t, err)
	assert.Equal(t, "café  ok", got)
}

func TestExtractPDF(t *testing.T) {
	got, err := New().Extract(context.Background(), testutil.TextPDF("Hello PDF"), MimePDF)
	require.NoError(t, err)
	assert.Contains(t, got, "Hello PDF")
}

func TestExtractEncryptedPDF(t *testing.T) {
	_, err := New().Extract(context.Background(), testutil.EncryptedPDF(), MimePDF)
	assert.ErrorIs(t, err, ErrEncryptedPDF)
}

func TestExtractCorruptPDF(t *testing.T) {
	_, err := New().Extract(context.Background(), []byte("%PDF-1.4\nthis is not a pdf body"), MimePDF)
	assert.ErrorIs(t, err, ErrExtractionFailed)
}

func TestExtractUnsupported(t *testing.T) {
	_, err := New().Extract(context.Background(), []byte("x"), "image/png")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestExtractCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Extract(ctx, []byte("x"), MimeText)
	assert.ErrorIs(t, err, context.Canceled)
}
