// Package extract turns uploaded bytes into plain text.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

const (
	MimePDF  = "application/pdf"
	MimeText = "text/plain"
)

var (
	ErrUnsupportedType  = errors.New("unsupported file type")
	ErrEncryptedPDF     = errors.New("encrypted pdf")
	ErrExtractionFailed = errors.New("text extraction failed")
)

// Extractor converts a payload of a known MIME type into text.
type Extractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) (string, error)
}

// Sniff detects the MIME type from content alone and returns the canonical
// accepted type, or ErrUnsupportedType. The client supplied filename and
// Content-Type are never consulted.
func Sniff(data []byte) (string, error) {
	mtype := mimetype.Detect(data)
	switch {
	case mtype.Is(MimePDF):
		return MimePDF, nil
	case mtype.Is(MimeText):
		return MimeText, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mtype.String())
	}
}

// Default handles text/plain and application/pdf.
type Default struct{}

// New returns the default extractor.
func New() *Default { return &Default{} }

func (Default) Extract(ctx context.Context, data []byte, mimeType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch mimeType {
	case MimeText:
		return extractText(data), nil
	case MimePDF:
		return extractPDF(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}
}

// extractText decodes UTF-8, dropping invalid byte sequences.
func extractText(data []byte) string {
	return strings.ToValidUTF8(string(data), "")
}

func extractPDF(data []byte) (text string, err error) {
	// The reader panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("%w: %v", ErrExtractionFailed, rec)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if isEncryptionError(err) || bytes.Contains(data, []byte("/Encrypt")) {
			return "", ErrEncryptedPDF
		}
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	// A blank user password lets the reader open the file, it is still refused.
	if r.Trailer().Key("Encrypt").Kind() != pdf.Null {
		return "", ErrEncryptedPDF
	}

	fonts := make(map[string]*pdf.Font)
	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := p.Font(name)
				fonts[name] = &f
			}
		}
		pageText, perr := p.GetPlainText(fonts)
		if perr != nil {
			// One unreadable page does not sink the document.
			pageText = ""
		}
		pages = append(pages, pageText)
	}
	return strings.ToValidUTF8(strings.Join(pages, "\n"), ""), nil
}

func isEncryptionError(err error) bool {
	if errors.Is(err, pdf.ErrInvalidPassword) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "encrypt")
}
