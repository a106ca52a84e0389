// Package document inspects uploaded files: type, size and PDF page count.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"

	"github.com/imrishuroy/printeasy-orderflow/internal/apperror"
)

// Kind of upload being inspected.
type Kind int

const (
	KindDocument Kind = iota
	KindImage
)

var (
	documentExts = map[string]string{".pdf": "application/pdf"}
	imageExts    = map[string]string{".jpg": "image/jpeg", ".jpeg": "image/jpeg", ".png": "image/png"}
)

// PageCounter extracts the number of pages of a document.
type PageCounter interface {
	CountPages(content []byte) (int, error)
}

// PDFCounter counts pages by reading the PDF page tree.
type PDFCounter struct{}

// CountPages returns the page tree count. Corrupt or encrypted input is an
// error; a well-formed document with an empty page tree returns 0.
func (PDFCounter) CountPages(content []byte) (n int, err error) {
	defer func() {
		// the parser panics on some malformed inputs
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("parse pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return 0, fmt.Errorf("parse pdf: %w", err)
	}
	n = r.NumPage()
	if n < 0 {
		return 0, errors.New("parse pdf: negative page count")
	}
	return n, nil
}

// Inspector applies the size caps and type checks before counting pages.
type Inspector struct {
	Counter       PageCounter
	MaxDocBytes   int64
	MaxImageBytes int64
}

// CheckFile validates the extension, sniffed content type and size cap of one file.
func (i Inspector) CheckFile(name string, content []byte, kind Kind) error {
	ext := strings.ToLower(filepath.Ext(name))
	allowed, limit, label := documentExts, i.MaxDocBytes, "document"
	if kind == KindImage {
		allowed, limit, label = imageExts, i.MaxImageBytes, "image"
	}

	want, ok := allowed[ext]
	if !ok {
		return &apperror.ValidationError{File: name, Message: fmt.Sprintf("unsupported %s type %q", label, ext)}
	}
	if len(content) == 0 {
		return &apperror.ValidationError{File: name, Message: "file is empty"}
	}
	if limit > 0 && int64(len(content)) > limit {
		return &apperror.ValidationError{
			File:    name,
			Message: fmt.Sprintf("%s exceeds %d MB limit", label, limit>>20),
		}
	}
	if got := mimetype.Detect(content); !got.Is(want) {
		return &apperror.ValidationError{File: name, Message: fmt.Sprintf("content is %s, expected %s", got.String(), want)}
	}
	return nil
}

// Pages checks a document and returns its page count.
func (i Inspector) Pages(name string, content []byte) (int, error) {
	if err := i.CheckFile(name, content, KindDocument); err != nil {
		return 0, err
	}
	return i.Count(name, content)
}

// Count returns the page count of a document that already passed CheckFile.
// A parse failure is an UnreadableDocumentError; zero pages is a ValidationError.
func (i Inspector) Count(name string, content []byte) (int, error) {
	n, err := i.Counter.CountPages(content)
	if err != nil {
		return 0, &apperror.UnreadableDocumentError{File: name, Err: err}
	}
	if n <= 0 {
		return 0, &apperror.ValidationError{File: name, Message: "document has no pages"}
	}
	return n, nil
}
