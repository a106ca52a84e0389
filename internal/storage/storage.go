// Package storage uploads customer files and returns a publicly readable link.
package storage

import (
	"context"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Uploader stores content under filename in destination and returns a link
// anyone can open without credentials.
type Uploader interface {
	Upload(ctx context.Context, content []byte, filename, destination string) (string, error)
}

var nonWord = regexp.MustCompile(`\W+`)

// StoredName turns "My Notes.v2.pdf" into "My_Notes_20260102_150405.pdf".
// Only the part before the first dot is kept as the base.
func StoredName(original string, now time.Time) string {
	base := filepath.Base(original)
	ext := strings.ToLower(filepath.Ext(base))
	stem := base
	if i := strings.Index(base, "."); i >= 0 {
		stem = base[:i]
	}
	stem = strings.Trim(nonWord.ReplaceAllString(stem, "_"), "_")
	if stem == "" {
		stem = "file"
	}
	return stem + "_" + now.Format("20060102_150405") + ext
}

// ObjectKey joins the configured prefix, the customer phone and the stored name.
func ObjectKey(prefix, phone, name string) string {
	return path.Join(strings.Trim(prefix, "/"), phone, name)
}
