package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FilesRoute is where the HTTP server exposes LocalUploader's root.
const FilesRoute = "/files"

// LocalUploader writes files under Root/destination and links them through FilesRoute.
type LocalUploader struct {
	Root          string
	PublicBaseURL string
}

// NewLocalUploader stores under root. Links are publicBaseURL + FilesRoute + key.
func NewLocalUploader(root, publicBaseURL string) *LocalUploader {
	return &LocalUploader{Root: root, PublicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

// Upload writes content to Root/destination/filename, creating directories.
func (w *LocalUploader) Upload(_ context.Context, content []byte, filename, destination string) (string, error) {
	rel := filepath.Join(destination, filepath.FromSlash(filename))
	if rel == "." || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return "", fmt.Errorf("invalid upload path %q", rel)
	}

	out := filepath.Join(w.Root, rel)
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(out, content, 0o644); err != nil {
		return "", err
	}
	return w.PublicBaseURL + FilesRoute + "/" + escapeKey(filepath.ToSlash(rel)), nil
}
