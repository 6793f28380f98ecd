// Package storage abstracts where raw uploaded grade sheets are kept. Two
// backends exist: a local directory for development and an S3 bucket for
// deployments.
package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileStore persists raw uploaded files and returns the key under which the
// payload was stored.
type FileStore interface {
	// Save writes data under a key derived from filename and returns that key.
	Save(ctx context.Context, filename string, data []byte) (string, error)
}

// uniqueKey derives a collision-free storage key from the original filename,
// keeping the extension so stored objects stay recognizable.
func uniqueKey(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filepath.Base(filename), ext)
	return fmt.Sprintf("%s_%s_%s%s", base, time.Now().UTC().Format("20060102T150405"), uuid.NewString()[:8], ext)
}
