package storage

import (
	"context"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// Store keeps uploaded payloads outside the database. Rows only hold the key.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// NewKey builds a collision-free key under prefix keeping the upload's
// extension, e.g. "images/5f0c...e1.png".
func NewKey(prefix, filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))))
	if len(ext) > 10 || strings.ContainsAny(ext, " /") {
		ext = ""
	}
	return strings.Trim(prefix, "/") + "/" + uuid.NewString() + ext
}

// DeleteAll removes every key and reports all failures together. Empty keys
// are skipped.
func DeleteAll(ctx context.Context, s Store, keys []string) error {
	var err error
	for _, key := range keys {
		if key == "" {
			continue
		}
		err = multierr.Append(err, s.Delete(ctx, key))
	}
	return err
}

func contentTypeForKey(key string) string {
	return mime.TypeByExtension(path.Ext(key))
}
