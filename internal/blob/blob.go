// Package blob stores uploaded images. Store is the final home of an
// object; Stager holds files that are not yet promoted, such as the avatar
// of a registration awaiting activation.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidRef = errors.New("invalid blob reference")

// Object identifies a stored blob. ID is what Delete takes; URL is public.
type Object struct {
	ID  string `json:"public_id"`
	URL string `json:"url"`
}

type Store interface {
	Upload(ctx context.Context, folder, filename string, r io.Reader, contentType string) (Object, error)
	Delete(ctx context.Context, id string) error
}

// newKey builds a collision free key that keeps the upload's extension.
func newKey(folder, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if len(ext) > 8 {
		ext = ""
	}
	return path.Join(folder, uuid.NewString()+ext)
}

func checkID(id string) error {
	if id == "" || strings.Contains(id, "..") || strings.HasPrefix(id, "/") || strings.Contains(id, `\`) {
		return fmt.Errorf("%w: %q", ErrInvalidRef, id)
	}
	return nil
}

// Promote moves a staged file into store under folder. The staged copy is
// removed only after the upload succeeded.
func Promote(ctx context.Context, st *Stager, store Store, ref, folder string) (Object, error) {
	f, meta, err := st.Open(ref)
	if err != nil {
		return Object{}, err
	}
	obj, err := store.Upload(ctx, folder, meta.Filename, f, meta.ContentType)
	_ = f.Close()
	if err != nil {
		return Object{}, err
	}
	_ = st.Discard(ref)
	return obj, nil
}
