package blob

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps blobs on disk under Root and serves them below BaseURL.
type LocalStore struct {
	Root    string
	BaseURL string
}

func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{Root: root, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStore) Upload(_ context.Context, folder, filename string, r io.Reader, _ string) (Object, error) {
	key := newKey(folder, filename)
	dst := filepath.Join(s.Root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return Object{}, err
	}
	f, err := os.Create(dst)
	if err != nil {
		return Object{}, err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(dst)
		return Object{}, err
	}
	if err := f.Close(); err != nil {
		return Object{}, err
	}
	return Object{ID: key, URL: s.BaseURL + "/" + key}, nil
}

// Delete removes a blob; deleting a missing blob is not an error.
func (s *LocalStore) Delete(_ context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.Root, filepath.FromSlash(id)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
