package blob

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// StagedMeta describes a staged upload.
type StagedMeta struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

// Stager keeps pending uploads in a local directory. A ref is an opaque file
// name inside that directory.
type Stager struct {
	Dir string
}

func NewStager(dir string) (*Stager, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &Stager{Dir: dir}, nil
}

func (s *Stager) Stage(r io.Reader, meta StagedMeta) (string, error) {
	ref := uuid.NewString()
	f, err := os.Create(s.path(ref))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(s.path(ref))
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	b, _ := json.Marshal(meta)
	if err := os.WriteFile(s.path(ref)+".json", b, 0o600); err != nil {
		_ = os.Remove(s.path(ref))
		return "", err
	}
	return ref, nil
}

// Open returns the staged file and its metadata. The caller closes it.
func (s *Stager) Open(ref string) (io.ReadCloser, StagedMeta, error) {
	var meta StagedMeta
	if err := checkRef(ref); err != nil {
		return nil, meta, err
	}
	if b, err := os.ReadFile(s.path(ref) + ".json"); err == nil {
		_ = json.Unmarshal(b, &meta)
	}
	f, err := os.Open(s.path(ref))
	if err != nil {
		return nil, meta, err
	}
	return f, meta, nil
}

// Discard removes a staged file. Missing files are ignored.
func (s *Stager) Discard(ref string) error {
	if err := checkRef(ref); err != nil {
		return err
	}
	for _, p := range []string{s.path(ref), s.path(ref) + ".json"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (s *Stager) path(ref string) string { return filepath.Join(s.Dir, ref) }

func checkRef(ref string) error {
	if _, err := uuid.Parse(ref); err != nil || strings.ContainsAny(ref, `/\.`) {
		return fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return nil
}
