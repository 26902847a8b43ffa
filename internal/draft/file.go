package draft

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps the draft as a JSON file. Writes are atomic: the draft is
// written to a temp file in the same directory and renamed into place.
type FileStore struct {
	path string
}

var _ Store = (*FileStore)(nil)

// NewFileStore stores the draft for key at <dir>/<key>.json.
func NewFileStore(dir, key string) *FileStore {
	return &FileStore{path: filepath.Join(dir, fileName(key))}
}

// fileName makes key safe for use as a file name.
func fileName(key string) string {
	return strings.NewReplacer(":", "-", "/", "-", "\\", "-").Replace(key) + ".json"
}

// Path returns the draft file location.
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Get(_ context.Context) (*State, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read draft: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	return decode(data)
}

func (f *FileStore) Set(_ context.Context, s State) error {
	data, err := encode(s)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create draft dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".draft-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write draft: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close draft: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replace draft: %w", err)
	}
	return nil
}

func (f *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove draft: %w", err)
	}
	return nil
}
