package prompt

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var ErrPromptNotFound = errors.New("prompt template not found")

// Store resolves raw template text by name.
type Store interface {
	Load(name string) (string, error)
}

// DirStore reads templates from a directory using the
// "<name>.prompt.txt" file-stem convention.
type DirStore struct {
	dir string
}

func NewDirStore(dir string) *DirStore {
	return &DirStore{dir: dir}
}

func (s *DirStore) Load(name string) (string, error) {
	path := filepath.Join(s.dir, name+".prompt.txt")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrPromptNotFound, path)
		}
		return "", fmt.Errorf("failed to read prompt %s: %w", path, err)
	}
	return string(data), nil
}
