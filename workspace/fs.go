package workspace

import (
	"os"
	"path/filepath"
)

// Writer writes a file into a directory, creating the directory if needed.
type Writer interface {
	WriteFile(dir, name, content string) (string, error)
}

// Eraser removes a path and everything under it. Removing a missing path is not an error.
type Eraser interface {
	Erase(path string) error
}

// FS is the pair of filesystem operations a Manager needs.
type FS interface {
	Writer
	Eraser
}

// OSFS implements FS on the local filesystem.
type OSFS struct{}

func (OSFS) WriteFile(dir, name, content string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (OSFS) Erase(path string) error {
	return os.RemoveAll(path)
}
