package filex

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// MaxPhotoSize is the largest photo the story API accepts.
const MaxPhotoSize = 1 << 20

var ErrTooLarge = errors.New("file too large")

// EnsureParentDir creates the directory that will hold path, so a database
// file can be opened in a fresh location.
func EnsureParentDir(path string) (string, error) {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return dir, nil
	}

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// ReadLimited reads the file at path. Files over limit bytes fail with
// ErrTooLarge without being read in full.
func ReadLimited(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	b, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if int64(len(b)) > limit {
		return nil, fmt.Errorf("%s: %w (limit %d bytes)", filepath.Base(path), ErrTooLarge, limit)
	}

	return b, nil
}
