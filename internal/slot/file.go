// Package slot provides key-value slots that hold a serialized task collection.
package slot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidKey is returned for keys that cannot name a file.
var ErrInvalidKey = errors.New("invalid slot key")

// File stores each key in its own file, <Dir>/<key>.json.
type File struct {
	Dir string
}

// NewFile returns a File slot rooted at dir.
func NewFile(dir string) *File {
	return &File{Dir: dir}
}

// Path returns the file that backs key.
func (f *File) Path(key string) string {
	return filepath.Join(f.Dir, key+".json")
}

// Read returns the stored value for key. ok is false when nothing is stored.
func (f *File) Read(key string) (string, bool, error) {
	if err := validateKey(key); err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(f.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read slot %s: %w", key, err)
	}
	return string(data), true, nil
}

// Write replaces the stored value for key.
// The value is written to a temporary file in the same directory and renamed
// over the old one, so readers see either the old or the new value.
func (f *File) Write(key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := os.MkdirAll(f.Dir, 0700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tmp, err := os.CreateTemp(f.Dir, "."+key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("write slot %s: %w", key, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return fmt.Errorf("write slot %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync slot %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close slot %s: %w", key, err)
	}
	// CreateTemp opens with mode 0600, which the renamed file keeps.
	if err := os.Rename(tmpName, f.Path(key)); err != nil {
		return fmt.Errorf("replace slot %s: %w", key, err)
	}
	return nil
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
