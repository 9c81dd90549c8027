package metaio

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"relink/internal/meta"
)

// ReadFile loads the module stored at path. A missing file yields an error
// matching fs.ErrNotExist.
func ReadFile(path string) (m *meta.Module, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	m, err = Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// WriteFile stores m at path. The module is encoded into a temporary file
// next to path which then replaces it, so a failed write leaves the old
// file untouched.
func WriteFile(m *meta.Module, path string) (err error) {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, ".relink-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			err = errors.Join(err, removeIfExists(tmp))
		}
	}()

	w := bufio.NewWriter(f)
	if err = Encode(w, m); err != nil {
		_ = f.Close()
		return err
	}
	if err = w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
