package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	ErrInputMissing = errors.New("input directory does not exist")
	ErrNoDocuments  = errors.New("no PDF files found")
)

// NotFoundError is returned when a named document is not in the input
// directory. Available lists what is there instead.
type NotFoundError struct {
	Name      string
	Dir       string
	Available []string
}

func (e *NotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("%s not found in %s", e.Name, e.Dir)
	}
	return fmt.Sprintf("%s not found in %s; available files:\n  %s", e.Name, e.Dir, strings.Join(e.Available, "\n  "))
}

// Discover lists the PDF files directly inside dir, sorted by name.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputMissing, dir)
		}
		return nil, fmt.Errorf("read input directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoDocuments, dir)
	}
	sort.Strings(paths)
	return paths, nil
}

// FindNamed resolves name (a bare file name) inside dir.
func FindNamed(dir, name string) (string, error) {
	paths, err := Discover(dir)
	if err != nil {
		return "", err
	}
	want := filepath.Base(name)
	var names []string
	for _, p := range paths {
		if filepath.Base(p) == want {
			return p, nil
		}
		names = append(names, filepath.Base(p))
	}
	return "", &NotFoundError{Name: want, Dir: dir, Available: names}
}
