package catalog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"unicode"

	"casevue/internal/models"
)

// MaxLineSize bounds a single manifest line.
const MaxLineSize = 1 << 20

var (
	ErrManifestNotFound = errors.New("manifest not found")
	ErrEmptyCatalog     = errors.New("catalog has no cases")
)

// Catalog is the ordered, immutable list of cases a viewer navigates.
type Catalog struct {
	cases []models.Case
}

// Load reads one case key per line from the manifest at path.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("open manifest %s: %w", path, err)
	}
	defer f.Close()

	keys, err := readKeys(f)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}

	cat, err := FromKeys(keys)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, path)
	}

	return cat, nil
}

func readKeys(r io.Reader) ([]string, error) {
	var keys []string

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	line := 0
	for sc.Scan() {
		line++
		key := strings.TrimRightFunc(sc.Text(), unicode.IsSpace)
		if key == "" {
			continue
		}
		keys = append(keys, key)
	}

	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, fmt.Errorf("line %d exceeds %d bytes: %w", line+1, MaxLineSize, err)
		}
		return nil, err
	}
	return keys, nil
}

// FromKeys builds a catalog from keys already in memory. Duplicates are kept.
func FromKeys(keys []string) (*Catalog, error) {
	if len(keys) == 0 {
		return nil, ErrEmptyCatalog
	}

	cases := make([]models.Case, len(keys))
	for i, k := range keys {
		cases[i] = models.Case{Key: k, Index: i}
	}

	return &Catalog{cases: cases}, nil
}

func (c *Catalog) Len() int {
	return len(c.cases)
}

func (c *Catalog) At(i int) (models.Case, bool) {
	if i < 0 || i >= len(c.cases) {
		return models.Case{}, false
	}
	return c.cases[i], true
}

// Find returns the first case with the given key.
func (c *Catalog) Find(key string) (models.Case, bool) {
	for _, cs := range c.cases {
		if cs.Key == key {
			return cs, true
		}
	}
	return models.Case{}, false
}

func (c *Catalog) Cases() []models.Case {
	out := make([]models.Case, len(c.cases))
	copy(out, c.cases)
	return out
}
