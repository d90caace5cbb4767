// Package report reads the per-case class probability files written by the
// classification pipeline.
//
// A report looks like:
//
//	Prediction: AOM
//	Probabilities:
//	AOM: 0.81
//	Normal: 0.12
//	...
//
// The first two lines are a header and are ignored.
package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
)

const (
	headerLines = 2
	separator   = ": "

	maxLineSize = 1 << 20
)

var (
	ErrReportNotFound     = errors.New("probability report not found")
	ErrMalformedLine      = errors.New("malformed report line")
	ErrInvalidProbability = errors.New("invalid probability value")
)

// LineError points at the offending line of a report.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

type Entry struct {
	Class       string  `json:"class"`
	Probability float64 `json:"probability"`
}

// Report is an ordered class -> probability mapping. Values are whatever
// the file says; they are not normalised.
type Report struct {
	entries []Entry
	index   map[string]int
}

func New() *Report {
	return &Report{index: make(map[string]int)}
}

// Set overwrites an existing class in place or appends a new one.
func (r *Report) Set(class string, p float64) {
	if i, ok := r.index[class]; ok {
		r.entries[i].Probability = p
		return
	}
	r.index[class] = len(r.entries)
	r.entries = append(r.entries, Entry{Class: class, Probability: p})
}

func (r *Report) Get(class string) (float64, bool) {
	i, ok := r.index[class]
	if !ok {
		return 0, false
	}
	return r.entries[i].Probability, true
}

func (r *Report) Len() int {
	return len(r.entries)
}

func (r *Report) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Best returns the most probable class. Ties go to the earlier entry.
func (r *Report) Best() (Entry, bool) {
	if len(r.entries) == 0 {
		return Entry{}, false
	}
	best := r.entries[0]
	for _, e := range r.entries[1:] {
		if e.Probability > best.Probability {
			best = e
		}
	}
	return best, true
}

func Parse(path string) (*Report, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrReportNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("open report %s: %w", path, err)
	}
	defer f.Close()

	r, err := ParseReader(f)
	if err != nil {
		return nil, fmt.Errorf("parse report %s: %w", path, err)
	}
	return r, nil
}

func ParseReader(src io.Reader) (*Report, error) {
	r := New()

	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	line := 0
	for sc.Scan() {
		line++
		if line <= headerLines {
			continue
		}

		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}

		class, value, ok := strings.Cut(text, separator)
		if !ok {
			return nil, &LineError{Line: line, Text: text, Err: ErrMalformedLine}
		}

		p, ok := parseProbability(value)
		if !ok {
			return nil, &LineError{Line: line, Text: text, Err: ErrInvalidProbability}
		}

		r.Set(class, p)
	}

	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, fmt.Errorf("line %d exceeds %d bytes: %w", line+1, maxLineSize, err)
		}
		return nil, err
	}

	return r, nil
}

// parseProbability accepts finite decimal numbers only. Hex floats, NaN,
// infinities and values that overflow float64 are rejected.
func parseProbability(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	digits := strings.TrimLeft(s, "+-")
	if len(digits) > 1 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		return 0, false
	}

	p, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, false
	}
	return p, true
}
