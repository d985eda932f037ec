package rrf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"
)

const maxLineSize = 16 << 20

// ErrMissingColumn means a record is shorter than its file format requires.
// A wrong file was passed, so the scan cannot continue.
var ErrMissingColumn = errors.New("missing column")

// Record is one non-blank line split into columns.
type Record struct {
	Line    int
	Columns []string
}

// ParseLine trims line and splits it on '|'. ok is false for blank lines.
func ParseLine(line string) (rec Record, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Record{}, false
	}
	return Record{Columns: strings.Split(line, "|")}, true
}

// Field returns column i. Negative i counts from the end.
func (r Record) Field(i int) (string, error) {
	idx := i
	if idx < 0 {
		idx += len(r.Columns)
	}
	if idx < 0 || idx >= len(r.Columns) {
		return "", fmt.Errorf("line %d: column %d of %d: %w", r.Line, i, len(r.Columns), ErrMissingColumn)
	}
	return r.Columns[idx], nil
}

// Fields resolves several columns at once, failing on the first missing one.
func (r Record) Fields(cols ...int) ([]string, error) {
	out := make([]string, len(cols))
	for n, c := range cols {
		v, err := r.Field(c)
		if err != nil {
			return nil, err
		}
		out[n] = v
	}
	return out, nil
}

// Scan yields the non-blank records of rd in order. A read error is yielded
// once and ends the sequence.
func Scan(rd io.Reader) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		sc := bufio.NewScanner(rd)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		n := 0
		for sc.Scan() {
			n++
			rec, ok := ParseLine(sc.Text())
			if !ok {
				continue
			}
			rec.Line = n
			if !yield(rec, nil) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			yield(Record{}, fmt.Errorf("read line %d: %w", n+1, err))
		}
	}
}

// ScanFile opens path and scans it. The file is opened when iteration starts
// and closed when it stops, so each range over the result re-reads the file.
func ScanFile(path string) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		f, err := os.Open(path)
		if err != nil {
			yield(Record{}, fmt.Errorf("open %s: %w", path, err))
			return
		}
		defer f.Close()
		for rec, err := range Scan(f) {
			if err != nil {
				err = fmt.Errorf("%s: %w", path, err)
			}
			if !yield(rec, err) || err != nil {
				return
			}
		}
	}
}
