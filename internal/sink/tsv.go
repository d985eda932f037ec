// Package sink writes and reads the tab-separated output files.
package sink

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Writer writes tab-separated rows. Fields are quoted only when they contain
// a tab, a quote or a line break; leading and trailing spaces are written as
// they are.
type Writer struct {
	f    *os.File
	buf  *bufio.Writer
	rows int
}

// Create truncates path and returns a Writer on it.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	w := NewWriter(f)
	w.f = f
	return w, nil
}

// NewWriter writes to w. Close flushes but does not close w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{buf: bufio.NewWriterSize(w, 1<<20)}
}

func (w *Writer) Write(fields ...string) error {
	// a lone empty field is quoted so the row is not read back as blank
	if len(fields) == 1 && fields[0] == "" {
		if _, err := w.buf.WriteString("\"\"\n"); err != nil {
			return err
		}
		w.rows++
		return nil
	}
	for i, field := range fields {
		if i > 0 {
			if err := w.buf.WriteByte('\t'); err != nil {
				return err
			}
		}
		if err := w.writeField(field); err != nil {
			return err
		}
	}
	if err := w.buf.WriteByte('\n'); err != nil {
		return err
	}
	w.rows++
	return nil
}

func (w *Writer) writeField(field string) error {
	if !strings.ContainsAny(field, "\t\"\r\n") {
		_, err := w.buf.WriteString(field)
		return err
	}
	if err := w.buf.WriteByte('"'); err != nil {
		return err
	}
	if _, err := w.buf.WriteString(strings.ReplaceAll(field, `"`, `""`)); err != nil {
		return err
	}
	return w.buf.WriteByte('"')
}

// Rows is the number of rows written so far.
func (w *Writer) Rows() int { return w.rows }

// Flush pushes buffered rows to the underlying writer.
func (w *Writer) Flush() error {
	return w.buf.Flush()
}

func (w *Writer) Close() error {
	err := w.Flush()
	if w.f != nil {
		err = errors.Join(err, w.f.Close())
	}
	return err
}

// Read calls fn for every row of the file at path. Every row must have
// exactly width fields.
func Read(path string, width int, fn func(fields []string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	cr := csv.NewReader(bufio.NewReaderSize(f, 1<<20))
	cr.Comma = '\t'
	cr.FieldsPerRecord = width
	cr.ReuseRecord = true
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}
