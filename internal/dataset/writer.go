package dataset

import (
	"encoding/csv"
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"chalresp/internal/domain"
)

// Format names a record output format.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSONL Format = "jsonl"
)

// Writer receives records one at a time.
type Writer interface {
	Write(rec domain.Record) error
	// Flush pushes buffered rows to the underlying writer.
	Flush() error
}

// NewWriter returns a Writer for format over w.
func NewWriter(format Format, w io.Writer) (Writer, error) {
	switch format {
	case FormatCSV, "":
		return NewCSVWriter(w), nil
	case FormatJSONL:
		return NewJSONLWriter(w), nil
	}
	return nil, errors.Errorf("unknown output format %q", format)
}

// CSVWriter writes a header row followed by one row per record.
type CSVWriter struct {
	w      *csv.Writer
	header bool
}

// NewCSVWriter returns a CSVWriter over w.
func NewCSVWriter(w io.Writer) *CSVWriter { return &CSVWriter{w: csv.NewWriter(w)} }

// Write appends rec, preceded by the header on first use.
func (c *CSVWriter) Write(rec domain.Record) error {
	if !c.header {
		if err := c.w.Write(Columns); err != nil {
			return errors.Wrap(err, "write csv header")
		}
		c.header = true
	}
	fields := Fields(rec)
	row := make([]string, 0, len(Columns))
	for _, k := range fields.Keys() {
		v, _ := fields.Get(k)
		row = append(row, cell(v))
	}
	return errors.Wrap(c.w.Write(row), "write csv row")
}

// Flush flushes the csv writer.
func (c *CSVWriter) Flush() error {
	c.w.Flush()
	return c.w.Error()
}

// JSONLWriter writes one JSON object per line with keys in column order.
type JSONLWriter struct {
	enc *json.Encoder
}

// NewJSONLWriter returns a JSONLWriter over w.
func NewJSONLWriter(w io.Writer) *JSONLWriter { return &JSONLWriter{enc: json.NewEncoder(w)} }

// Write appends rec as a single line.
func (j *JSONLWriter) Write(rec domain.Record) error {
	return errors.Wrap(j.enc.Encode(Fields(rec)), "write json line")
}

// Flush is a no-op; every line is written through.
func (j *JSONLWriter) Flush() error { return nil }
