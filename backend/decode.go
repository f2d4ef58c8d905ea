package backend

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"git.sr.ht/~whereswaldon/plotwise/data"
)

// Format is the encoding of a data file.
type Format uint8

const (
	FormatCSV Format = iota
	FormatJSON
)

func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "csv"
}

// ParseFormat parses csv or json. An empty name guesses the format from
// the extension of path.
func ParseFormat(name, path string) (Format, error) {
	switch name {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "":
		if strings.EqualFold(filepath.Ext(path), ".json") {
			return FormatJSON, nil
		}
		return FormatCSV, nil
	default:
		return 0, fmt.Errorf("unknown data format %q", name)
	}
}

// Decode reads every row of r.
func Decode(r io.Reader, format Format) ([]data.RawDatum, error) {
	if format == FormatJSON {
		return DecodeJSON(r)
	}
	return DecodeCSV(r)
}

// DecodeJSON reads an array of objects. Numbers become float64 and
// RFC 3339 strings become time.Time, nested arrays included.
func DecodeJSON(r io.Reader) ([]data.RawDatum, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var objects []map[string]any
	if err := dec.Decode(&objects); err != nil {
		return nil, fmt.Errorf("failed decoding JSON rows: %w", err)
	}
	rows := make([]data.RawDatum, len(objects))
	for i, o := range objects {
		for k, v := range o {
			o[k] = normalizeJSON(v)
		}
		rows[i] = o
	}
	return rows, nil
}

func normalizeJSON(v any) any {
	switch v := v.(type) {
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
		return v
	case []any:
		for i := range v {
			v[i] = normalizeJSON(v[i])
		}
		return v
	default:
		return v
	}
}

// csvRows turns CSV records into rows keyed by the header.
type csvRows struct {
	r      *csv.Reader
	header []string
	// skipped counts malformed records.
	skipped int
}

func newCSVRows(r io.Reader) *csvRows {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	return &csvRows{r: cr}
}

// Next returns the next row. It returns io.EOF at the end of the input,
// which is not final for a lineReader over a growing file.
func (c *csvRows) Next() (data.RawDatum, error) {
	for {
		rec, err := c.r.Read()
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) && !errors.Is(err, io.EOF) {
				c.skipped++
				continue
			}
			return nil, err
		}
		if c.header == nil {
			c.header = make([]string, len(rec))
			for i, h := range rec {
				c.header[i] = strings.TrimSpace(h)
			}
			continue
		}
		row := make(data.RawDatum, len(c.header))
		for i, cell := range rec {
			if i >= len(c.header) {
				break
			}
			if v, ok := parseCell(cell); ok {
				row[c.header[i]] = v
			}
		}
		return row, nil
	}
}

// parseCell interprets a CSV cell. Empty cells are missing.
func parseCell(cell string) (any, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil, false
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil {
		return f, true
	}
	if t, err := time.Parse(time.RFC3339Nano, cell); err == nil {
		return t, true
	}
	return cell, true
}

// DecodeCSV reads a CSV document with a header row. Numeric cells become
// float64, RFC 3339 cells time.Time and empty cells are left out of the
// row. Malformed records are skipped.
func DecodeCSV(r io.Reader) ([]data.RawDatum, error) {
	c := newCSVRows(r)
	var rows []data.RawDatum
	for {
		row, err := c.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rows, fmt.Errorf("failed reading CSV rows: %w", err)
		}
		rows = append(rows, row)
	}
	if c.header == nil {
		return nil, fmt.Errorf("failed reading CSV rows: missing header")
	}
	if c.skipped > 0 {
		return rows, &SkippedError{Count: c.skipped}
	}
	return rows, nil
}

// SkippedError reports malformed records that were left out. The rows
// returned alongside it are usable.
type SkippedError struct {
	Count int
}

func (e *SkippedError) Error() string {
	return fmt.Sprintf("skipped %d malformed records", e.Count)
}
