// Package export writes flattened IRS 990 batches as zipped CSV tables,
// zipped nested JSON, and XLSX workbooks.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/irs990-lake/internal/irs990"
)

// Format is an output format.
type Format string

const (
	// CSV is a zip of one CSV member per table.
	CSV Format = "csv"
	// JSON is a zip holding the nested returns as one JSON document.
	JSON Format = "json"
	// XLSX is a single workbook with one sheet per table.
	XLSX Format = "xlsx"
)

// ParseFormats validates a list of format names, dropping duplicates.
func ParseFormats(names []string) ([]Format, error) {
	seen := make(map[Format]bool)
	var out []Format
	for _, n := range names {
		f := Format(strings.ToLower(strings.TrimSpace(n)))
		switch f {
		case CSV, JSON, XLSX:
		case "":
			continue
		default:
			return nil, eris.Errorf("export: unknown format %q (valid: csv, json, xlsx)", n)
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// FileName returns the output file name of a partition in format f.
func FileName(f Format, p irs990.Partition) string {
	ext := "zip"
	if f == XLSX {
		ext = "xlsx"
	}
	return fmt.Sprintf("IRS990_%s_%d_part_%d.%s", f, p.Year, p.Part, ext)
}

// Writer exports batches into one directory per format under a root.
type Writer struct {
	dirs    map[Format]string
	formats []Format
}

// NewWriter creates a Writer placing format f under dirs[f].
func NewWriter(formats []Format, dirs map[Format]string) (*Writer, error) {
	for _, f := range formats {
		if dirs[f] == "" {
			return nil, eris.Errorf("export: no directory configured for %s", f)
		}
	}
	return &Writer{dirs: dirs, formats: formats}, nil
}

// Formats returns the formats this writer produces.
func (w *Writer) Formats() []Format {
	return w.formats
}

// Write exports b in every configured format and returns the paths written.
func (w *Writer) Write(b *irs990.Batch) ([]string, error) {
	tables := b.Tables()
	var paths []string
	for _, f := range w.formats {
		dir := w.dirs[f]
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return paths, eris.Wrapf(err, "export: create %s", dir)
		}
		path := filepath.Join(dir, FileName(f, b.Partition))

		var err error
		switch f {
		case CSV:
			err = writeAtomic(path, func(out io.Writer) error { return WriteCSVZip(out, tables) })
		case JSON:
			err = writeAtomic(path, func(out io.Writer) error { return WriteJSONZip(out, b.Filings) })
		case XLSX:
			err = writeAtomic(path, func(out io.Writer) error { return WriteXLSX(out, tables) })
		}
		if err != nil {
			return paths, err
		}

		zap.L().Debug("exported partition",
			zap.String("partition", b.Partition.String()),
			zap.String("format", string(f)),
			zap.String("path", path),
		)
		paths = append(paths, path)
	}
	return paths, nil
}

// writeAtomic writes path through a temp file renamed on success.
func writeAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return eris.Wrap(err, "export: create temp file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return eris.Wrapf(err, "export: write %s", filepath.Base(path))
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "export: close temp file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return eris.Wrapf(err, "export: rename to %s", path)
	}
	return nil
}
