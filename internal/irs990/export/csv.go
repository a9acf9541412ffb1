package export

import (
	"archive/zip"
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/irs990-lake/internal/irs990"
)

// Member names inside the CSV archive.
const (
	ReturnsCSV  = "returns.csv"
	OfficersCSV = "officers.csv"
	GrantsCSV   = "grants.csv"
	ReturnsJSON = "returns.json"
)

// WriteCSVZip writes the three tables as deflated CSV members of one zip.
// Absent values are empty cells.
func WriteCSVZip(w io.Writer, t irs990.Tables) error {
	zw := zip.NewWriter(w)

	if err := writeCSVMember(zw, ReturnsCSV, irs990.ReturnColumns, t.Returns); err != nil {
		return err
	}
	if err := writeCSVMember(zw, OfficersCSV, irs990.OfficerColumns, t.Officers); err != nil {
		return err
	}
	if err := writeCSVMember(zw, GrantsCSV, irs990.GrantColumns, t.Grants); err != nil {
		return err
	}

	return eris.Wrap(zw.Close(), "export: close csv zip")
}

func writeCSVMember[T any](zw *zip.Writer, name string, cols []irs990.Column[T], recs []T) error {
	fw, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return eris.Wrapf(err, "export: create %s", name)
	}
	if err := WriteCSV(fw, cols, recs); err != nil {
		return eris.Wrapf(err, "export: write %s", name)
	}
	return nil
}

// WriteCSV writes a header row and one row per record.
func WriteCSV[T any](w io.Writer, cols []irs990.Column[T], recs []T) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(irs990.ColumnNames(cols)); err != nil {
		return err
	}
	record := make([]string, len(cols))
	for _, rec := range recs {
		for i, v := range irs990.Row(cols, rec) {
			record[i] = v.String()
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
