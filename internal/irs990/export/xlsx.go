package export

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/irs990-lake/internal/irs990"
)

// Sheet names in the workbook.
const (
	ReturnsSheet  = "returns"
	OfficersSheet = "officers"
	GrantsSheet   = "grants"
)

// WriteXLSX writes the three tables as sheets of one workbook.
func WriteXLSX(w io.Writer, t irs990.Tables) error {
	f := xlsx.NewFile()

	if err := addSheet(f, ReturnsSheet, irs990.ReturnColumns, t.Returns); err != nil {
		return err
	}
	if err := addSheet(f, OfficersSheet, irs990.OfficerColumns, t.Officers); err != nil {
		return err
	}
	if err := addSheet(f, GrantsSheet, irs990.GrantColumns, t.Grants); err != nil {
		return err
	}

	return eris.Wrap(f.Write(w), "export: write xlsx")
}

func addSheet[T any](f *xlsx.File, name string, cols []irs990.Column[T], recs []T) error {
	sheet, err := f.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "export: add sheet %s", name)
	}

	header := sheet.AddRow()
	for _, n := range irs990.ColumnNames(cols) {
		header.AddCell().SetString(n)
	}
	for _, rec := range recs {
		row := sheet.AddRow()
		for _, v := range irs990.Row(cols, rec) {
			row.AddCell().SetString(v.String())
		}
	}
	return nil
}
