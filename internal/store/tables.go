package store

import "github.com/sells-group/irs990-lake/internal/irs990"

// table is one normalized collection laid out for bulk insert. Every table
// leads with the partition key so a partition can be replaced in place.
type table struct {
	name    string
	columns []string
	n       int
	row     func(i int) []any
}

// tableNames in delete order; children first.
var tableNames = []string{"officers", "grants", "returns"}

func partitionColumns(cols []string) []string {
	return append([]string{"year", "part"}, cols...)
}

func rowValues(p irs990.Partition, texts []irs990.Text) []any {
	vals := make([]any, 0, len(texts)+2)
	vals = append(vals, p.Year, p.Part)
	for _, t := range texts {
		vals = append(vals, t.Ptr())
	}
	return vals
}

// layout returns the three tables of t in insert order.
func layout(p irs990.Partition, t irs990.Tables) []table {
	return []table{
		{
			name:    "returns",
			columns: partitionColumns(irs990.ColumnNames(irs990.ReturnColumns)),
			n:       len(t.Returns),
			row: func(i int) []any {
				return rowValues(p, irs990.Row(irs990.ReturnColumns, t.Returns[i]))
			},
		},
		{
			name:    "officers",
			columns: partitionColumns(irs990.ColumnNames(irs990.OfficerColumns)),
			n:       len(t.Officers),
			row: func(i int) []any {
				return rowValues(p, irs990.Row(irs990.OfficerColumns, t.Officers[i]))
			},
		},
		{
			name:    "grants",
			columns: partitionColumns(irs990.ColumnNames(irs990.GrantColumns)),
			n:       len(t.Grants),
			row: func(i int) []any {
				return rowValues(p, irs990.Row(irs990.GrantColumns, t.Grants[i]))
			},
		},
	}
}
