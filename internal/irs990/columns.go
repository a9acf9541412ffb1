package irs990

// Column is one output column of a flattened table.
type Column[T any] struct {
	Name string
	Get  func(T) Text
}

// ReturnColumns is the returns table layout.
var ReturnColumns = []Column[Return]{
	{"src_fname", func(r Return) Text { return Present(r.DocumentID) }},
	{"return_type", func(r Return) Text { return r.ReturnType }},
	{"ein", func(r Return) Text { return r.EIN }},
	{"business_name", func(r Return) Text { return r.BusinessName }},
	{"business_address", func(r Return) Text { return r.BusinessAddress }},
	{"preparer_firm", func(r Return) Text { return r.PreparerFirm }},
	{"preparer_address", func(r Return) Text { return r.PreparerAddress }},
	{"tax_year", func(r Return) Text { return r.TaxYear }},
}

// OfficerColumns is the officers table layout; src_fname references returns.
var OfficerColumns = []Column[Officer]{
	{"name", func(o Officer) Text { return o.Name }},
	{"title", func(o Officer) Text { return o.Title }},
	{"address", func(o Officer) Text { return o.Address }},
	{"src_fname", func(o Officer) Text { return Present(o.DocumentID) }},
}

// GrantColumns is the grants table layout; src_fname references returns.
var GrantColumns = []Column[Grant]{
	{"recipient_name", func(g Grant) Text { return g.RecipientName }},
	{"recipient_address", func(g Grant) Text { return g.RecipientAddress }},
	{"purpose", func(g Grant) Text { return g.Purpose }},
	{"amount", func(g Grant) Text { return g.Amount }},
	{"src_fname", func(g Grant) Text { return Present(g.DocumentID) }},
}

// ColumnNames returns the names of cols in order.
func ColumnNames[T any](cols []Column[T]) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

// Row returns rec's values in column order.
func Row[T any](cols []Column[T], rec T) []Text {
	row := make([]Text, len(cols))
	for i, c := range cols {
		row[i] = c.Get(rec)
	}
	return row
}
