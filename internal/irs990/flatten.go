package irs990

// Flatten splits filings into returns, officers, and grants. Officers and
// grants are copied and stamped with their filing's DocumentID; the input is
// not modified. Order follows filings, then extraction order within each.
func Flatten(filings []Filing) Tables {
	t := Tables{Returns: make([]Return, 0, len(filings))}
	for _, f := range filings {
		t.Returns = append(t.Returns, f.Return)
		for _, o := range f.Officers {
			o.DocumentID = f.DocumentID
			t.Officers = append(t.Officers, o)
		}
		for _, g := range f.Grants {
			g.DocumentID = f.DocumentID
			t.Grants = append(t.Grants, g)
		}
	}
	return t
}
