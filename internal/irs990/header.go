package irs990

import "github.com/beevik/etree"

// ExtractReturn builds the return header record for the document rooted at
// root. It always returns a record; fields with no present candidate are
// absent.
func ExtractReturn(docID string, root *etree.Element) Return {
	r := Return{DocumentID: docID}
	apply(ReturnRules, &r, root, root)
	return r
}
