package irs990

import "github.com/beevik/etree"

// Compose assembles the filing for one parsed document.
func Compose(docID string, root *etree.Element) Filing {
	return Filing{
		Return:   ExtractReturn(docID, root),
		Officers: ExtractOfficers(root),
		Grants:   ExtractGrants(root),
	}
}
