package irs990

import "github.com/beevik/etree"

// ExtractGrants returns one record per grant structure in document order.
// Amounts are kept as text.
func ExtractGrants(root *etree.Element) []Grant {
	nodes := GrantPath.FindAll(root)
	grants := make([]Grant, 0, len(nodes))
	for _, n := range nodes {
		var g Grant
		apply(GrantRules, &g, root, n)
		grants = append(grants, g)
	}
	return grants
}
