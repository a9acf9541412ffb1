package irs990

import "github.com/beevik/etree"

// ExtractOfficers returns one record per repeated officer structure, scanning
// OfficerVariants in order. When none exist it falls back to the single
// header-level officer, if the filing has one.
func ExtractOfficers(root *etree.Element) []Officer {
	nodes := findOfficerNodes(root)
	if len(nodes) == 0 {
		header, ok := findHeaderOfficer(root)
		if !ok {
			return []Officer{}
		}
		o := Officer{Address: Present("")}
		apply(HeaderOfficerRules, &o, root, header)
		return []Officer{o}
	}

	officers := make([]Officer, 0, len(nodes))
	for _, n := range nodes {
		var o Officer
		apply(OfficerRules, &o, root, n)
		officers = append(officers, o)
	}
	return officers
}

// findOfficerNodes concatenates the matches of every variant, keeping
// document order within a variant.
func findOfficerNodes(root *etree.Element) []*etree.Element {
	var nodes []*etree.Element
	for _, v := range OfficerVariants {
		nodes = append(nodes, v.Path.FindAll(root)...)
	}
	return nodes
}

// findHeaderOfficer returns the first header-level officer structure found.
func findHeaderOfficer(root *etree.Element) (*etree.Element, bool) {
	for _, p := range HeaderOfficerPaths {
		if e := p.Find(root); e != nil {
			return e, true
		}
	}
	return nil, false
}
