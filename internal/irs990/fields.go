package irs990

import "github.com/beevik/etree"

// Rule maps one canonical field of T to its priority-ordered candidates.
type Rule[T any] struct {
	Field      string         `yaml:"field"`
	Candidates Candidates     `yaml:"candidates"`
	Assign     func(*T, Text) `yaml:"-"`
}

// apply resolves every rule into out.
func apply[T any](rules []Rule[T], out *T, root, node *etree.Element) {
	for _, r := range rules {
		r.Assign(out, r.Candidates.Resolve(root, node))
	}
}

// ReturnRules lists the return header fields. Every lookup searches the
// whole document.
var ReturnRules = []Rule[Return]{
	{
		Field:      "return_type",
		Candidates: Candidates{Doc(".//ReturnTypeCd"), Doc(".//ReturnType")},
		Assign:     func(r *Return, v Text) { r.ReturnType = v },
	},
	{
		Field:      "ein",
		Candidates: Candidates{Doc(".//Filer/EIN")},
		Assign:     func(r *Return, v Text) { r.EIN = v },
	},
	{
		Field:      "business_name",
		Candidates: Candidates{DocJoined(".//Filer/BusinessName/*"), DocJoined(".//Filer/Name/*")},
		Assign:     func(r *Return, v Text) { r.BusinessName = v },
	},
	{
		Field:      "business_address",
		Candidates: Candidates{DocJoined(".//Filer/USAddress/*")},
		Assign:     func(r *Return, v Text) { r.BusinessAddress = v },
	},
	{
		Field:      "preparer_firm",
		Candidates: Candidates{DocJoined(".//PreparerFirmName/*"), DocJoined(".//PreparerFirmBusinessName/*")},
		Assign:     func(r *Return, v Text) { r.PreparerFirm = v },
	},
	{
		Field:      "preparer_address",
		Candidates: Candidates{DocJoined(".//PreparerUSAddress/*"), DocJoined(".//PreparerFirmUSAddress/*")},
		Assign:     func(r *Return, v Text) { r.PreparerAddress = v },
	},
	{
		Field:      "tax_year",
		Candidates: Candidates{Doc(".//TaxYr"), Doc(".//TaxYear")},
		Assign:     func(r *Return, v Text) { r.TaxYear = v },
	},
}

// Variant is one tag name under which repeated officer structures appear.
type Variant struct {
	Name string `yaml:"name"`
	Path Path   `yaml:"path"`
}

// OfficerVariants are scanned in this order and their matches concatenated.
var OfficerVariants = []Variant{
	{Name: "OfficerDirTrstKeyEmplGrp", Path: MustParsePath(".//OfficerDirTrstKeyEmplGrp")},
	{Name: "OfficerDirectorTrusteeEmplGrp", Path: MustParsePath(".//OfficerDirectorTrusteeEmplGrp")},
	{Name: "OfcrDirTrusteesOrKeyEmployee", Path: MustParsePath(".//OfcrDirTrusteesOrKeyEmployee")},
	{Name: "Form990PartVIISectionAGrp", Path: MustParsePath(".//Form990PartVIISectionAGrp")},
}

// OfficerRules apply to each repeated officer structure.
var OfficerRules = []Rule[Officer]{
	{
		Field:      "name",
		Candidates: Candidates{Node("PersonNm"), NodeJoined(".//BusinessName/*"), Node("PersonName")},
		Assign:     func(o *Officer, v Text) { o.Name = v },
	},
	{
		Field:      "title",
		Candidates: Candidates{Node("TitleTxt"), Node("Title")},
		Assign:     func(o *Officer, v Text) { o.Title = v },
	},
	{
		Field:      "address",
		Candidates: Candidates{NodeJoined(".//USAddress/*")},
		Assign:     func(o *Officer, v Text) { o.Address = v.OrEmpty() },
	},
}

// HeaderOfficerPaths locate the single header-level officer, tried in order,
// when a filing lists no repeated officer structures.
var HeaderOfficerPaths = []Path{
	MustParsePath(".//BusinessOfficerGrp"),
	MustParsePath(".//Officer"),
}

// HeaderOfficerRules apply to the header-level officer. The address is
// always empty on this path.
var HeaderOfficerRules = []Rule[Officer]{
	{
		Field:      "name",
		Candidates: Candidates{Node("PersonNm"), Node("Name")},
		Assign:     func(o *Officer, v Text) { o.Name = v },
	},
	{
		Field:      "title",
		Candidates: Candidates{Node("PersonTitleTxt"), Node("Title")},
		Assign:     func(o *Officer, v Text) { o.Title = v },
	},
}

// GrantPath locates repeated grant structures.
var GrantPath = MustParsePath(".//GrantOrContributionPdDurYrGrp")

// GrantRules apply to each repeated grant structure.
var GrantRules = []Rule[Grant]{
	{
		Field:      "recipient_name",
		Candidates: Candidates{Node("RecipientPersonNm"), NodeJoined(".//RecipientBusinessName/*")},
		Assign:     func(g *Grant, v Text) { g.RecipientName = v },
	},
	{
		Field:      "recipient_address",
		Candidates: Candidates{NodeJoined(".//RecipientUSAddress/*")},
		Assign:     func(g *Grant, v Text) { g.RecipientAddress = v },
	},
	{
		Field:      "purpose",
		Candidates: Candidates{Node(".//GrantOrContributionPurposeTxt")},
		Assign:     func(g *Grant, v Text) { g.Purpose = v },
	},
	{
		Field:      "amount",
		Candidates: Candidates{Node("Amt")},
		Assign:     func(g *Grant, v Text) { g.Amount = v },
	},
}

// Schema is the full set of extraction tables.
type Schema struct {
	Return             []Rule[Return]  `yaml:"return"`
	OfficerVariants    []Variant       `yaml:"officer_variants"`
	Officer            []Rule[Officer] `yaml:"officer"`
	HeaderOfficerPaths []Path          `yaml:"header_officer_paths"`
	HeaderOfficer      []Rule[Officer] `yaml:"header_officer"`
	GrantPath          Path            `yaml:"grant_path"`
	Grant              []Rule[Grant]   `yaml:"grant"`
}

// CurrentSchema returns the tables the extractors use.
func CurrentSchema() Schema {
	return Schema{
		Return:             ReturnRules,
		OfficerVariants:    OfficerVariants,
		Officer:            OfficerRules,
		HeaderOfficerPaths: HeaderOfficerPaths,
		HeaderOfficer:      HeaderOfficerRules,
		GrantPath:          GrantPath,
		Grant:              GrantRules,
	}
}
