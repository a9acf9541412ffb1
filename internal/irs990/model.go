// Package irs990 extracts canonical return, officer, and grant records from
// IRS Form 990 e-file XML documents whose tag names vary across schema
// revisions, and flattens them into foreign-keyed tables.
package irs990

import "fmt"

// Return is the canonical header record of one filing. Exactly one is
// produced per document.
type Return struct {
	DocumentID      string `json:"src_fname"`
	ReturnType      Text   `json:"return_type"`
	EIN             Text   `json:"ein"`
	BusinessName    Text   `json:"business_name"`
	BusinessAddress Text   `json:"business_address"`
	PreparerFirm    Text   `json:"preparer_firm"`
	PreparerAddress Text   `json:"preparer_address"`
	TaxYear         Text   `json:"tax_year"`
}

// Officer is one officer, director, trustee, or key employee listed on a
// filing. DocumentID is set when the officer is flattened.
type Officer struct {
	DocumentID string `json:"src_fname,omitempty"`
	Name       Text   `json:"name"`
	Title      Text   `json:"title"`
	Address    Text   `json:"address"`
}

// Grant is one grant or contribution paid during the year. DocumentID is set
// when the grant is flattened.
type Grant struct {
	DocumentID       string `json:"src_fname,omitempty"`
	RecipientName    Text   `json:"recipient_name"`
	RecipientAddress Text   `json:"recipient_address"`
	Purpose          Text   `json:"purpose"`
	Amount           Text   `json:"amount"`
}

// Filing is the composite record for one document: the return fields with
// nested officer and grant collections. It is the nested tree form used for
// document-oriented export.
type Filing struct {
	Return
	Officers []Officer `json:"officers"`
	Grants   []Grant   `json:"grants"`
}

// Partition identifies one source archive by its (year, part).
type Partition struct {
	Year int `json:"year"`
	Part int `json:"part"`
}

// String returns "year/part".
func (p Partition) String() string {
	return fmt.Sprintf("%d/%d", p.Year, p.Part)
}

// Batch holds every filing of one partition in archive order.
type Batch struct {
	Partition Partition
	Filings   []Filing
	// Skipped lists members dropped under the skip policy for malformed
	// documents.
	Skipped []string
}

// Tables flattens the batch's filings.
func (b *Batch) Tables() Tables {
	return Flatten(b.Filings)
}

// Tables are the three normalized collections of a batch. Officers and
// Grants reference Returns through DocumentID.
type Tables struct {
	Returns  []Return
	Officers []Officer
	Grants   []Grant
}
