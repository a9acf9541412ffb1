package irs990

import (
	"encoding/json"
	"strings"

	"github.com/beevik/etree"
)

// Text is an optional text value. The zero value is absent, which is
// distinct from a present empty string.
type Text struct {
	Value string
	Valid bool
}

// Present wraps s as a present value.
func Present(s string) Text {
	return Text{Value: s, Valid: true}
}

// String returns the value, or "" when absent.
func (t Text) String() string {
	return t.Value
}

// Ptr returns nil when absent so database drivers write NULL.
func (t Text) Ptr() *string {
	if !t.Valid {
		return nil
	}
	v := t.Value
	return &v
}

// OrEmpty turns an absent value into a present empty string.
func (t Text) OrEmpty() Text {
	if t.Valid {
		return t
	}
	return Present("")
}

// MarshalJSON encodes an absent value as null.
func (t Text) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.Value)
}

// UnmarshalJSON decodes null as absent.
func (t *Text) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*t = Text{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*t = Present(s)
	return nil
}

// ResolveOne returns the direct character data of e. A nil element, or one
// without character data, resolves to absent.
func ResolveOne(e *etree.Element) Text {
	if e == nil {
		return Text{}
	}
	s := e.Text()
	if s == "" {
		return Text{}
	}
	return Present(s)
}

// ResolveAll joins the direct character data of els with single spaces, in
// the order given. An empty set, or one where no element has character data,
// resolves to absent so the next candidate is tried.
func ResolveAll(els []*etree.Element) Text {
	parts := make([]string, len(els))
	found := false
	for i, e := range els {
		parts[i] = e.Text()
		found = found || parts[i] != ""
	}
	if !found {
		return Text{}
	}
	return Present(strings.Join(parts, " "))
}
