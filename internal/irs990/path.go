package irs990

import (
	"strings"

	"github.com/beevik/etree"
	"github.com/rotisserie/eris"
)

const wildcard = "*"

// Path is a small subset of ElementTree path syntax: an optional leading
// ".//" (search all descendants) followed by "/"-separated child steps,
// where "*" matches any element. Matches are returned in document order.
type Path struct {
	raw   string
	deep  bool
	steps []string
}

// ParsePath compiles s into a Path.
func ParsePath(s string) (Path, error) {
	p := Path{raw: s}
	rest := s
	if strings.HasPrefix(rest, ".//") {
		p.deep = true
		rest = rest[len(".//"):]
	}
	if rest == "" {
		return Path{}, eris.Errorf("irs990: empty path %q", s)
	}
	for _, step := range strings.Split(rest, "/") {
		switch step {
		case "", ".", "..":
			return Path{}, eris.Errorf("irs990: unsupported step %q in path %q", step, s)
		}
		p.steps = append(p.steps, step)
	}
	return p, nil
}

// MustParsePath is ParsePath for package-level tables.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the path as written.
func (p Path) String() string {
	return p.raw
}

// MarshalYAML renders the path as written.
func (p Path) MarshalYAML() (any, error) {
	return p.raw, nil
}

// Find returns the first match under e, or nil.
func (p Path) Find(e *etree.Element) *etree.Element {
	found := p.find(e, 1)
	if len(found) == 0 {
		return nil
	}
	return found[0]
}

// FindAll returns every match under e in document order.
func (p Path) FindAll(e *etree.Element) []*etree.Element {
	return p.find(e, 0)
}

// find collects up to limit matches (0 = unlimited).
func (p Path) find(e *etree.Element, limit int) []*etree.Element {
	if e == nil || len(p.steps) == 0 {
		return nil
	}
	var out []*etree.Element
	collect := func(start *etree.Element) bool {
		for _, m := range matchSteps(start, p.steps[1:]) {
			out = append(out, m)
			if limit > 0 && len(out) >= limit {
				return false
			}
		}
		return true
	}

	if !p.deep {
		for _, c := range e.ChildElements() {
			if tagMatches(c, p.steps[0]) && !collect(c) {
				break
			}
		}
		return out
	}

	walkDescendants(e, func(d *etree.Element) bool {
		if !tagMatches(d, p.steps[0]) {
			return true
		}
		return collect(d)
	})
	return out
}

// matchSteps follows child steps from e; with no steps e itself matches.
func matchSteps(e *etree.Element, steps []string) []*etree.Element {
	if len(steps) == 0 {
		return []*etree.Element{e}
	}
	var out []*etree.Element
	for _, c := range e.ChildElements() {
		if tagMatches(c, steps[0]) {
			out = append(out, matchSteps(c, steps[1:])...)
		}
	}
	return out
}

// walkDescendants visits the descendants of e (not e itself) in pre-order
// until visit returns false.
func walkDescendants(e *etree.Element, visit func(*etree.Element) bool) bool {
	for _, c := range e.ChildElements() {
		if !visit(c) {
			return false
		}
		if !walkDescendants(c, visit) {
			return false
		}
	}
	return true
}

func tagMatches(e *etree.Element, step string) bool {
	return step == wildcard || e.Tag == step
}
