package irs990

import (
	"github.com/beevik/etree"
)

// Scope selects the element a strategy's path is evaluated from.
type Scope int

const (
	// ScopeDocument evaluates from the document root.
	ScopeDocument Scope = iota
	// ScopeNode evaluates from the repeated structure being extracted.
	ScopeNode
)

// String returns the scope name used in the field tables.
func (s Scope) String() string {
	if s == ScopeNode {
		return "node"
	}
	return "document"
}

// Join says how a strategy turns its matches into one value.
type Join int

const (
	// JoinFirst takes the first match's text.
	JoinFirst Join = iota
	// JoinAll joins the text of every match with a single space.
	JoinAll
)

// String returns the join policy name used in the field tables.
func (j Join) String() string {
	if j == JoinAll {
		return "all"
	}
	return "first"
}

// Strategy is one candidate location for a canonical field.
type Strategy struct {
	Scope Scope
	Path  Path
	Join  Join
}

// Doc is a document-scoped strategy taking the first match.
func Doc(path string) Strategy {
	return Strategy{Scope: ScopeDocument, Path: MustParsePath(path), Join: JoinFirst}
}

// DocJoined is a document-scoped strategy joining every match.
func DocJoined(path string) Strategy {
	return Strategy{Scope: ScopeDocument, Path: MustParsePath(path), Join: JoinAll}
}

// Node is a node-scoped strategy taking the first match.
func Node(path string) Strategy {
	return Strategy{Scope: ScopeNode, Path: MustParsePath(path), Join: JoinFirst}
}

// NodeJoined is a node-scoped strategy joining every match.
func NodeJoined(path string) Strategy {
	return Strategy{Scope: ScopeNode, Path: MustParsePath(path), Join: JoinAll}
}

// Resolve evaluates the strategy against root or node depending on its scope.
func (s Strategy) Resolve(root, node *etree.Element) Text {
	from := root
	if s.Scope == ScopeNode {
		from = node
	}
	if s.Join == JoinAll {
		return ResolveAll(s.Path.FindAll(from))
	}
	return ResolveOne(s.Path.Find(from))
}

// MarshalYAML renders the strategy for the fields listing.
func (s Strategy) MarshalYAML() (any, error) {
	return map[string]string{
		"scope": s.Scope.String(),
		"path":  s.Path.String(),
		"join":  s.Join.String(),
	}, nil
}

// Candidates is a priority-ordered list of strategies for one field.
type Candidates []Strategy

// Resolve returns the first present value among the candidates, evaluated
// lazily in order.
func (c Candidates) Resolve(root, node *etree.Element) Text {
	for _, s := range c {
		if v := s.Resolve(root, node); v.Valid {
			return v
		}
	}
	return Text{}
}

// Coalesce returns the first present value, or absent.
func Coalesce(values ...Text) Text {
	for _, v := range values {
		if v.Valid {
			return v
		}
	}
	return Text{}
}
