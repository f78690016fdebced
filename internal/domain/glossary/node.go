package glossary

import (
	"fmt"
	"strings"
)

// Node represents a glossary, a category or a term of the business glossary
type Node struct {
	NodeURI   string    `json:"nodeUri"`
	ParentURI string    `json:"parentUri,omitempty"`
	Type      Type      `json:"__typename"`
	Label     string    `json:"label"`
	Path      string    `json:"path,omitempty"`
	Readme    string    `json:"readme,omitempty"`
	Owner     string    `json:"owner,omitempty"`
	Created   Timestamp `json:"created"`
}

// Type represents the level of a node in the glossary hierarchy
type Type string

const (
	TypeGlossary Type = "Glossary"
	TypeCategory Type = "Category"
	TypeTerm     Type = "Term"
)

// ParseType accepts both the GraphQL typename and the lowercase nodeType column
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "glossary":
		return TypeGlossary, nil
	case "category":
		return TypeCategory, nil
	case "term":
		return TypeTerm, nil
	}
	return "", fmt.Errorf("invalid glossary node type: %q", s)
}

// Column returns the value stored in the nodeType column
func (t Type) Column() string {
	return strings.ToLower(string(t))
}

// Validate checks the fields every node must carry
func (n *Node) Validate() error {
	if strings.TrimSpace(n.NodeURI) == "" {
		return fmt.Errorf("node URI is required")
	}
	if _, err := ParseType(string(n.Type)); err != nil {
		return err
	}
	if n.Type == TypeGlossary && n.ParentURI != "" {
		return fmt.Errorf("glossary %s cannot have a parent", n.NodeURI)
	}
	return nil
}

// IsRoot reports whether the node declares no parent
func (n *Node) IsRoot() bool {
	return n.ParentURI == ""
}
