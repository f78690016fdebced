package graphql

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrUnknownDocument is returned for a name that was never registered
type ErrUnknownDocument struct {
	Name string
}

func (e *ErrUnknownDocument) Error() string {
	return fmt.Sprintf("collection %s not registered", e.Name)
}

// Catalog holds the list documents a client may open controllers on
type Catalog struct {
	docs map[string]Document
	mu   sync.RWMutex
}

// NewCatalog returns an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{docs: make(map[string]Document)}
}

// DefaultCatalog returns a catalog preloaded with the console's list queries
func DefaultCatalog() *Catalog {
	c := NewCatalog()
	for _, d := range consoleDocuments {
		c.Register(d)
	}
	return c
}

// Register adds or replaces a document
func (c *Catalog) Register(doc Document) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.docs[doc.Name] = doc
	log.Debug().
		Str("collection", doc.Name).
		Str("field", doc.Field).
		Msg("registered collection document")
}

// Get returns the document registered under name
func (c *Catalog) Get(name string) (Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	doc, ok := c.docs[name]
	if !ok {
		return Document{}, &ErrUnknownDocument{Name: name}
	}
	return doc, nil
}

// List returns every document sorted by name
func (c *Catalog) List() []Document {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Document, 0, len(c.docs))
	for _, d := range c.docs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
