// Package categories supplies the read-only category capability the ledger
// validates against. The catalog is loaded once at process start from a JSON
// file mapping category names to subcategory lists and is never mutated.
package categories

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Catalog maps category names to their subcategories.
type Catalog struct {
	byName map[string][]string
}

// New builds a catalog from an in-memory mapping. Used by tests and by
// callers that load the mapping themselves.
func New(m map[string][]string) *Catalog {
	byName := make(map[string][]string, len(m))
	for name, subs := range m {
		byName[name] = append([]string(nil), subs...)
	}
	return &Catalog{byName: byName}
}

// Load reads a catalog from a JSON file of the form
// {"food": ["grocery", "restaurant"], ...}.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read categories file: %w", err)
	}
	var m map[string][]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse categories file %s: %w", path, err)
	}
	return New(m), nil
}

// Lookup returns the subcategories of a category and whether it exists.
func (c *Catalog) Lookup(category string) ([]string, bool) {
	subs, ok := c.byName[category]
	if !ok {
		return nil, false
	}
	return append([]string(nil), subs...), true
}

// HasSubcategory reports whether sub belongs to category. The empty
// subcategory is always accepted.
func (c *Catalog) HasSubcategory(category, sub string) bool {
	if sub == "" {
		return true
	}
	subs, ok := c.byName[category]
	if !ok {
		return false
	}
	for _, s := range subs {
		if s == sub {
			return true
		}
	}
	return false
}

// Names returns all category names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.byName))
	for name := range c.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
