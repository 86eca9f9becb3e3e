package catalog

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"bizmatch-workers/internal/common/errors"
	"bizmatch-workers/internal/common/validation"
)

//go:embed data/catalog.json
var embeddedCatalog []byte

//go:embed data/catalog.schema.json
var catalogSchema []byte

// Document is the on-disk and on-wire shape of a catalog.
type Document struct {
	Version    string                `json:"version"`
	Businesses []BusinessOpportunity `json:"businesses"`
	Categories map[string][]string   `json:"categories"`
}

// CategoryMap associates interest categories with business titles. A title may
// appear under several categories.
type CategoryMap map[Category][]string

// TitleSet is a set of business titles.
type TitleSet map[string]struct{}

func (s TitleSet) Has(title string) bool {
	_, ok := s[title]
	return ok
}

// Catalog is the validated, read-only list of business opportunities together
// with its category map. It is safe for concurrent use.
type Catalog struct {
	version    string
	revision   string
	entries    []BusinessOpportunity
	byTitle    map[string]int
	bySlug     map[string]int
	categories CategoryMap
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the built-in catalog. It panics if the embedded data fails
// validation, so a broken build never starts serving.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(embeddedCatalog)
		if err != nil {
			panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// LoadFile reads and validates a catalog document from path.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Load reads and validates a catalog document from r.
func Load(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse validates data against the catalog schema and then checks every record.
func Parse(data []byte) (*Catalog, error) {
	result, err := validation.ValidateJSON(catalogSchema, data)
	if err != nil {
		return nil, errors.NewCatalogInvalidError([]string{err.Error()})
	}
	if !result.Valid {
		return nil, errors.NewCatalogInvalidError(result.GetErrorMessages())
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewCatalogInvalidError([]string{fmt.Sprintf("decode: %v", err)})
	}
	return Build(doc)
}

// Build validates doc and returns the catalog. All problems are collected and
// reported together in a single CATALOG_INVALID error.
func Build(doc Document) (*Catalog, error) {
	var problems []string

	c := &Catalog{
		version:    doc.Version,
		revision:   revisionOf(doc),
		entries:    make([]BusinessOpportunity, 0, len(doc.Businesses)),
		byTitle:    make(map[string]int, len(doc.Businesses)),
		bySlug:     make(map[string]int, len(doc.Businesses)),
		categories: make(CategoryMap, len(doc.Categories)),
	}

	for i, b := range doc.Businesses {
		entry := b.clone()
		if entry.Title == "" {
			problems = append(problems, fmt.Sprintf("businesses[%d]: title is required", i))
			continue
		}

		cost, err := ParseCostRange(entry.StartupCost)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", entry.Title, err))
		}
		entry.Cost = cost

		level, err := ParseRiskLevel(string(entry.RiskLevel))
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", entry.Title, err))
		}
		entry.RiskLevel = level

		if _, dup := c.byTitle[entry.Title]; dup {
			problems = append(problems, fmt.Sprintf("%s: duplicate title", entry.Title))
			continue
		}
		slug := entry.Slug()
		if other, dup := c.bySlug[slug]; dup {
			problems = append(problems, fmt.Sprintf("%s: slug %q collides with %s", entry.Title, slug, c.entries[other].Title))
			continue
		}

		c.byTitle[entry.Title] = len(c.entries)
		c.bySlug[slug] = len(c.entries)
		c.entries = append(c.entries, entry)
	}

	names := make([]string, 0, len(doc.Categories))
	for name := range doc.Categories {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		category, err := ParseCategory(name)
		if err != nil {
			problems = append(problems, fmt.Sprintf("categories: %v", err))
			continue
		}
		titles := make([]string, 0, len(doc.Categories[name]))
		for _, title := range doc.Categories[name] {
			if _, ok := c.byTitle[title]; !ok {
				problems = append(problems, fmt.Sprintf("categories[%s]: unknown business %q", name, title))
				continue
			}
			titles = append(titles, title)
		}
		c.categories[category] = titles
	}

	if len(problems) > 0 {
		return nil, errors.NewCatalogInvalidError(problems)
	}
	return c, nil
}

func (c *Catalog) Version() string { return c.version }

// Revision identifies the catalog content: the declared version plus a
// SHA-256 prefix of the document. Edits change it even when the version
// string stays the same.
func (c *Catalog) Revision() string { return c.revision }

func revisionOf(doc Document) string {
	data, err := json.Marshal(doc)
	if err != nil {
		return doc.Version
	}
	sum := sha256.Sum256(data)
	return doc.Version + "@" + hex.EncodeToString(sum[:8])
}

func (c *Catalog) Len() int { return len(c.entries) }

// Entries returns a copy of the catalog records in catalog order.
func (c *Catalog) Entries() []BusinessOpportunity {
	out := make([]BusinessOpportunity, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.clone()
	}
	return out
}

func (c *Catalog) ByTitle(title string) (BusinessOpportunity, bool) {
	i, ok := c.byTitle[title]
	if !ok {
		return BusinessOpportunity{}, false
	}
	return c.entries[i].clone(), true
}

// Lookup finds a record by its detail-page slug.
func (c *Catalog) Lookup(slug string) (BusinessOpportunity, bool) {
	i, ok := c.bySlug[slug]
	if !ok {
		return BusinessOpportunity{}, false
	}
	return c.entries[i].clone(), true
}

// TitlesFor returns the union of titles reachable from any of the given categories.
func (c *Catalog) TitlesFor(categories ...Category) TitleSet {
	set := make(TitleSet)
	for _, category := range categories {
		for _, title := range c.categories[category] {
			set[title] = struct{}{}
		}
	}
	return set
}

// CategoryTitles returns the titles mapped to category, in map order.
func (c *Catalog) CategoryTitles(category Category) []string {
	return append([]string(nil), c.categories[category]...)
}
