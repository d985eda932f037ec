package server

import (
	"fmt"

	"github.com/agenthands/kbslice/internal/core"
	"github.com/agenthands/kbslice/internal/core/dedupe"
	"github.com/agenthands/kbslice/internal/core/model"
	"github.com/agenthands/kbslice/internal/sink"
)

// Catalog is an in-memory view of the pipeline outputs, keyed by CUI.
type Catalog struct {
	names     *dedupe.Index
	types     *dedupe.Index
	relations map[string][]model.Triple
	silver    map[string][]model.SilverTriple
	nRel      int
	nSilver   int
}

// CatalogFiles names the outputs to load. Empty paths are skipped.
type CatalogFiles struct {
	Names     string
	Types     string
	Relations string
	Silver    string
}

func NewCatalog() *Catalog {
	return &Catalog{
		names:     dedupe.NewIndex(),
		types:     dedupe.NewIndex(),
		relations: make(map[string][]model.Triple),
		silver:    make(map[string][]model.SilverTriple),
	}
}

func LoadCatalog(files CatalogFiles) (*Catalog, error) {
	c := NewCatalog()
	if files.Names != "" {
		if err := sink.Read(files.Names, 3, func(f []string) error {
			if err := checkPredicate(files.Names, f, core.HasName); err != nil {
				return err
			}
			c.names.Add(f[0], f[2])
			return nil
		}); err != nil {
			return nil, err
		}
	}
	if files.Types != "" {
		if err := sink.Read(files.Types, 3, func(f []string) error {
			if err := checkPredicate(files.Types, f, core.HasType); err != nil {
				return err
			}
			c.types.Add(f[0], f[2])
			return nil
		}); err != nil {
			return nil, err
		}
	}
	if files.Relations != "" {
		if err := sink.Read(files.Relations, 5, func(f []string) error {
			c.AddRelation(model.Triple{Subject: f[0], Object: f[1], Predicate: f[2], RUI: f[3], Source: f[4]})
			return nil
		}); err != nil {
			return nil, err
		}
	}
	if files.Silver != "" {
		if err := sink.Read(files.Silver, 3, func(f []string) error {
			c.AddSilver(model.SilverTriple{Subject: f[0], Predicate: f[1], Object: f[2]})
			return nil
		}); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) AddName(cui, name string) { c.names.Add(cui, name) }

func (c *Catalog) AddType(cui, typ string) { c.types.Add(cui, typ) }

// AddRelation indexes t under both endpoints.
func (c *Catalog) AddRelation(t model.Triple) {
	c.relations[t.Subject] = append(c.relations[t.Subject], t)
	if t.Object != t.Subject {
		c.relations[t.Object] = append(c.relations[t.Object], t)
	}
	c.nRel++
}

func (c *Catalog) AddSilver(t model.SilverTriple) {
	c.silver[t.Subject] = append(c.silver[t.Subject], t)
	if t.Object != t.Subject {
		c.silver[t.Object] = append(c.silver[t.Object], t)
	}
	c.nSilver++
}

// Concept returns everything known about cui, or false.
func (c *Catalog) Concept(cui string) (model.Concept, bool) {
	_, hasRel := c.relations[cui]
	_, hasSilver := c.silver[cui]
	if !c.names.Has(cui) && !c.types.Has(cui) && !hasRel && !hasSilver {
		return model.Concept{}, false
	}
	return model.Concept{
		CUI:       cui,
		Names:     c.names.Values(cui),
		Types:     c.types.Values(cui),
		Relations: c.relations[cui],
		Silver:    c.silver[cui],
	}, true
}

type CatalogStats struct {
	NamedConcepts int `json:"named_concepts"`
	Names         int `json:"names"`
	TypedConcepts int `json:"typed_concepts"`
	Types         int `json:"types"`
	Relations     int `json:"relations"`
	Silver        int `json:"silver"`
}

func (c *Catalog) Stats() CatalogStats {
	return CatalogStats{
		NamedConcepts: c.names.Len(),
		Names:         c.names.Pairs(),
		TypedConcepts: c.types.Len(),
		Types:         c.types.Pairs(),
		Relations:     c.nRel,
		Silver:        c.nSilver,
	}
}

func checkPredicate(path string, fields []string, want string) error {
	if fields[1] != want {
		return fmt.Errorf("%s: row for %s has predicate %q, want %q", path, fields[0], fields[1], want)
	}
	return nil
}
