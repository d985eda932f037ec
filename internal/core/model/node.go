package model

// ConceptName is one MRCONSO row projected to the fields the gold pipeline
// keeps. Language is the LAT column as read from the file.
type ConceptName struct {
	CUI      string `json:"cui"`
	Language string `json:"language"`
	Name     string `json:"name"`
}

func (n ConceptName) Pair() (string, string) { return n.CUI, n.Name }

// ConceptType is one MRSTY row: a concept and its semantic type label.
type ConceptType struct {
	CUI  string `json:"cui"`
	Type string `json:"type"`
}

func (t ConceptType) Pair() (string, string) { return t.CUI, t.Type }

// Concept is the aggregated view of a single CUI served by the lookup API.
type Concept struct {
	CUI       string         `json:"cui"`
	Names     []string       `json:"names"`
	Types     []string       `json:"types"`
	Relations []Triple       `json:"relations,omitempty"`
	Silver    []SilverTriple `json:"silver,omitempty"`
}
