package model

// Relation is the simple MRREL projection: (RELA, CUI1, CUI2).
type Relation struct {
	Predicate string `json:"predicate"`
	Subject   string `json:"subject"`
	Object    string `json:"object"`
}

// SourcedRelation carries the provenance columns of an MRREL row.
type SourcedRelation struct {
	Predicate string `json:"predicate"`
	Subject   string `json:"subject"`
	Object    string `json:"object"`
	RUI       string `json:"rui"`
	SRUI      string `json:"srui"`
	SAB       string `json:"sab"`
	SL        string `json:"sl"`
}

// Triple is the gold output row. Field order matches the TSV columns.
type Triple struct {
	Subject   string `json:"subject"`
	Object    string `json:"object"`
	Predicate string `json:"predicate"`
	RUI       string `json:"rui"`
	Source    string `json:"source"`
}

func (r SourcedRelation) Triple() Triple {
	return Triple{
		Subject:   r.Subject,
		Object:    r.Object,
		Predicate: r.Predicate,
		RUI:       r.RUI,
		Source:    r.SL,
	}
}

// Prediction is one scored line of the silver relation-extraction output.
type Prediction struct {
	EntPair  [2]string `json:"entpair"`
	Relation string    `json:"relation"`
	Score    float64   `json:"score"`
}

// SilverTriple is the silver output row and its dedup key.
type SilverTriple struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
}

func (p Prediction) Triple() SilverTriple {
	return SilverTriple{
		Subject:   p.EntPair[0],
		Predicate: p.Relation,
		Object:    p.EntPair[1],
	}
}
