// Package rrf reads UMLS Rich Release Format files: one record per line,
// columns separated by '|', every line terminated by a trailing '|'.
//
// Only the columns the extractors need are named here. Column layouts are
// documented at https://www.ncbi.nlm.nih.gov/books/NBK9685/.
package rrf

// MRCONSO.RRF, concept names and sources.
//
//	C0000005|ENG|P|L0000005|PF|S0007492|Y|A26634265||M0019694|D012711|MSH|PEP|D012711|(131)I-Macroaggregated Albumin|0|N|256|
const (
	ConsoCUI = 0
	ConsoLAT = 1
	// STR is addressed from the end; the trailing '|' yields an empty last column.
	ConsoSTR = -5
)

// MRSTY.RRF, semantic types.
//
//	C0000005|T116|A1.4.1.2.1.7|Amino Acid, Peptide, or Protein|AT17648347|256|
const (
	StyCUI = 0
	StySTY = 3
)

// MRREL.RRF, related concepts.
//
//	C0012792|A24166664|SCUI|RO|C0026827|A0088733|SCUI|induced_by|R176819430||MED-RT|MED-RT||N|N||
const (
	RelCUI1 = 0
	RelREL  = 3
	RelCUI2 = 4
	RelRELA = 7
	RelRUI  = 8
	RelSRUI = 9
	RelSAB  = 10
	RelSL   = 11
)

const (
	// LanguageEnglish is the MRCONSO LAT value kept in english-only mode.
	LanguageEnglish = "ENG"
	// RelationOther is the MRREL REL value for "has relationship other than
	// synonymous, narrower, or broader".
	RelationOther = "RO"
)
