// Package extraction turns UMLS RRF files and silver prediction dumps into
// lazy record sequences. Every sequence opens its file when iteration starts
// and reads it forward once; ranging again re-reads from the beginning.
package extraction

import (
	"fmt"
	"iter"
	"strings"

	"github.com/agenthands/kbslice/internal/core/model"
	"github.com/agenthands/kbslice/internal/core/rrf"
)

// Stats counts what a sequence read and produced. It is optional everywhere.
type Stats struct {
	Records int // non-blank lines read
	Yielded int
}

type NameOptions struct {
	EnglishOnly bool
	LowerCase   bool
	Stats       *Stats
}

// DefaultNameOptions keeps English names only and lower-cases them.
func DefaultNameOptions() NameOptions {
	return NameOptions{EnglishOnly: true, LowerCase: true}
}

type TypeOptions struct {
	Stats *Stats
}

type RelationOptions struct {
	// ROOnly keeps rows whose REL column is "RO".
	ROOnly bool
	// RequirePredicate drops rows with an empty RELA. Only SourcedRelations
	// honours it; Relations always requires a predicate.
	RequirePredicate bool
	Stats            *Stats
}

func DefaultRelationOptions() RelationOptions {
	return RelationOptions{ROOnly: true, RequirePredicate: true}
}

// project maps a record to a T; keep=false skips the record.
type project[T any] func(rrf.Record) (out T, keep bool, err error)

func extract[T any](path string, stats *Stats, fn project[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		for rec, err := range rrf.ScanFile(path) {
			if err != nil {
				yield(zero, err)
				return
			}
			if stats != nil {
				stats.Records++
			}
			out, keep, err := fn(rec)
			if err != nil {
				yield(zero, wrapPath(path, err))
				return
			}
			if !keep {
				continue
			}
			if stats != nil {
				stats.Yielded++
			}
			if !yield(out, nil) {
				return
			}
		}
	}
}

// Names reads MRCONSO and yields (CUI, name) pairs.
func Names(path string, opts NameOptions) iter.Seq2[model.ConceptName, error] {
	return extract(path, opts.Stats, func(rec rrf.Record) (model.ConceptName, bool, error) {
		cols, err := rec.Fields(rrf.ConsoCUI, rrf.ConsoLAT, rrf.ConsoSTR)
		if err != nil {
			return model.ConceptName{}, false, err
		}
		if opts.EnglishOnly && cols[1] != rrf.LanguageEnglish {
			return model.ConceptName{}, false, nil
		}
		name := strings.TrimSpace(cols[2])
		if name == "" {
			return model.ConceptName{}, false, nil
		}
		if opts.LowerCase {
			name = strings.ToLower(name)
		}
		return model.ConceptName{CUI: cols[0], Language: cols[1], Name: name}, true, nil
	})
}

// Types reads MRSTY and yields (CUI, semantic type) pairs.
func Types(path string, opts TypeOptions) iter.Seq2[model.ConceptType, error] {
	return extract(path, opts.Stats, func(rec rrf.Record) (model.ConceptType, bool, error) {
		cols, err := rec.Fields(rrf.StyCUI, rrf.StySTY)
		if err != nil {
			return model.ConceptType{}, false, err
		}
		sty := strings.TrimSpace(cols[1])
		if sty == "" {
			return model.ConceptType{}, false, nil
		}
		return model.ConceptType{CUI: cols[0], Type: sty}, true, nil
	})
}

// Relations reads MRREL and yields (RELA, CUI1, CUI2) for rows with a
// non-empty RELA.
func Relations(path string, opts RelationOptions) iter.Seq2[model.Relation, error] {
	return extract(path, opts.Stats, func(rec rrf.Record) (model.Relation, bool, error) {
		cols, err := rec.Fields(rrf.RelCUI1, rrf.RelREL, rrf.RelCUI2, rrf.RelRELA)
		if err != nil {
			return model.Relation{}, false, err
		}
		if opts.ROOnly && cols[1] != rrf.RelationOther {
			return model.Relation{}, false, nil
		}
		rela := strings.TrimSpace(cols[3])
		if rela == "" {
			return model.Relation{}, false, nil
		}
		return model.Relation{Predicate: rela, Subject: cols[0], Object: cols[2]}, true, nil
	})
}

// SourcedRelations reads MRREL keeping the provenance columns. SAB and SL
// are returned as read; checking that they agree is up to the caller.
func SourcedRelations(path string, opts RelationOptions) iter.Seq2[model.SourcedRelation, error] {
	return extract(path, opts.Stats, func(rec rrf.Record) (model.SourcedRelation, bool, error) {
		cols, err := rec.Fields(
			rrf.RelCUI1, rrf.RelREL, rrf.RelCUI2, rrf.RelRELA,
			rrf.RelRUI, rrf.RelSRUI, rrf.RelSAB, rrf.RelSL,
		)
		if err != nil {
			return model.SourcedRelation{}, false, err
		}
		if opts.ROOnly && cols[1] != rrf.RelationOther {
			return model.SourcedRelation{}, false, nil
		}
		for i := range cols {
			cols[i] = strings.TrimSpace(cols[i])
		}
		if opts.RequirePredicate && cols[3] == "" {
			return model.SourcedRelation{}, false, nil
		}
		return model.SourcedRelation{
			Predicate: cols[3],
			Subject:   cols[0],
			Object:    cols[2],
			RUI:       cols[4],
			SRUI:      cols[5],
			SAB:       cols[6],
			SL:        cols[7],
		}, true, nil
	})
}

func wrapPath(path string, err error) error {
	return fmt.Errorf("%s: %w", path, err)
}
