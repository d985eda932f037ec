package core

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/agenthands/kbslice/internal/allowlist"
	"github.com/agenthands/kbslice/internal/config"
	"github.com/agenthands/kbslice/internal/core/dedupe"
	"github.com/agenthands/kbslice/internal/core/extraction"
	"github.com/agenthands/kbslice/internal/core/filter"
	"github.com/agenthands/kbslice/internal/core/model"
	"github.com/agenthands/kbslice/internal/logging"
	"github.com/agenthands/kbslice/internal/report"
	"github.com/agenthands/kbslice/internal/sink"
	"github.com/agenthands/kbslice/internal/store"
)

const (
	HasName = "has_name"
	HasType = "has_type"
)

// Pipeline runs the gold and silver jobs described by a Config.
type Pipeline struct {
	Config *config.Config
	Logger *zap.Logger
}

func NewPipeline(cfg *config.Config, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		Config: cfg,
		Logger: logging.OrNop(logger),
	}
}

// LoadAllowList reads the configured allow-list CSV.
func (p *Pipeline) LoadAllowList() (*allowlist.Set, error) {
	start := time.Now()
	allow, err := allowlist.Load(p.Config.AllowList)
	if err != nil {
		return nil, err
	}
	p.Logger.Info("allow-list loaded",
		zap.String("path", p.Config.AllowList),
		zap.Int("identifiers", allow.Len()),
		zap.Duration("took", time.Since(start)),
	)
	return allow, nil
}

type GoldResult struct {
	Names     int
	Types     int
	Relations int
	Manifest  *report.Manifest
}

// RunGold writes the has_name, has_type and relation outputs for allow.
func (p *Pipeline) RunGold(ctx context.Context, allow *allowlist.Set) (*GoldResult, error) {
	cfg := p.Config.Gold
	every := p.Config.Log.ProgressEvery
	m := report.NewManifest("gold")
	m.Inputs["allowlist"] = p.Config.AllowList
	m.Inputs["names"] = cfg.NamesFile
	m.Inputs["types"] = cfg.TypesFile
	m.Inputs["relations"] = cfg.RelationsFile
	m.Outputs["names"] = cfg.NamesOutput
	m.Outputs["types"] = cfg.TypesOutput
	m.Outputs["relations"] = cfg.RelationsOutput
	m.Settings["english_only"] = cfg.EnglishOnly
	m.Settings["lower_case"] = cfg.LowerCase
	m.Settings["ro_only"] = cfg.ROOnly
	m.Settings["require_predicate"] = cfg.RequirePredicate
	m.Counts["allowlist"] = allow.Len()

	log := p.Logger.With(zap.String("run_id", m.RunID), zap.String("pipeline", "gold"))
	ids := allow.IDs()
	slices.Sort(ids)
	res := &GoldResult{Manifest: m}

	log.Info("reading concept names", zap.String("path", cfg.NamesFile))
	var nameStats extraction.Stats
	names, err := dedupe.Fold(track(ctx, log, "names", every, extraction.Names(cfg.NamesFile, extraction.NameOptions{
		EnglishOnly: cfg.EnglishOnly,
		LowerCase:   cfg.LowerCase,
		Stats:       &nameStats,
	})))
	if err != nil {
		return nil, fmt.Errorf("extract names: %w", err)
	}
	res.Names, err = writeIndex(cfg.NamesOutput, HasName, ids, names)
	if err != nil {
		return nil, err
	}
	m.Counts["names_read"] = nameStats.Records
	m.Counts["names_kept"] = nameStats.Yielded
	m.Counts["names_concepts"] = names.Len()
	m.Counts["names_written"] = res.Names
	log.Info("wrote has_name triples",
		zap.String("path", cfg.NamesOutput),
		zap.String("lines", humanize.Comma(int64(nameStats.Records))),
		zap.Int("concepts", names.Len()),
		zap.Int("rows", res.Names),
	)

	log.Info("reading concept types", zap.String("path", cfg.TypesFile))
	var typeStats extraction.Stats
	types, err := dedupe.Fold(track(ctx, log, "types", every, extraction.Types(cfg.TypesFile, extraction.TypeOptions{
		Stats: &typeStats,
	})))
	if err != nil {
		return nil, fmt.Errorf("extract types: %w", err)
	}
	res.Types, err = writeIndex(cfg.TypesOutput, HasType, ids, types)
	if err != nil {
		return nil, err
	}
	m.Counts["types_read"] = typeStats.Records
	m.Counts["types_concepts"] = types.Len()
	m.Counts["types_written"] = res.Types
	log.Info("wrote has_type triples",
		zap.String("path", cfg.TypesOutput),
		zap.String("lines", humanize.Comma(int64(typeStats.Records))),
		zap.Int("rows", res.Types),
	)

	log.Info("reading relations with sources", zap.String("path", cfg.RelationsFile))
	var relStats extraction.Stats
	triples, err := filter.Triples(track(ctx, log, "relations", every, extraction.SourcedRelations(cfg.RelationsFile, extraction.RelationOptions{
		ROOnly:           cfg.ROOnly,
		RequirePredicate: cfg.RequirePredicate,
		Stats:            &relStats,
	})), allow)
	if err != nil {
		return nil, fmt.Errorf("filter relations: %w", err)
	}
	res.Relations, err = writeTriples(cfg.RelationsOutput, triples)
	if err != nil {
		return nil, err
	}
	m.Counts["relations_read"] = relStats.Records
	m.Counts["relations_kept"] = relStats.Yielded
	m.Counts["relations_written"] = res.Relations
	log.Info("wrote gold triples",
		zap.String("path", cfg.RelationsOutput),
		zap.String("lines", humanize.Comma(int64(relStats.Records))),
		zap.Int("rows", res.Relations),
	)

	m.Finish()
	if cfg.Manifest != "" {
		if err := m.Write(cfg.Manifest); err != nil {
			return nil, err
		}
	}
	log.Info("gold pipeline finished", zap.Duration("took", m.Duration()))
	return res, nil
}

// writeIndex writes one (id, predicate, value) row per value of every
// allow-listed id present in ix.
func writeIndex(path, predicate string, ids []string, ix *dedupe.Index) (n int, err error) {
	w, err := sink.Create(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		err = errors.Join(err, w.Close())
	}()

	for _, id := range ids {
		for _, v := range ix.Values(id) {
			if err := w.Write(id, predicate, v); err != nil {
				return w.Rows(), fmt.Errorf("write %s: %w", path, err)
			}
		}
	}
	return w.Rows(), nil
}

func writeTriples(path string, set *filter.TripleSet) (n int, err error) {
	w, err := sink.Create(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		err = errors.Join(err, w.Close())
	}()

	for t := range set.All() {
		if err := w.Write(t.Subject, t.Object, t.Predicate, t.RUI, t.Source); err != nil {
			return w.Rows(), fmt.Errorf("write %s: %w", path, err)
		}
	}
	return w.Rows(), nil
}

type SilverResult struct {
	Stats     filter.SilverStats
	Malformed int
	Manifest  *report.Manifest
}

// RunSilver streams the prediction file and writes each new qualifying
// triple as soon as it is found.
func (p *Pipeline) RunSilver(ctx context.Context, allow filter.Membership) (res *SilverResult, err error) {
	cfg := p.Config.Silver
	m := report.NewManifest("silver")
	m.Inputs["allowlist"] = p.Config.AllowList
	m.Inputs["predictions"] = cfg.PredictionsFile
	m.Outputs["triples"] = cfg.Output
	m.Settings["threshold"] = cfg.Threshold
	m.Settings["skip_malformed"] = cfg.SkipMalformed
	m.Settings["dedup_backend"] = cfg.DedupBackend

	log := p.Logger.With(zap.String("run_id", m.RunID), zap.String("pipeline", "silver"))

	seen, err := store.Open(cfg.DedupBackend, cfg.DedupDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = errors.Join(err, seen.Close())
	}()

	w, err := sink.Create(cfg.Output)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = errors.Join(err, w.Close())
	}()

	var predStats extraction.PredictionStats
	preds := extraction.Predictions(cfg.PredictionsFile, extraction.PredictionOptions{
		SkipMalformed: cfg.SkipMalformed,
		OnSkip: func(line int, err error) {
			log.Warn("skipping malformed prediction", zap.Int("line", line), zap.Error(err))
		},
		Stats: &predStats,
	})

	log.Info("filtering silver predictions",
		zap.String("path", cfg.PredictionsFile),
		zap.Float64("threshold", cfg.Threshold),
		zap.String("dedup_backend", cfg.DedupBackend),
	)
	stats, err := filter.Silver(
		track(ctx, log, "predictions", p.Config.Log.ProgressEvery, preds),
		allow,
		filter.SilverOptions{Threshold: cfg.Threshold, Seen: seen},
		func(t model.SilverTriple) error {
			return w.Write(t.Subject, t.Predicate, t.Object)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("filter silver: %w", err)
	}

	m.Counts["lines"] = predStats.Lines
	m.Counts["malformed"] = predStats.Skipped
	m.Counts["matched"] = stats.Matched
	m.Counts["above_threshold"] = stats.AboveBar
	m.Counts["duplicates"] = stats.Duplicate
	m.Counts["written"] = stats.Emitted
	m.Finish()
	if cfg.Manifest != "" {
		if err := m.Write(cfg.Manifest); err != nil {
			return nil, err
		}
	}
	log.Info("silver pipeline finished",
		zap.String("lines", humanize.Comma(int64(predStats.Lines))),
		zap.Int("written", stats.Emitted),
		zap.Int("duplicates", stats.Duplicate),
		zap.Int("malformed", predStats.Skipped),
		zap.Duration("took", m.Duration()),
	)
	return &SilverResult{Stats: stats, Malformed: predStats.Skipped, Manifest: m}, nil
}
