// Package loader pushes the pipeline outputs into a Bolt graph database.
package loader

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/agenthands/kbslice/internal/driver"
	"github.com/agenthands/kbslice/internal/logging"
	"github.com/agenthands/kbslice/internal/sink"
)

const DefaultBatchSize = 1000

type Loader struct {
	Driver    driver.GraphDriver
	BatchSize int
	Logger    *zap.Logger
}

func NewLoader(d driver.GraphDriver, batchSize int, logger *zap.Logger) *Loader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Loader{Driver: d, BatchSize: batchSize, Logger: logging.OrNop(logger)}
}

// GoldFiles names the three gold outputs. Empty paths are skipped.
type GoldFiles struct {
	Names     string
	Types     string
	Relations string
}

type Stats struct {
	Names     int
	Types     int
	Relations int
	Silver    int
	Batches   int
}

// LoadGold merges names and types onto Concept nodes and gold relations as
// RELATED edges.
func (l *Loader) LoadGold(ctx context.Context, files GoldFiles) (Stats, error) {
	var stats Stats
	if err := l.Driver.BuildIndices(ctx); err != nil {
		return stats, fmt.Errorf("build indices: %w", err)
	}

	var err error
	if files.Names != "" {
		stats.Names, err = l.loadFile(ctx, files.Names, 3, driver.MergeConceptNamesQuery, &stats, propertyRow)
		if err != nil {
			return stats, err
		}
	}
	if files.Types != "" {
		stats.Types, err = l.loadFile(ctx, files.Types, 3, driver.MergeConceptTypesQuery, &stats, propertyRow)
		if err != nil {
			return stats, err
		}
	}
	if files.Relations != "" {
		stats.Relations, err = l.loadFile(ctx, files.Relations, 5, driver.MergeGoldRelationsQuery, &stats, goldRow)
		if err != nil {
			return stats, err
		}
	}
	l.Logger.Info("gold outputs loaded",
		zap.Int("names", stats.Names),
		zap.Int("types", stats.Types),
		zap.Int("relations", stats.Relations),
		zap.Int("batches", stats.Batches),
	)
	return stats, nil
}

// LoadSilver merges silver triples as PREDICTED edges.
func (l *Loader) LoadSilver(ctx context.Context, path string) (Stats, error) {
	var stats Stats
	if err := l.Driver.BuildIndices(ctx); err != nil {
		return stats, fmt.Errorf("build indices: %w", err)
	}
	n, err := l.loadFile(ctx, path, 3, driver.MergeSilverRelationsQuery, &stats, silverRow)
	stats.Silver = n
	if err != nil {
		return stats, err
	}
	l.Logger.Info("silver output loaded", zap.Int("triples", n), zap.Int("batches", stats.Batches))
	return stats, nil
}

// Exists reports whether an optional output file is present.
func Exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

type rowFunc func(fields []string) map[string]interface{}

// <cui> has_name|has_type <value>
func propertyRow(f []string) map[string]interface{} {
	return map[string]interface{}{"cui": f[0], "value": f[2]}
}

// <subject> <object> <predicate> <rui> <source>
func goldRow(f []string) map[string]interface{} {
	return map[string]interface{}{
		"subject":   f[0],
		"object":    f[1],
		"predicate": f[2],
		"rui":       f[3],
		"source":    f[4],
	}
}

// <subject> <predicate> <object>
func silverRow(f []string) map[string]interface{} {
	return map[string]interface{}{"subject": f[0], "predicate": f[1], "object": f[2]}
}

func (l *Loader) loadFile(ctx context.Context, path string, width int, query string, stats *Stats, toRow rowFunc) (int, error) {
	n := 0
	batch := make([]interface{}, 0, l.BatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := l.Driver.ExecuteQuery(ctx, query, map[string]interface{}{"rows": batch}); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		stats.Batches++
		batch = make([]interface{}, 0, l.BatchSize)
		return nil
	}

	err := sink.Read(path, width, func(fields []string) error {
		batch = append(batch, toRow(fields))
		n++
		if len(batch) >= l.BatchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return n, err
	}
	if err := flush(); err != nil {
		return n, err
	}
	l.Logger.Debug("file loaded", zap.String("path", path), zap.Int("rows", n))
	return n, nil
}
