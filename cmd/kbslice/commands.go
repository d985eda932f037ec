package main

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agenthands/kbslice/internal/core"
	"github.com/agenthands/kbslice/internal/core/extraction"
	"github.com/agenthands/kbslice/internal/core/model"
	"github.com/agenthands/kbslice/internal/driver"
	"github.com/agenthands/kbslice/internal/loader"
	"github.com/agenthands/kbslice/internal/server"
	"github.com/agenthands/kbslice/internal/sink"
)

func (a *app) goldCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gold",
		Short: "Write has_name, has_type and gold relation triples for the allow-list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := core.NewPipeline(a.cfg, a.log)
			allow, err := p.LoadAllowList()
			if err != nil {
				return err
			}
			_, err = p.RunGold(cmd.Context(), allow)
			return err
		},
	}
}

func (a *app) silverCmd() *cobra.Command {
	var threshold float64
	cmd := &cobra.Command{
		Use:   "silver",
		Short: "Filter scored predictions down to allow-listed silver triples",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("threshold") {
				a.cfg.Silver.Threshold = threshold
				if err := a.cfg.Validate(); err != nil {
					return err
				}
			}
			p := core.NewPipeline(a.cfg, a.log)
			allow, err := p.LoadAllowList()
			if err != nil {
				return err
			}
			_, err = p.RunSilver(cmd.Context(), allow)
			return err
		},
	}
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Override silver.threshold")
	return cmd
}

func (a *app) extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Stream one RRF extractor to stdout as TSV",
	}

	var allLanguages, keepCase bool
	names := &cobra.Command{
		Use:   "names [MRCONSO.RRF]",
		Short: "CUI and name for each MRCONSO row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := extraction.NameOptions{EnglishOnly: !allLanguages, LowerCase: !keepCase}
			return writeSeq(cmd, extraction.Names(args[0], opts), func(n model.ConceptName) []string {
				return []string{n.CUI, n.Language, n.Name}
			})
		},
	}
	names.Flags().BoolVar(&allLanguages, "all-languages", false, "Keep non-English names")
	names.Flags().BoolVar(&keepCase, "keep-case", false, "Do not lower-case names")

	types := &cobra.Command{
		Use:   "types [MRSTY.RRF]",
		Short: "CUI and semantic type for each MRSTY row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeSeq(cmd, extraction.Types(args[0], extraction.TypeOptions{}), func(t model.ConceptType) []string {
				return []string{t.CUI, t.Type}
			})
		},
	}

	var anyRel, emptyPredicate bool
	relOpts := func() extraction.RelationOptions {
		return extraction.RelationOptions{ROOnly: !anyRel, RequirePredicate: !emptyPredicate}
	}
	rels := &cobra.Command{
		Use:   "rels [MRREL.RRF]",
		Short: "Subject, object and predicate for each MRREL row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeSeq(cmd, extraction.Relations(args[0], relOpts()), func(r model.Relation) []string {
				return []string{r.Subject, r.Object, r.Predicate}
			})
		},
	}
	sourced := &cobra.Command{
		Use:   "sourced-rels [MRREL.RRF]",
		Short: "MRREL rows with RUI, SRUI, SAB and SL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeSeq(cmd, extraction.SourcedRelations(args[0], relOpts()), func(r model.SourcedRelation) []string {
				return []string{r.Subject, r.Object, r.Predicate, r.RUI, r.SRUI, r.SAB, r.SL}
			})
		},
	}
	for _, c := range []*cobra.Command{rels, sourced} {
		c.Flags().BoolVar(&anyRel, "any-rel", false, "Keep every REL category, not only RO")
		c.Flags().BoolVar(&emptyPredicate, "allow-empty-predicate", false, "Keep rows with an empty RELA")
	}

	cmd.AddCommand(names, types, rels, sourced)
	return cmd
}

func writeSeq[T any](cmd *cobra.Command, seq iter.Seq2[T, error], row func(T) []string) error {
	w := sink.NewWriter(cmd.OutOrStdout())
	ctx := cmd.Context()
	for v, err := range seq {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.Write(row(v)...); err != nil {
			return err
		}
	}
	return w.Flush()
}

func (a *app) loadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Load the gold outputs, and silver when present, into Memgraph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			mg := a.cfg.Memgraph
			d, err := driver.NewMemgraphDriver(ctx, mg.URI, mg.User, mg.Password, a.log)
			if err != nil {
				return err
			}
			defer d.Close(context.Background())

			l := loader.NewLoader(d, mg.BatchSize, a.log)
			gold := a.cfg.Gold
			stats, err := l.LoadGold(ctx, loader.GoldFiles{
				Names:     gold.NamesOutput,
				Types:     gold.TypesOutput,
				Relations: gold.RelationsOutput,
			})
			if err != nil {
				return err
			}
			if loader.Exists(a.cfg.Silver.Output) {
				silver, err := l.LoadSilver(ctx, a.cfg.Silver.Output)
				if err != nil {
					return err
				}
				stats.Silver = silver.Silver
				stats.Batches += silver.Batches
			} else {
				a.log.Info("no silver output, skipping", zap.String("path", a.cfg.Silver.Output))
			}

			a.log.Info("load finished",
				zap.Int("names", stats.Names),
				zap.Int("types", stats.Types),
				zap.Int("relations", stats.Relations),
				zap.Int("silver", stats.Silver),
				zap.Int("batches", stats.Batches),
			)
			return nil
		},
	}
}

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve per-concept lookups over the pipeline outputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			files := server.CatalogFiles{}
			for dst, path := range map[*string]string{
				&files.Names:     a.cfg.Gold.NamesOutput,
				&files.Types:     a.cfg.Gold.TypesOutput,
				&files.Relations: a.cfg.Gold.RelationsOutput,
				&files.Silver:    a.cfg.Silver.Output,
			} {
				if loader.Exists(path) {
					*dst = path
				} else {
					a.log.Warn("output missing, serving without it", zap.String("path", path))
				}
			}

			start := time.Now()
			catalog, err := server.LoadCatalog(files)
			if err != nil {
				return err
			}
			a.log.Info("catalog loaded", zap.Any("stats", catalog.Stats()), zap.Duration("took", time.Since(start)))

			srv := &http.Server{
				Addr:    ":" + a.cfg.Server.Port,
				Handler: server.NewServer(catalog, a.log).SetupRouter(),
			}
			errc := make(chan error, 1)
			go func() {
				a.log.Info("starting server", zap.String("addr", srv.Addr))
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				return err
			case <-cmd.Context().Done():
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
}
