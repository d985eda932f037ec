package core

import (
	"context"
	"iter"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

const ctxCheckEvery = 4096

// track passes seq through unchanged, logging progress every `every` items
// and stopping with ctx.Err() once the context is done.
func track[T any](ctx context.Context, log *zap.Logger, label string, every int, seq iter.Seq2[T, error]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		n := 0
		for v, err := range seq {
			if err != nil {
				yield(v, err)
				return
			}
			n++
			if n%ctxCheckEvery == 0 {
				if cerr := ctx.Err(); cerr != nil {
					var zero T
					yield(zero, cerr)
					return
				}
			}
			if every > 0 && n%every == 0 {
				log.Info("progress", zap.String("stage", label), zap.String("records", humanize.Comma(int64(n))))
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}
