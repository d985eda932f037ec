package extraction

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/agenthands/kbslice/internal/core/common"
	"github.com/agenthands/kbslice/internal/core/model"
)

const maxPredictionLine = 16 << 20

// ErrMalformedPrediction marks a silver line that is not a complete
// prediction record.
var ErrMalformedPrediction = errors.New("malformed prediction")

type PredictionOptions struct {
	// SkipMalformed drops undecodable lines instead of failing the scan.
	SkipMalformed bool
	// OnSkip is called for every dropped line when SkipMalformed is set.
	OnSkip func(line int, err error)
	Stats  *PredictionStats
}

type PredictionStats struct {
	Lines   int
	Skipped int
	Yielded int
}

// score accepts a JSON number or a string holding one.
type score float64

func (s *score) UnmarshalJSON(b []byte) error {
	raw := string(bytes.TrimSpace(b))
	if raw == "null" {
		return fmt.Errorf("score is null")
	}
	if strings.HasPrefix(raw, `"`) {
		var text string
		if err := json.Unmarshal(b, &text); err != nil {
			return err
		}
		raw = strings.TrimSpace(text)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("score %q: %w", raw, err)
	}
	*s = score(v)
	return nil
}

type predictionLine struct {
	EntPair  []string `json:"entpair"`
	Relation *string  `json:"relation"`
	Score    *score   `json:"score"`
}

// ParsePrediction decodes one JSONL line. entpair, relation and score are all
// required; entpair must hold exactly two identifiers.
func ParsePrediction(line []byte) (model.Prediction, error) {
	raw, err := common.DecodeJSON[predictionLine](line)
	if err != nil {
		return model.Prediction{}, fmt.Errorf("%w: %v", ErrMalformedPrediction, err)
	}
	switch {
	case raw.EntPair == nil:
		return model.Prediction{}, fmt.Errorf("%w: missing entpair", ErrMalformedPrediction)
	case len(raw.EntPair) != 2:
		return model.Prediction{}, fmt.Errorf("%w: entpair has %d members", ErrMalformedPrediction, len(raw.EntPair))
	case raw.Relation == nil:
		return model.Prediction{}, fmt.Errorf("%w: missing relation", ErrMalformedPrediction)
	case raw.Score == nil:
		return model.Prediction{}, fmt.Errorf("%w: missing score", ErrMalformedPrediction)
	}
	return model.Prediction{
		EntPair:  [2]string{raw.EntPair[0], raw.EntPair[1]},
		Relation: *raw.Relation,
		Score:    float64(*raw.Score),
	}, nil
}

// Predictions streams a gzip (or plain) JSONL file of scored predictions.
func Predictions(path string, opts PredictionOptions) iter.Seq2[model.Prediction, error] {
	return func(yield func(model.Prediction, error) bool) {
		rc, err := common.OpenInput(path)
		if err != nil {
			yield(model.Prediction{}, err)
			return
		}
		defer rc.Close()

		sc := bufio.NewScanner(rc)
		sc.Buffer(make([]byte, 0, 64*1024), maxPredictionLine)
		n := 0
		for sc.Scan() {
			n++
			line := sc.Bytes()
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
			if opts.Stats != nil {
				opts.Stats.Lines++
			}
			p, err := ParsePrediction(line)
			if err != nil {
				if opts.SkipMalformed {
					if opts.Stats != nil {
						opts.Stats.Skipped++
					}
					if opts.OnSkip != nil {
						opts.OnSkip(n, err)
					}
					continue
				}
				yield(model.Prediction{}, fmt.Errorf("%s: line %d: %w", path, n, err))
				return
			}
			if opts.Stats != nil {
				opts.Stats.Yielded++
			}
			if !yield(p, nil) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			yield(model.Prediction{}, fmt.Errorf("%s: read line %d: %w", path, n+1, err))
		}
	}
}
