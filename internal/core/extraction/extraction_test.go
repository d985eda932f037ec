package extraction

import (
	"bytes"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/kbslice/internal/core/model"
	"github.com/agenthands/kbslice/internal/core/rrf"
)

func writeFile(t *testing.T, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

// conso builds an MRCONSO line with the given CUI, LAT and STR.
func conso(cui, lat, str string) string {
	return cui + "|" + lat + "|P|L0000005|PF|S0007492|Y|A26634265||M0019694|D012711|MSH|PEP|D012711|" + str + "|0|N|256|"
}

func rel(cui1, relCat, cui2, rela, rui, sab, sl string) string {
	return cui1 + "|A1|SCUI|" + relCat + "|" + cui2 + "|A2|SCUI|" + rela + "|" + rui + "||" + sab + "|" + sl + "||N|N||"
}

func collect[T any](t *testing.T, seq iter.Seq2[T, error]) []T {
	t.Helper()
	var out []T
	for v, err := range seq {
		require.NoError(t, err)
		out = append(out, v)
	}
	return out
}

func TestNames_EnglishOnlyAndLowerCase(t *testing.T) {
	path := writeFile(t, "MRCONSO.RRF",
		conso("C1", "ENG", "Foo Bar"),
		"",
		conso("C1", "FRE", "Bar"),
		conso("C2", "ENG", "   "),
	)

	got := collect(t, Names(path, DefaultNameOptions()))
	assert.Equal(t, []model.ConceptName{{CUI: "C1", Language: "ENG", Name: "foo bar"}}, got)

	got = collect(t, Names(path, NameOptions{EnglishOnly: false, LowerCase: false}))
	require.Len(t, got, 2)
	assert.Equal(t, "Foo Bar", got[0].Name)
	assert.Equal(t, "Bar", got[1].Name)
	assert.Equal(t, "FRE", got[1].Language)
}

func TestNames_Stats(t *testing.T) {
	path := writeFile(t, "MRCONSO.RRF", conso("C1", "ENG", "a"), conso("C2", "GER", "b"))
	stats := &Stats{}
	opts := DefaultNameOptions()
	opts.Stats = stats

	collect(t, Names(path, opts))
	assert.Equal(t, Stats{Records: 2, Yielded: 1}, *stats)
}

func TestNames_ShortLineIsFatal(t *testing.T) {
	path := writeFile(t, "MRCONSO.RRF", conso("C1", "ENG", "ok"), "C2|ENG")

	var names []model.ConceptName
	var lastErr error
	for n, err := range Names(path, DefaultNameOptions()) {
		if err != nil {
			lastErr = err
			break
		}
		names = append(names, n)
	}
	assert.Len(t, names, 1)
	require.Error(t, lastErr)
	assert.ErrorIs(t, lastErr, rrf.ErrMissingColumn)
	assert.Contains(t, lastErr.Error(), path)
}

func TestTypes(t *testing.T) {
	path := writeFile(t, "MRSTY.RRF",
		"C0000005|T116|A1.4.1.2.1.7|Amino Acid, Peptide, or Protein|AT17648347|256|",
		"C0000005|T121|A1.4.1.1.1|  Pharmacologic Substance |AT17575038|256|",
		"C0000006|T999|A1||AT0|256|",
	)
	got := collect(t, Types(path, TypeOptions{}))
	assert.Equal(t, []model.ConceptType{
		{CUI: "C0000005", Type: "Amino Acid, Peptide, or Protein"},
		{CUI: "C0000005", Type: "Pharmacologic Substance"},
	}, got)
}

func TestRelations_ROOnly(t *testing.T) {
	path := writeFile(t, "MRREL.RRF",
		"C0012792|A24166664|SCUI|RO|C0026827|A0088733|SCUI|induced_by|R176819430||MED-RT|MED-RT||N|N||",
		rel("C1", "RB", "C2", "isa", "R2", "MSH", "MSH"),
		rel("C1", "RO", "C3", "  ", "R3", "MSH", "MSH"),
	)

	got := collect(t, Relations(path, RelationOptions{ROOnly: true}))
	assert.Equal(t, []model.Relation{{Predicate: "induced_by", Subject: "C0012792", Object: "C0026827"}}, got)

	got = collect(t, Relations(path, RelationOptions{ROOnly: false}))
	assert.Len(t, got, 2)
}

func TestSourcedRelations(t *testing.T) {
	path := writeFile(t, "MRREL.RRF",
		"C0012792|A24166664|SCUI|RO|C0026827|A0088733|SCUI|induced_by|R176819430||MED-RT|MED-RT||N|N||",
		rel("C1", "RO", "C3", "", "R3", "MSH", "MSH"),
		rel("C1", "SY", "C4", "", "R4", "MSH", "MSH"),
	)

	got := collect(t, SourcedRelations(path, DefaultRelationOptions()))
	assert.Equal(t, []model.SourcedRelation{{
		Predicate: "induced_by",
		Subject:   "C0012792",
		Object:    "C0026827",
		RUI:       "R176819430",
		SRUI:      "",
		SAB:       "MED-RT",
		SL:        "MED-RT",
	}}, got)

	got = collect(t, SourcedRelations(path, RelationOptions{ROOnly: true, RequirePredicate: false}))
	assert.Len(t, got, 2)

	got = collect(t, SourcedRelations(path, RelationOptions{}))
	assert.Len(t, got, 3)
}

func TestSourcedRelations_MissingFile(t *testing.T) {
	var errs []error
	for _, err := range SourcedRelations(filepath.Join(t.TempDir(), "MRREL.RRF"), DefaultRelationOptions()) {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], os.ErrNotExist)
}

func gzipFile(t *testing.T, lines ...string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(strings.Join(lines, "\n") + "\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	path := filepath.Join(t.TempDir(), "predictions.jsonl.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestParsePrediction(t *testing.T) {
	p, err := ParsePrediction([]byte(`{"entpair": ["C1", "C2"], "relation": "treats", "score": "0.75"}`))
	require.NoError(t, err)
	assert.Equal(t, model.Prediction{EntPair: [2]string{"C1", "C2"}, Relation: "treats", Score: 0.75}, p)

	p, err = ParsePrediction([]byte(`{"entpair": ["C1", "C2"], "relation": "treats", "score": 0.5, "extra": 1}`))
	require.NoError(t, err)
	assert.Equal(t, 0.5, p.Score)
}

func TestParsePrediction_Malformed(t *testing.T) {
	cases := map[string]string{
		"not json":      `{"entpair": [`,
		"missing pair":  `{"relation": "treats", "score": 0.9}`,
		"short pair":    `{"entpair": ["C1"], "relation": "treats", "score": 0.9}`,
		"missing rel":   `{"entpair": ["C1", "C2"], "score": 0.9}`,
		"missing score": `{"entpair": ["C1", "C2"], "relation": "treats"}`,
		"null score":    `{"entpair": ["C1", "C2"], "relation": "treats", "score": null}`,
		"text score":    `{"entpair": ["C1", "C2"], "relation": "treats", "score": "high"}`,
	}
	for name, line := range cases {
		_, err := ParsePrediction([]byte(line))
		assert.ErrorIs(t, err, ErrMalformedPrediction, name)
	}
}

func TestPredictions_AbortsOnMalformed(t *testing.T) {
	path := gzipFile(t,
		`{"entpair": ["C1", "C2"], "relation": "treats", "score": 0.9}`,
		`garbage`,
		`{"entpair": ["C1", "C3"], "relation": "treats", "score": 0.9}`,
	)

	var got []model.Prediction
	var lastErr error
	for p, err := range Predictions(path, PredictionOptions{}) {
		if err != nil {
			lastErr = err
			break
		}
		got = append(got, p)
	}
	assert.Len(t, got, 1)
	require.Error(t, lastErr)
	assert.ErrorIs(t, lastErr, ErrMalformedPrediction)
	assert.Contains(t, lastErr.Error(), "line 2")
}

func TestPredictions_SkipMalformed(t *testing.T) {
	path := gzipFile(t,
		`{"entpair": ["C1", "C2"], "relation": "treats", "score": 0.9}`,
		``,
		`garbage`,
		`{"entpair": ["C1", "C3"], "relation": "causes", "score": "0.1"}`,
	)

	var skipped []int
	stats := &PredictionStats{}
	got := collect(t, Predictions(path, PredictionOptions{
		SkipMalformed: true,
		OnSkip:        func(line int, err error) { skipped = append(skipped, line) },
		Stats:         stats,
	}))
	assert.Len(t, got, 2)
	assert.Equal(t, []int{3}, skipped)
	assert.Equal(t, PredictionStats{Lines: 3, Skipped: 1, Yielded: 2}, *stats)
}
