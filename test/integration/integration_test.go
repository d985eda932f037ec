//go:build integration

package integration

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/agenthands/kbslice/internal/config"
	"github.com/agenthands/kbslice/internal/core"
	"github.com/agenthands/kbslice/internal/driver"
	"github.com/agenthands/kbslice/internal/loader"
)

func writeLines(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func TestFullFlow(t *testing.T) {
	_ = godotenv.Load("../../.env")

	uri := os.Getenv("MEMGRAPH_URI")
	if uri == "" {
		t.Skip("Skipping integration test: MEMGRAPH_URI not set")
	}
	ctx := context.Background()
	log := zaptest.NewLogger(t)

	// unique CUIs so runs do not collide and cleanup is scoped
	prefix := "T" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	c1, c2, c3 := prefix+"1", prefix+"2", prefix+"3"

	dir := t.TempDir()
	cfg := config.Default()
	cfg.AllowList = writeLines(t, dir, "allow.csv", "idx,cui", "0,"+c1, "1,"+c2)
	cfg.Gold.NamesFile = writeLines(t, dir, "MRCONSO.RRF",
		c1+"|ENG|P|L1|PF|S1|Y|A1||||MSH|PN|D1|Aspirin|0|N||",
		c2+"|ENG|P|L2|PF|S2|Y|A2||||MSH|PN|D2|Headache|0|N||",
	)
	cfg.Gold.TypesFile = writeLines(t, dir, "MRSTY.RRF",
		c1+"|T121|A1.4.1|Pharmacologic Substance|AT1|256|",
		c2+"|T184|A2.2.2|Sign or Symptom|AT2|256|",
	)
	cfg.Gold.RelationsFile = writeLines(t, dir, "MRREL.RRF",
		c1+"|A1|AUI|RO|"+c2+"|A2|AUI|may_treat|R1|SR1|MED-RT|MED-RT|||N||",
		c1+"|A1|AUI|RO|"+c3+"|A3|AUI|may_treat|R2|SR2|MED-RT|MED-RT|||N||",
	)
	cfg.Gold.NamesOutput = filepath.Join(dir, "names.tsv")
	cfg.Gold.TypesOutput = filepath.Join(dir, "types.tsv")
	cfg.Gold.RelationsOutput = filepath.Join(dir, "gold.tsv")
	cfg.Silver.PredictionsFile = writeLines(t, dir, "predictions.jsonl",
		`{"entpair": ["`+c2+`", "`+c1+`"], "relation": "induces", "score": 0.9}`,
	)
	cfg.Silver.Output = filepath.Join(dir, "silver.tsv")

	p := core.NewPipeline(cfg, log)
	allow, err := p.LoadAllowList()
	require.NoError(t, err)
	gold, err := p.RunGold(ctx, allow)
	require.NoError(t, err)
	assert.Equal(t, 2, gold.Relations)
	silver, err := p.RunSilver(ctx, allow)
	require.NoError(t, err)
	assert.Equal(t, 1, silver.Stats.Emitted)

	d, err := driver.NewMemgraphDriver(ctx, uri, os.Getenv("MEMGRAPH_USER"), os.Getenv("MEMGRAPH_PASSWORD"), log)
	require.NoError(t, err)
	defer d.Close(ctx)
	defer func() {
		_, _ = d.ExecuteQuery(ctx, `MATCH (c:Concept) WHERE c.cui STARTS WITH $prefix DETACH DELETE c`,
			map[string]interface{}{"prefix": prefix})
	}()

	l := loader.NewLoader(d, 1, log)
	stats, err := l.LoadGold(ctx, loader.GoldFiles{
		Names:     cfg.Gold.NamesOutput,
		Types:     cfg.Gold.TypesOutput,
		Relations: cfg.Gold.RelationsOutput,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Names)
	_, err = l.LoadSilver(ctx, cfg.Silver.Output)
	require.NoError(t, err)

	res, err := d.ExecuteQuery(ctx, driver.GetConceptQuery, map[string]interface{}{"cui": c1})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	names, _ := res.Records[0].Get("names")
	assert.Equal(t, []interface{}{"aspirin"}, names)

	res, err = d.ExecuteQuery(ctx,
		`MATCH (:Concept {cui: $s})-[r]->(:Concept {cui: $o}) RETURN type(r) AS kind, r.predicate AS predicate`,
		map[string]interface{}{"s": c2, "o": c1})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	kind, _ := res.Records[0].Get("kind")
	assert.Equal(t, "PREDICTED", kind)
}
