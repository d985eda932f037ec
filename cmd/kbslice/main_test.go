package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingDefaultFallsBack(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_PATH", "")

	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Silver.Threshold)
}

func TestLoadConfig_MissingExplicitFails(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.toml")
	require.NoError(t, os.WriteFile(path, []byte("[silver]\nthreshold = 0.8\n"), 0o644))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 0.8, cfg.Silver.Threshold)
}

func TestExtractTypes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "MRSTY.RRF")
	require.NoError(t, os.WriteFile(path, []byte("C1|T047|B2.2.1.2.1|Disease or Syndrome|AT1|256|\n"), 0o644))

	a := &app{}
	cmd := a.extractCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"types", path})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Equal(t, "C1\tDisease or Syndrome\n", out.String())
}

func TestVersion(t *testing.T) {
	root := &cobra.Command{Use: "kbslice"}
	a := &app{}
	root.PersistentPreRunE = a.setup
	root.AddCommand(&cobra.Command{
		Use: "version",
		Run: func(cmd *cobra.Command, args []string) {},
	})
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.Nil(t, a.cfg)
}
