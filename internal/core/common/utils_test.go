package common

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestDecodeJSON(t *testing.T) {
	got, err := DecodeJSON[sample]([]byte("  {\"name\": \"a\", \"count\": 2, \"extra\": true}\n"))
	require.NoError(t, err)
	assert.Equal(t, sample{Name: "a", Count: 2}, got)
}

func TestDecodeJSON_Errors(t *testing.T) {
	_, err := DecodeJSON[sample]([]byte("   "))
	assert.Error(t, err)

	_, err = DecodeJSON[sample]([]byte(`["a"]`))
	assert.Error(t, err)

	_, err = DecodeJSON[sample]([]byte(`{"name": `))
	assert.Error(t, err)
}

func TestOpenInput_PlainAndGzip(t *testing.T) {
	dir := t.TempDir()
	payload := []byte("{\"a\":1}\n{\"a\":2}\n")

	plain := filepath.Join(dir, "plain.jsonl")
	require.NoError(t, os.WriteFile(plain, payload, 0o644))

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	zipped := filepath.Join(dir, "zipped.jsonl.gz")
	require.NoError(t, os.WriteFile(zipped, buf.Bytes(), 0o644))

	for _, path := range []string{plain, zipped} {
		rc, err := OpenInput(path)
		require.NoError(t, err)
		got, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		assert.Equal(t, payload, got, path)
	}
}

func TestOpenInput_EmptyAndMissing(t *testing.T) {
	empty := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	rc, err := OpenInput(empty)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Empty(t, got)
	rc.Close()

	_, err = OpenInput(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
