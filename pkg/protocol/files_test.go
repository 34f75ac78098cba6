package protocol

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/source-coda/pkg/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadConfiguredCatalog(t *testing.T) {
	path := writeFile(t, "catalog.json", `{
  "streams": [{
    "stream": {"name": "CodaRows", "json_schema": {}, "supported_sync_modes": ["full_refresh"]},
    "sync_mode": "full_refresh",
    "destination_sync_mode": "overwrite"
  }]
}`)

	catalog, err := ReadConfiguredCatalog(path)
	require.NoError(t, err)
	require.Len(t, catalog.Streams, 1)
	assert.Equal(t, "CodaRows", catalog.Streams[0].Stream.Name)
	assert.Equal(t, "overwrite", catalog.Streams[0].DestinationSyncMode)
}

func TestReadConfiguredCatalogErrors(t *testing.T) {
	_, err := ReadConfiguredCatalog(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))

	_, err = ReadConfiguredCatalog(writeFile(t, "bad.json", `{"streams": [`))
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestReadState(t *testing.T) {
	state, err := ReadState("")
	require.NoError(t, err)
	assert.Nil(t, state)

	state, err = ReadState(writeFile(t, "state.json", `{"cursor": 1}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"cursor": 1}`, string(state))

	_, err = ReadState(writeFile(t, "state.json", `not json`))
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}
