package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Host     string `json:"host"`
	ApiKey   string `json:"api_key"`
	Category int64  `json:"category"`
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "elabctl.json5")

	_, err := ReadConfig[testConfig](path)
	require.ErrorIs(t, err, os.ErrNotExist)

	err = os.WriteFile(path, []byte(`{
		// shared settings
		host: "https://elab.example.org/api/v2",
		category: 1,
	}`), 0600)
	require.NoError(t, err)

	cfg, err := ReadConfig[testConfig](path)
	require.NoError(t, err)
	require.Equal(t, testConfig{Host: "https://elab.example.org/api/v2", Category: 1}, cfg)

	err = os.WriteFile(filepath.Join(dir, "elabctl.local.json5"), []byte(`{api_key: "secret", category: 4}`), 0600)
	require.NoError(t, err)

	cfg, err = ReadConfig[testConfig](path)
	require.NoError(t, err)
	require.Equal(t, testConfig{
		Host:     "https://elab.example.org/api/v2",
		ApiKey:   "secret",
		Category: 4,
	}, cfg)
}

func TestReadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "elabctl.json5")
	err := os.WriteFile(path, []byte(`{host: `), 0600)
	require.NoError(t, err)

	_, err = ReadConfig[testConfig](path)
	require.Error(t, err)
	require.NotErrorIs(t, err, os.ErrNotExist)
}

func TestLocalPath(t *testing.T) {
	require.Equal(t, "dir/elabctl.local.json5", LocalPath("dir/elabctl.json5"))
	require.Equal(t, "config.local", LocalPath("config"))
}
