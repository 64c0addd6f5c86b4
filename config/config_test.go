package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "homy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
apiUrl: https://api.example.com/api/v1
timeout: 5s
pageSize: 25
logLevel: debug
viewTTL: 60
`), 0o600))

	t.Setenv("HOMY_LOG_LEVEL", "warn")
	t.Setenv("HOMY_API_URL", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/api/v1", cfg.APIURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout.D())
	assert.Equal(t, time.Minute, cfg.ViewTTL.D())
	assert.Equal(t, 25, cfg.PageSize)
	assert.Equal(t, "warn", cfg.LogLevel)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--page-size", "50"}))
	assert.Equal(t, 50, cfg.PageSize)
	assert.Equal(t, "https://api.example.com/api/v1", cfg.APIURL)
}

func TestLoadDefaultFileMayBeMissing(t *testing.T) {
	t.Setenv("HOMY_STATE_DIR", t.TempDir())
	t.Setenv("HOMY_API_URL", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, 10, cfg.PageSize)
}

func TestLoadExplicitFileMustExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.APIURL = "localhost:3000"
	require.Error(t, bad.Validate())

	bad = cfg
	bad.PageSize = 0
	require.Error(t, bad.Validate())

	bad = cfg
	bad.LogLevel = "loud"
	require.Error(t, bad.Validate())
}

func TestApplyEnvBadPageSize(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(func(k string) (string, bool) {
		if k == "HOMY_PAGE_SIZE" {
			return "ten", true
		}
		return "", false
	})
	require.Error(t, err)
}
