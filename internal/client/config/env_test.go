package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnvFile(t *testing.T) {
	t.Helper()
	orig := envFile
	envFile = filepath.Join(t.TempDir(), "missing.env")
	t.Cleanup(func() { envFile = orig })
}

func TestParseEnv_OverridesDefaults(t *testing.T) {
	noEnvFile(t)
	t.Setenv(EnvAPIURL, "https://api.example.com")
	t.Setenv(EnvFrontendURL, "http://127.0.0.1:4000")
	t.Setenv(EnvRequestTimeout, "5s")
	t.Setenv(EnvPageSize, "25")
	t.Setenv(EnvAWSRegion, "eu-north-1")

	var cfg Config
	cfg.LoadDefaults()
	parseEnv(&cfg)

	assert.Equal(t, "https://api.example.com", cfg.APIURL)
	assert.Equal(t, "http://127.0.0.1:4000", cfg.FrontendURL)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 25, cfg.PageSize)
	assert.Equal(t, "eu-north-1", cfg.AWSRegion)
}

func TestParseEnv_PublicFallback(t *testing.T) {
	noEnvFile(t)
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvAPIURLFallback, "http://public:3001")

	var cfg Config
	cfg.LoadDefaults()
	parseEnv(&cfg)

	assert.Equal(t, "http://public:3001", cfg.APIURL)
}

func TestParseEnv_MalformedValuesIgnored(t *testing.T) {
	noEnvFile(t)
	t.Setenv(EnvRequestTimeout, "soon")
	t.Setenv(EnvPageSize, "-3")

	var cfg Config
	cfg.LoadDefaults()
	parseEnv(&cfg)

	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 10, cfg.PageSize)
}

func TestParseEnv_LoadsDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DOCSUM_STORAGE=from-dotenv.db\n"), 0o600))

	orig := envFile
	envFile = path
	t.Cleanup(func() { envFile = orig })

	// godotenv.Load sets the variable for the process; t.Setenv restores it.
	t.Setenv(EnvStorage, "")
	require.NoError(t, os.Unsetenv(EnvStorage))

	var cfg Config
	cfg.LoadDefaults()
	parseEnv(&cfg)

	assert.Equal(t, "from-dotenv.db", cfg.StoragePath)
}
