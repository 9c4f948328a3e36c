package config

import "time"

// Config holds runtime settings for the docsum CLI.
//
// Fields:
//   - APIURL: base URL of the backend REST API.
//   - FrontendURL: where the backend redirects after Google sign-in; the CLI
//     listens on its host for the callback.
//   - StoragePath: SQLite file holding the persisted session.
//   - RequestTimeout, OAuthTimeout, StoragePollInterval: time.Duration values.
//   - PageSize, SearchLimit: list sizes for documents and search results.
//   - AWS*: region and optional static keys for s3:// upload sources.
type Config struct {
	APIURL              string
	FrontendURL         string
	StoragePath         string
	RequestTimeout      time.Duration
	OAuthTimeout        time.Duration
	StoragePollInterval time.Duration
	LogLevel            string
	LogFormat           string
	PageSize            int
	SearchLimit         int
	AWSRegion           string
	AWSAccessKey        string
	AWSSecretKey        string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIURL = "http://localhost:3001"
	c.FrontendURL = "http://localhost:3000"
	c.StoragePath = "docsum.db"
	c.RequestTimeout = 30 * time.Second
	c.OAuthTimeout = 2 * time.Minute
	c.StoragePollInterval = 2 * time.Second
	c.LogLevel = "warn"
	c.LogFormat = "console"
	c.PageSize = 10
	c.SearchLimit = 10
	c.AWSRegion = ""
	c.AWSAccessKey = ""
	c.AWSSecretKey = ""
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment (including .env), JSON (if present) and command-line flags
// (if present). Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
