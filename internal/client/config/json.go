package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/docsum/internal/flagx"
	"github.com/dmitrijs2005/docsum/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "30s" or as integer nanoseconds.
type JsonConfig struct {
	APIURL              string         `json:"api_url"`
	FrontendURL         string         `json:"frontend_url"`
	StoragePath         string         `json:"storage_path"`
	RequestTimeout      timex.Duration `json:"request_timeout"`
	OAuthTimeout        timex.Duration `json:"oauth_timeout"`
	StoragePollInterval timex.Duration `json:"storage_poll_interval"`
	LogLevel            string         `json:"log_level"`
	LogFormat           string         `json:"log_format"`
	PageSize            int            `json:"page_size"`
	SearchLimit         int            `json:"search_limit"`
	AWSRegion           string         `json:"aws_region"`
	AWSAccessKey        string         `json:"aws_access_key"`
	AWSSecretKey        string         `json:"aws_secret_key"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Only keys present with a non-zero value override the
// current settings. Panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigFile(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	overlayString(&cfg.APIURL, jc.APIURL)
	overlayString(&cfg.FrontendURL, jc.FrontendURL)
	overlayString(&cfg.StoragePath, jc.StoragePath)
	overlayDuration(&cfg.RequestTimeout, jc.RequestTimeout)
	overlayDuration(&cfg.OAuthTimeout, jc.OAuthTimeout)
	overlayDuration(&cfg.StoragePollInterval, jc.StoragePollInterval)
	overlayString(&cfg.LogLevel, jc.LogLevel)
	overlayString(&cfg.LogFormat, jc.LogFormat)
	overlayInt(&cfg.PageSize, jc.PageSize)
	overlayInt(&cfg.SearchLimit, jc.SearchLimit)
	overlayString(&cfg.AWSRegion, jc.AWSRegion)
	overlayString(&cfg.AWSAccessKey, jc.AWSAccessKey)
	overlayString(&cfg.AWSSecretKey, jc.AWSSecretKey)
}

func overlayString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func overlayInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func overlayDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration > 0 {
		*dst = time.Duration(v.Duration)
	}
}
