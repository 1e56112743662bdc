package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/dmitrijs2005/hoaxbuster/internal/flagx"
	"github.com/dmitrijs2005/hoaxbuster/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "3s" or as integer nanoseconds. Pointer and zero values mean
// "not set" and leave the current value alone.
type JsonConfig struct {
	APIURL              string         `json:"api_url"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	DatabasePath        string         `json:"database_path"`
	MetricsAddr         *string        `json:"metrics_addr"`
	LogFormat           string         `json:"log_format"`
	Debug               *bool          `json:"debug"`

	RequestTimeout       timex.Duration `json:"request_timeout"`
	MatchWindow          timex.Duration `json:"match_window"`
	MaxRetries           int            `json:"max_retries"`
	ReplayPolicy         string         `json:"replay_policy"`
	GeocodeTimeout       timex.Duration `json:"geocode_timeout"`
	GeocodeSweepInterval timex.Duration `json:"geocode_sweep_interval"`
	NominatimURL         string         `json:"nominatim_url"`
	BigDataCloudURL      string         `json:"bigdatacloud_url"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config in args. Without either flag nothing is loaded.
//
// Intended usage is: defaults -> parseJson -> parseFlags, where later stages
// override earlier ones.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	setString(&cfg.APIURL, jc.APIURL)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.ReplayPolicy, jc.ReplayPolicy)
	setString(&cfg.NominatimURL, jc.NominatimURL)
	setString(&cfg.BigDataCloudURL, jc.BigDataCloudURL)
	if jc.MetricsAddr != nil {
		cfg.MetricsAddr = *jc.MetricsAddr
	}
	if jc.Debug != nil {
		cfg.Debug = *jc.Debug
	}
	if jc.MaxRetries != 0 {
		cfg.MaxRetries = jc.MaxRetries
	}

	setDuration(&cfg.OnlineCheckInterval, jc.OnlineCheckInterval)
	setDuration(&cfg.RequestTimeout, jc.RequestTimeout)
	setDuration(&cfg.MatchWindow, jc.MatchWindow)
	setDuration(&cfg.GeocodeTimeout, jc.GeocodeTimeout)
	setDuration(&cfg.GeocodeSweepInterval, jc.GeocodeSweepInterval)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
