package config

import (
	"fmt"
	"time"

	"github.com/gookit/validate"
)

// Config holds runtime settings for the HoaxBuster CLI.
//
// Fields:
//   - APIURL: base URL of the story API.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - DatabasePath: SQLite file of the local store.
//   - MetricsAddr: listen address of the local status endpoint, "" disables it.
//   - LogFormat: text, json, zerolog or console.
//
// The remaining fields tune the sync core and are only settable from JSON.
type Config struct {
	APIURL              string        `validate:"required|url"`
	OnlineCheckInterval time.Duration `validate:"required"`
	DatabasePath        string        `validate:"required"`
	MetricsAddr         string
	LogFormat           string `validate:"required|in:text,json,zerolog,console"`
	Debug               bool

	RequestTimeout       time.Duration `validate:"required"`
	MatchWindow          time.Duration `validate:"required"`
	MaxRetries           int           `validate:"required|min:1"`
	ReplayPolicy         string        `validate:"required|in:halt,continue"`
	GeocodeTimeout       time.Duration `validate:"required"`
	GeocodeSweepInterval time.Duration `validate:"required"`
	NominatimURL         string        `validate:"url"`
	BigDataCloudURL      string        `validate:"url"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIURL = "http://localhost:3000"
	c.OnlineCheckInterval = 3 * time.Second
	c.DatabasePath = "hoaxbuster.db"
	c.MetricsAddr = ""
	c.LogFormat = "text"
	c.Debug = false

	c.RequestTimeout = 30 * time.Second
	c.MatchWindow = 60 * time.Second
	c.MaxRetries = 5
	c.ReplayPolicy = "halt"
	c.GeocodeTimeout = 8 * time.Second
	c.GeocodeSweepInterval = time.Hour
	c.NominatimURL = "https://nominatim.openstreetmap.org"
	c.BigDataCloudURL = "https://api.bigdatacloud.net"
}

// Validate checks the struct tags.
func (c *Config) Validate() error {
	vd := validate.Struct(c)
	if !vd.Validate() {
		return fmt.Errorf("invalid config: %s", vd.Errors.One())
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones. args are the program arguments without the
// program name.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
