package config

import (
	"bytes"
	"os"
	"time"

	"emperror.dev/errors"
	"github.com/BurntSushi/toml"
	"k8s.io/kube-openapi/pkg/validation/strfmt"
)

// Config holds defaults read from a TOML file. Zero values mean "not set".
type Config struct {
	LogLevel     string   `toml:"log-level"`
	Interval     float64  `toml:"interval"`
	StartupDelay string   `toml:"startup-delay"`
	Match        []string `toml:"match"`
	Table        bool     `toml:"table"`
	Output       string   `toml:"output"`
}

// Load reads the configuration at path. An empty path yields an empty config.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIff(err, "failed to read config file %s", path)
	}
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, errors.WrapIff(err, "failed to parse config file %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.Errorf("unknown keys in config file %s: %v", path, undecoded)
	}
	return cfg, nil
}

// Encode renders cfg as TOML.
func (c *Config) Encode() (string, error) {
	buf := new(bytes.Buffer)
	if err := toml.NewEncoder(buf).Encode(c); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// StartupDelayDuration parses StartupDelay. Units up to days are accepted.
func (c *Config) StartupDelayDuration() (time.Duration, error) {
	d, err := strfmt.ParseDuration(c.StartupDelay)
	if err != nil {
		return 0, errors.WrapIff(err, "invalid startup-delay %q", c.StartupDelay)
	}
	return d, nil
}
