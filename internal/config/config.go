// Package config loads the server's YAML configuration file: listen
// addresses, the server root directory, the credentials source, and
// the process limits the server treats as fixed constants.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the server's startup configuration.
type Config struct {
	// ListenAddr is the control connection address, e.g. ":21".
	ListenAddr string `yaml:"listen_addr"`

	// DataAddr is the local address the Data-Connection Broker binds
	// before dialing out, e.g. ":20". The port must be 20 for strict
	// RFC 959 active-mode compliance.
	DataAddr string `yaml:"data_addr"`

	// Root is the server's root directory; per-user jails are created
	// as Root/<username> at first successful login.
	Root string `yaml:"root"`

	// Credentials is the path to the two-column CSV user file.
	Credentials string `yaml:"credentials"`

	// MaxSessions bounds the number of concurrent control connections.
	MaxSessions int `yaml:"max_sessions"`

	// Backlog is the configured listen backlog for the control socket.
	// It is loaded and defaulted but not applied: the control listener
	// is opened with the operating system's default backlog.
	Backlog int `yaml:"backlog"`
}

// Defaults returns the server's baked-in defaults: control port 21,
// data source port 20, a session cap of 10, and a listen backlog of 5.
func Defaults() Config {
	return Config{
		ListenAddr:  ":21",
		DataAddr:    ":20",
		Root:        ".",
		Credentials: "users.csv",
		MaxSessions: 10,
		Backlog:     5,
	}
}

// Load reads a YAML config file at path and fills in any zero-valued
// field from Defaults().
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "load config from %s", path)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parse config %s", path)
	}

	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	d := Defaults()
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = d.ListenAddr
	}
	if cfg.DataAddr == "" {
		cfg.DataAddr = d.DataAddr
	}
	if cfg.Root == "" {
		cfg.Root = d.Root
	}
	if cfg.Credentials == "" {
		cfg.Credentials = d.Credentials
	}
	if cfg.MaxSessions == 0 {
		cfg.MaxSessions = d.MaxSessions
	}
	if cfg.Backlog == 0 {
		cfg.Backlog = d.Backlog
	}
}
