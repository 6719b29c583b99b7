// Package configd provides loading and parsing of the plotd configuration
// file using Viper. Every key has a default, so the file is optional, and every
// key can be overridden from the environment with the PLOTD_ prefix, e.g.
// PLOTD_LISTENER_PORT=9000.
package configd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mfulz/plotgeist/internal/configloader"
	"github.com/mfulz/plotgeist/internal/listener"
	"github.com/mfulz/plotgeist/internal/logging"
	"github.com/mfulz/plotgeist/protocol"
	"github.com/spf13/viper"
)

// EnvConfig names the variable that points plotd at a config file.
const EnvConfig = "PLOTGEIST_CONFIG"

// Config represents the full structure of plotd.yaml.
type Config struct {
	Listener     listener.Config `mapstructure:"listener"`
	PollInterval time.Duration   `mapstructure:"poll_interval"` // consumer tick, about one frame
	Targets      []string        `mapstructure:"targets"`       // plots attached at start-up
	Logger       logging.Config  `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	def := listener.DefaultConfig()
	v.SetDefault("listener.address", def.Address)
	v.SetDefault("listener.port", def.Port)
	v.SetDefault("listener.receive_timeout", def.ReceiveTimeout)
	v.SetDefault("listener.accept_rate", def.AcceptRate)
	v.SetDefault("listener.accept_burst", def.AcceptBurst)

	limits := protocol.DefaultLimits()
	v.SetDefault("listener.limits.max_string_len", limits.MaxStringLen)
	v.SetDefault("listener.limits.max_vector_len", limits.MaxVectorLen)
	v.SetDefault("listener.limits.max_entries", limits.MaxEntries)

	v.SetDefault("poll_interval", 16*time.Millisecond)
	v.SetDefault("targets", []string{"Plot1"})

	logDef := logging.DefaultConfig()
	v.SetDefault("log.level", logDef.Level)
	v.SetDefault("log.to_stdout", logDef.ToStdout)
	v.SetDefault("log.to_stderr", logDef.ToStderr)
	v.SetDefault("log.to_file", logDef.ToFile)
	v.SetDefault("log.file", logDef.FilePath)
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_age", 7)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.compress", false)
}

// Load reads the plotd configuration. An empty path resolves the file via
// $PLOTGEIST_CONFIG, ~/.plotgeist/plotd/plotd.yaml and /etc/plotgeist/plotd.yaml;
// when none exists the defaults are used. An explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		resolved, err := configloader.ResolveConfigPath(EnvConfig, "plotd", "plotd.yaml")
		if err != nil && !errors.Is(err, configloader.ErrNotFound) {
			return nil, err
		}
		path = resolved
	}

	v.SetEnvPrefix("PLOTD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error loading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would only fail later at start-up.
func (c *Config) Validate() error {
	var errs []error
	if c.Listener.Port < 0 || c.Listener.Port > 65535 {
		errs = append(errs, fmt.Errorf("listener.port %d out of range", c.Listener.Port))
	}
	if c.Listener.ReceiveTimeout <= 0 {
		errs = append(errs, fmt.Errorf("listener.receive_timeout must be positive, got %s", c.Listener.ReceiveTimeout))
	}
	if c.Listener.AcceptRate < 0 {
		errs = append(errs, errors.New("listener.accept_rate must not be negative"))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval))
	}
	for _, t := range c.Targets {
		if t == "" {
			errs = append(errs, errors.New("targets must not contain an empty name"))
			break
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid plotd config: %w", err)
	}
	return nil
}
