// Package configcli handles loading the optional plotctl configuration: the
// daemon address, the acknowledgment timeout and logging.
package configcli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mfulz/plotgeist/internal/configloader"
	"github.com/mfulz/plotgeist/internal/logging"
	"github.com/mfulz/plotgeist/internal/plotclient"
	"github.com/mfulz/plotgeist/protocol"
	"github.com/spf13/viper"
)

// EnvConfig names the variable that points plotctl at a config file.
const EnvConfig = "PLOTGEIST_CTL_CONFIG"

// Config holds the entire client-side plotctl configuration.
type Config struct {
	Addr    string         `mapstructure:"addr"`    // plotd host:port
	Target  string         `mapstructure:"target"`  // default target for subcommands
	Timeout time.Duration  `mapstructure:"timeout"` // connect and acknowledgment timeout
	Logger  logging.Config `mapstructure:"log"`
}

// LoadConfig reads plotctl.yaml. An empty path resolves the file via
// $PLOTGEIST_CTL_CONFIG, ~/.plotgeist/plotctl/plotctl.yaml and
// /etc/plotgeist/plotctl.yaml; without a file the defaults apply. Environment
// variables with the PLOTCTL_ prefix override both.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("addr", plotclient.DefaultAddr)
	v.SetDefault("target", "Plot1")
	v.SetDefault("timeout", protocol.DefaultReceiveTimeout)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.to_stdout", false)
	v.SetDefault("log.to_stderr", true)
	v.SetDefault("log.to_file", false)
	v.SetDefault("log.file", "")

	if path == "" {
		resolved, err := configloader.ResolveConfigPath(EnvConfig, "plotctl", "plotctl.yaml")
		if err != nil && !errors.Is(err, configloader.ErrNotFound) {
			return nil, err
		}
		path = resolved
	}

	v.SetEnvPrefix("PLOTCTL")
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
	return &cfg, nil
}
