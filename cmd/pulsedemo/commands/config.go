package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/archlens/pulse"
	"github.com/archlens/pulse/buildmode"
	"github.com/archlens/pulse/sink"
)

// demoConfig is the shape pulsedemo reads from a config file and
// PULSEDEMO_*-prefixed environment variables (spec.md §6 names this
// family of env vars as the host's job, not the core's). It is then
// translated into a pulse.Config the library understands.
type demoConfig struct {
	Mode       string `mapstructure:"mode"`
	LogDir     string `mapstructure:"log_dir"`
	LogJSON    bool   `mapstructure:"log_json"`
	Prometheus bool   `mapstructure:"prometheus"`
}

// loadDemoConfig reads pulsedemo.yaml (if present in the working
// directory) overlaid by PULSEDEMO_* environment variables, the same
// viper convention the teacher's own config loader uses.
func loadDemoConfig(path string) (demoConfig, error) {
	v := viper.New()
	v.SetConfigName("pulsedemo")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvPrefix("PULSEDEMO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("mode", string(buildmode.Development))

	if path != "" {
		v.SetConfigFile(path)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return demoConfig{}, fmt.Errorf("pulsedemo: read config: %w", err)
		}
	}

	var cfg demoConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return demoConfig{}, fmt.Errorf("pulsedemo: unmarshal config: %w", err)
	}

	return cfg, nil
}

// toPulseConfig translates demoConfig plus an optional sink-spec YAML
// document into the pulse.Config the library's Install expects.
func toPulseConfig(cfg demoConfig, sinkYAML []byte) (pulse.Config, error) {
	mode := buildmode.Mode(cfg.Mode)
	if !buildmode.Valid(mode) {
		return pulse.Config{}, fmt.Errorf("pulsedemo: invalid build mode %q", cfg.Mode)
	}

	pc := pulse.DefaultConfig()
	pc.Mode = mode
	pc.Observability.LogJSON = cfg.LogJSON
	pc.Observability.PrometheusEnabled = cfg.Prometheus
	pc.Observability.LogLevel = slog.LevelInfo

	if len(sinkYAML) > 0 {
		specs, err := sink.LoadSpecs(sinkYAML)
		if err != nil {
			return pulse.Config{}, fmt.Errorf("pulsedemo: load sink specs: %w", err)
		}

		pc.Sinks = specs
	} else if cfg.LogDir != "" {
		pc.Sinks = []sink.Spec{{Kind: "ndjson", Path: cfg.LogDir + "/pulsedemo.ndjson"}}
	}

	return pc, nil
}
