package main

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// cliConfig is the operator CLI's own connection/runtime configuration.
// It is independent of config.Config/config.FromSettings: ocpcat talks
// about "which SCP do I dial and how long do I wait", not the protocol
// engine's reload semantics.
type cliConfig struct {
	Host        string        `mapstructure:"host"`
	Port        uint16        `mapstructure:"port"`
	Timeout     time.Duration `mapstructure:"timeout"`
	UnitName    string        `mapstructure:"unit-name"`
	MetricsAddr string        `mapstructure:"metrics-addr"`
}

// loadCLIConfig decodes v's bound flags/env/file settings into a
// cliConfig via mapstructure, so the flag-parsing layer and the typed
// struct the subcommands work with stay decoupled.
func loadCLIConfig(v *viper.Viper) (cliConfig, error) {
	var cfg cliConfig
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return cliConfig{}, fmt.Errorf("ocpcat: build config decoder: %w", err)
	}
	if err := dec.Decode(v.AllSettings()); err != nil {
		return cliConfig{}, fmt.Errorf("ocpcat: decode config: %w", err)
	}
	return cfg, nil
}

func (c cliConfig) addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// watchdogCheckInterval is how often the CLI's liveness watchdog expects
// a Pat before it logs a warning. It is independent of the link's own
// connect/read/write timeout.
const watchdogCheckInterval = 5 * time.Second
