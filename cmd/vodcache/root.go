// VODCache - Video Delivery Cache Capacity Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vodcache

package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomtom215/vodcache/internal/config"
	"github.com/tomtom215/vodcache/internal/logging"
	"github.com/tomtom215/vodcache/internal/validation"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "unknown"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "vodcache",
		Short: "VODCache - video delivery cache capacity analysis",
		Long: `vodcache analyses VOD usage logs to estimate how much cache memory
the delivery nodes need, for a range of keep-alive values and cache sizes.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&g.configPath, "config", "",
		"config file (default: $"+config.ConfigPathEnvVar+", else the first of "+strings.Join(config.DefaultConfigPaths, ", ")+")")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "log format: json or console")

	root.AddCommand(newAnalyzeCmd(g), newAssetsCmd(g), newRunsCmd(g), newVersionCmd())
	return root
}

// flagKey binds a command-line flag to a koanf path.
type flagKey struct {
	flag string
	key  string
}

var globalKeys = []flagKey{
	{"log-level", "logging.level"},
	{"log-format", "logging.format"},
}

// loadConfig loads the layered configuration with every changed flag of cmd
// applied on top, then initializes logging from it.
func loadConfig(cmd *cobra.Command, g *globalFlags, keys []flagKey) (*config.Config, error) {
	return loadConfigWith(cmd, g, keys, false)
}

// loadDatabaseConfig is loadConfig for commands that only read the export
// database; the input and simulation sections are not validated.
func loadDatabaseConfig(cmd *cobra.Command, g *globalFlags, keys []flagKey) (*config.Config, error) {
	cfg, err := loadConfigWith(cmd, g, keys, true)
	if err != nil {
		return nil, err
	}
	if err := validation.Validate(cfg.Database); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadConfigWith(cmd *cobra.Command, g *globalFlags, keys []flagKey, partial bool) (*config.Config, error) {
	overrides := make(map[string]any)
	for _, k := range append(globalKeys, keys...) {
		f := cmd.Flags().Lookup(k.flag)
		if f == nil || !f.Changed {
			continue
		}
		switch f.Value.Type() {
		case "int64Slice":
			v, err := cmd.Flags().GetInt64Slice(k.flag)
			if err != nil {
				return nil, err
			}
			overrides[k.key] = v
		case "durationSlice":
			v, err := cmd.Flags().GetDurationSlice(k.flag)
			if err != nil {
				return nil, err
			}
			overrides[k.key] = v
		default:
			overrides[k.key] = f.Value.String()
		}
	}

	cfg, err := config.LoadWithOptions(config.LoadOptions{
		Path:           g.configPath,
		Overrides:      overrides,
		SkipValidation: partial,
	})
	if err != nil {
		return nil, err
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})
	return cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
