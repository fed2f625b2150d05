// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Serial connection flags
	portName    string
	baudRate    int
	readTimeout time.Duration

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Config and logging flags
	configPath string
	logOpts    logOptions
)

var rootCmd = &cobra.Command{
	Use:   "vectorstat",
	Short: "VectorNav Binary Output Analyzer",
	Long: `Vectorstat - A CLI tool for monitoring and analyzing VectorNav binary output frames.

Decodes the reference output configuration (common, GNSS, attitude and INS groups,
144 byte payload) and reports checksum and header errors to help diagnose link
quality between a VectorNav sensor and its host.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 921600]
  WebSocket: --url ws://host/path [--username user]

For WebSocket authentication, the password is read from the VECTORSTAT_PASSWORD
environment variable, or prompted interactively if not set.

Flag defaults may be provided in a TOML file with --config. Flags given on the
command line take precedence over the file.`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 921600, "Baud rate (serial only)")
	rootCmd.PersistentFlags().DurationVar(&readTimeout, "read-timeout", time.Second, "Serial read timeout")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Config and logging flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML config file with flag defaults")
	rootCmd.PersistentFlags().StringVar(&logOpts.Level, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logOpts.Format, "log-format", "console", "Log format (console or json)")
	rootCmd.PersistentFlags().StringVar(&logOpts.File, "log-file", "", "Also write logs to this file, rotated by size")
	rootCmd.PersistentFlags().IntVar(&logOpts.MaxSizeMB, "log-max-size", 50, "Maximum log file size in MB before rotation")
	rootCmd.PersistentFlags().IntVar(&logOpts.MaxBackups, "log-max-backups", 3, "Rotated log files to keep")
	rootCmd.PersistentFlags().IntVar(&logOpts.MaxAgeDays, "log-max-age", 28, "Days to keep rotated log files")
	rootCmd.PersistentFlags().BoolVar(&logOpts.Compress, "log-compress", false, "Gzip rotated log files")
}

// setup applies the config file and builds the logger before any command runs
func setup(cmd *cobra.Command, args []string) error {
	if configPath != "" {
		values, err := loadConfigFile(configPath)
		if err != nil {
			return err
		}
		if err := applyConfig(cmd.Flags(), values); err != nil {
			return err
		}
	}

	l, err := newLogger(logOpts)
	if err != nil {
		return err
	}
	logger = l
	logger.Debug("starting",
		zap.String("command", cmd.Name()),
		zap.String("config", configPath),
	)
	return nil
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer func() { _ = logger.Sync() }()

	return rootCmd.ExecuteContext(ctx)
}
