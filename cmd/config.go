// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"
)

// fileConfig is the vectorstat.toml layout. Every key defaults the flag of the same
// meaning; flags given on the command line always win.
type fileConfig struct {
	Serial struct {
		Port        string `toml:"port"`
		Baud        int    `toml:"baud"`
		ReadTimeout string `toml:"read_timeout"`
	} `toml:"serial"`

	WebSocket struct {
		URL         string `toml:"url"`
		Username    string `toml:"username"`
		NoSSLVerify bool   `toml:"no_ssl_verify"`
	} `toml:"websocket"`

	Logging struct {
		Level      string `toml:"level"`
		Format     string `toml:"format"`
		File       string `toml:"file"`
		MaxSizeMB  int    `toml:"max_size_mb"`
		MaxBackups int    `toml:"max_backups"`
		MaxAgeDays int    `toml:"max_age_days"`
		Compress   bool   `toml:"compress"`
	} `toml:"logging"`

	Metrics struct {
		Addr string `toml:"addr"`
	} `toml:"metrics"`

	Sender struct {
		Interval string `toml:"interval"`
		Count    int    `toml:"count"`
	} `toml:"sender"`
}

// loadConfigFile reads a TOML config file and returns flag values for every key
// the file defines, keyed by flag name
func loadConfigFile(path string) (map[string]string, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
	}

	values := make(map[string]string)
	set := func(flag, value string, key ...string) {
		if meta.IsDefined(key...) {
			values[flag] = value
		}
	}

	set("port", strings.TrimSpace(raw.Serial.Port), "serial", "port")
	set("baud", strconv.Itoa(raw.Serial.Baud), "serial", "baud")
	set("read-timeout", strings.TrimSpace(raw.Serial.ReadTimeout), "serial", "read_timeout")

	set("url", strings.TrimSpace(raw.WebSocket.URL), "websocket", "url")
	set("username", strings.TrimSpace(raw.WebSocket.Username), "websocket", "username")
	set("no-ssl-verify", strconv.FormatBool(raw.WebSocket.NoSSLVerify), "websocket", "no_ssl_verify")

	set("log-level", strings.TrimSpace(raw.Logging.Level), "logging", "level")
	set("log-format", strings.TrimSpace(raw.Logging.Format), "logging", "format")
	set("log-file", strings.TrimSpace(raw.Logging.File), "logging", "file")
	set("log-max-size", strconv.Itoa(raw.Logging.MaxSizeMB), "logging", "max_size_mb")
	set("log-max-backups", strconv.Itoa(raw.Logging.MaxBackups), "logging", "max_backups")
	set("log-max-age", strconv.Itoa(raw.Logging.MaxAgeDays), "logging", "max_age_days")
	set("log-compress", strconv.FormatBool(raw.Logging.Compress), "logging", "compress")

	set("metrics-addr", strings.TrimSpace(raw.Metrics.Addr), "metrics", "addr")

	set("interval", strings.TrimSpace(raw.Sender.Interval), "sender", "interval")
	set("count", strconv.Itoa(raw.Sender.Count), "sender", "count")

	return values, nil
}

// applyConfig sets every flag that exists in flags and was not given on the command line
func applyConfig(flags *pflag.FlagSet, values map[string]string) error {
	for name, value := range values {
		f := flags.Lookup(name)
		if f == nil || f.Changed {
			continue
		}
		if err := flags.Set(name, value); err != nil {
			return fmt.Errorf("config value for --%s: %w", name, err)
		}
	}
	return nil
}
