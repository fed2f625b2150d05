// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "vectorstat.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func testFlagSet() (*pflag.FlagSet, *string, *int, *time.Duration, *string) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	port := fs.String("port", "", "")
	baud := fs.Int("baud", 921600, "")
	interval := fs.Duration("interval", 500*time.Millisecond, "")
	level := fs.String("log-level", "info", "")
	return fs, port, baud, interval, level
}

func TestLoadConfigFile_DefinedKeysOnly(t *testing.T) {
	path := writeConfig(t, `
[serial]
port = " /dev/ttyUSB1 "
baud = 115200

[sender]
interval = "250ms"
`)

	values, err := loadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB1", values["port"])
	assert.Equal(t, "115200", values["baud"])
	assert.Equal(t, "250ms", values["interval"])

	// Keys absent from the file never produce a value, even if zero
	assert.NotContains(t, values, "url")
	assert.NotContains(t, values, "no-ssl-verify")
	assert.NotContains(t, values, "count")
}

func TestLoadConfigFile_ExplicitZeroIsDefined(t *testing.T) {
	path := writeConfig(t, `
[sender]
count = 0

[websocket]
no_ssl_verify = false
`)

	values, err := loadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0", values["count"])
	assert.Equal(t, "false", values["no-ssl-verify"])
}

func TestLoadConfigFile_UnknownKey(t *testing.T) {
	path := writeConfig(t, `
[serial]
prot = "/dev/ttyUSB0"
`)

	_, err := loadConfigFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serial.prot")
}

func TestLoadConfigFile_Errors(t *testing.T) {
	_, err := loadConfigFile(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)

	_, err = loadConfigFile(writeConfig(t, "[serial\nport ="))
	require.Error(t, err)
}

func TestApplyConfig_CommandLineWins(t *testing.T) {
	fs, port, baud, interval, level := testFlagSet()
	require.NoError(t, fs.Parse([]string{"--baud=9600"}))

	err := applyConfig(fs, map[string]string{
		"port":         "/dev/ttyUSB1",
		"baud":         "115200",
		"interval":     "250ms",
		"metrics-addr": ":9108", // not registered on this command
	})
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB1", *port)
	assert.Equal(t, 9600, *baud)
	assert.Equal(t, 250*time.Millisecond, *interval)
	assert.Equal(t, "info", *level)
}

func TestApplyConfig_InvalidValue(t *testing.T) {
	fs, _, _, _, _ := testFlagSet()
	require.NoError(t, fs.Parse(nil))

	err := applyConfig(fs, map[string]string{"interval": "soon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--interval")
}

func TestNewLogger(t *testing.T) {
	l, err := newLogger(logOptions{Level: "DEBUG", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, l)

	path := filepath.Join(t.TempDir(), "vectorstat.log")
	l, err = newLogger(logOptions{Level: "warn", File: path, MaxSizeMB: 1})
	require.NoError(t, err)
	l.Warn("written to file")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")

	_, err = newLogger(logOptions{Level: "loud"})
	require.Error(t, err)
}
