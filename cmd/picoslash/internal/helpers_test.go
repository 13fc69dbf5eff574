package internal

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipeed/picoslash/pkg/config"
	"github.com/sipeed/picoslash/pkg/logger"
)

func TestGetConfigPath(t *testing.T) {
	t.Setenv("HOME", "/tmp/home")
	t.Setenv(config.EnvConfig, "")
	t.Setenv(config.EnvHome, "")

	assert.Equal(t, filepath.Join("/tmp/home", ".picoslash", "config.json"), GetConfigPath())
	assert.Equal(t, filepath.Join("/tmp/home", ".picoslash", "commands.yaml"), GetManifestPath())

	old := Flags
	t.Cleanup(func() { Flags = old })
	Flags.Config = "/etc/picoslash.json"
	Flags.Manifest = "/etc/commands.yaml"
	assert.Equal(t, "/etc/picoslash.json", GetConfigPath())
	assert.Equal(t, "/etc/commands.yaml", GetManifestPath())
}

func TestFormatVersion(t *testing.T) {
	oldVersion, oldGit := version, gitCommit
	t.Cleanup(func() { version, gitCommit = oldVersion, oldGit })

	version, gitCommit = "1.2.3", ""
	assert.Equal(t, "1.2.3", FormatVersion())

	gitCommit = "abc123"
	assert.Equal(t, "1.2.3 (git: abc123)", FormatVersion())
}

func TestFormatBuildInfo_DefaultGoVersion(t *testing.T) {
	oldBuild, oldGo := buildTime, goVersion
	t.Cleanup(func() { buildTime, goVersion = oldBuild, oldGo })

	buildTime, goVersion = "2026-01-01T00:00:00Z", ""
	build, goVer := FormatBuildInfo()
	assert.Equal(t, "2026-01-01T00:00:00Z", build)
	assert.Equal(t, runtime.Version(), goVer)
}

func TestLoadConfigAppliesLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"log": {"level": "warn"}}`), 0644))

	old, oldLevel := Flags, logger.GetLevel()
	t.Cleanup(func() {
		Flags = old
		logger.SetLevel(oldLevel)
	})
	Flags.Config = path
	Flags.Debug = false

	_, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, logger.WARN, logger.GetLevel())

	Flags.Debug = true
	_, err = LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, logger.DEBUG, logger.GetLevel())
}

func TestLoadConfigRedactsToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"discord": {"token": "plain-bot-token"}}`), 0644))

	var buf bytes.Buffer
	old := Flags
	logger.SetOutput(&buf)
	t.Cleanup(func() {
		Flags = old
		logger.SetOutput(nil)
		logger.SetRedactor(nil)
		logger.SetLevel(logger.INFO)
	})
	Flags.Config = path
	Flags.Debug = false

	_, err := LoadConfig()
	require.NoError(t, err)

	logger.InfoCF("test", "login with plain-bot-token", nil)
	assert.NotContains(t, buf.String(), "plain-bot-token")
	assert.Contains(t, buf.String(), "login with [REDACTED]")
}

func TestLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 1\ncommands:\n  - name: ping\n    description: pong\n    reply: pong\n"), 0644))

	old := Flags
	t.Cleanup(func() { Flags = old })
	Flags.Manifest = path

	reg, err := LoadRegistry()
	require.NoError(t, err)
	_, ok := reg.Lookup("ping")
	assert.True(t, ok)
}
