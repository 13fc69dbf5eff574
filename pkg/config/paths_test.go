package config

import (
	"path/filepath"
	"testing"
)

func TestResolveRuntimePaths_Default(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvConfig, "")
	t.Setenv(EnvHome, "")

	paths := ResolveRuntimePaths()
	wantHome := filepath.Join(home, ".picoslash")

	if paths.HomeDir != wantHome {
		t.Errorf("HomeDir = %q, want %q", paths.HomeDir, wantHome)
	}
	if paths.ConfigPath != filepath.Join(wantHome, "config.json") {
		t.Errorf("ConfigPath = %q, want %q", paths.ConfigPath, filepath.Join(wantHome, "config.json"))
	}
	if paths.ManifestPath != filepath.Join(wantHome, "commands.yaml") {
		t.Errorf("ManifestPath = %q, want %q", paths.ManifestPath, filepath.Join(wantHome, "commands.yaml"))
	}
}

func TestResolveRuntimePaths_HomeOverride(t *testing.T) {
	homeOverride := filepath.Join(t.TempDir(), "slash-home")
	t.Setenv(EnvConfig, "")
	t.Setenv(EnvHome, homeOverride)

	paths := ResolveRuntimePaths()

	if paths.HomeDir != homeOverride {
		t.Errorf("HomeDir = %q, want %q", paths.HomeDir, homeOverride)
	}
	if paths.ConfigPath != filepath.Join(homeOverride, "config.json") {
		t.Errorf("ConfigPath = %q, want %q", paths.ConfigPath, filepath.Join(homeOverride, "config.json"))
	}
}

func TestResolveRuntimePaths_ConfigOverrideTakesPrecedence(t *testing.T) {
	homeOverride := filepath.Join(t.TempDir(), "slash-home")
	configDir := filepath.Join(t.TempDir(), "custom-config-dir")
	configPath := filepath.Join(configDir, "config.json")

	t.Setenv(EnvHome, homeOverride)
	t.Setenv(EnvConfig, configPath)

	paths := ResolveRuntimePaths()

	if paths.ConfigPath != configPath {
		t.Errorf("ConfigPath = %q, want %q", paths.ConfigPath, configPath)
	}
	if paths.HomeDir != configDir {
		t.Errorf("HomeDir = %q, want %q", paths.HomeDir, configDir)
	}
	if paths.ManifestPath != filepath.Join(configDir, "commands.yaml") {
		t.Errorf("ManifestPath = %q, want %q", paths.ManifestPath, filepath.Join(configDir, "commands.yaml"))
	}
}
