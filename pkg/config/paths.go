package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	EnvConfig = "PICOSLASH_CONFIG"
	EnvHome   = "PICOSLASH_HOME"
)

type RuntimePaths struct {
	HomeDir      string
	ConfigPath   string
	ManifestPath string
}

func ResolveRuntimePaths() RuntimePaths {
	if configPath := expandHome(strings.TrimSpace(os.Getenv(EnvConfig))); configPath != "" {
		return buildRuntimePaths(filepath.Dir(configPath), configPath)
	}

	homeDir := expandHome(strings.TrimSpace(os.Getenv(EnvHome)))
	if homeDir == "" {
		homeDir = defaultHome()
	}

	return buildRuntimePaths(homeDir, filepath.Join(homeDir, "config.json"))
}

func defaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".picoslash"
	}
	return filepath.Join(home, ".picoslash")
}

func buildRuntimePaths(homeDir, configPath string) RuntimePaths {
	return RuntimePaths{
		HomeDir:      homeDir,
		ConfigPath:   configPath,
		ManifestPath: filepath.Join(homeDir, "commands.yaml"),
	}
}
