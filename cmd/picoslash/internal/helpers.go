package internal

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sipeed/picoslash/pkg/command"
	"github.com/sipeed/picoslash/pkg/config"
	"github.com/sipeed/picoslash/pkg/logger"
	"github.com/sipeed/picoslash/pkg/manifest"
	"github.com/sipeed/picoslash/pkg/redaction"
	"github.com/sipeed/picoslash/pkg/tracing"
)

const Logo = "⚡"

var (
	version   = "dev"
	gitCommit string
	buildTime string
	goVersion string
)

// Flags holds the persistent flags shared by every subcommand.
var Flags struct {
	Config   string
	Manifest string
	Debug    bool
}

// AddPersistentFlags registers the shared flags on the root command.
func AddPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&Flags.Config, "config", "c", "", "Path to config.json (default ~/.picoslash/config.json)")
	cmd.PersistentFlags().StringVarP(&Flags.Manifest, "manifest", "m", "", "Path to the command manifest (default ~/.picoslash/commands.yaml)")
	cmd.PersistentFlags().BoolVarP(&Flags.Debug, "debug", "d", false, "Enable debug logging")
}

func GetConfigPath() string {
	if Flags.Config != "" {
		return Flags.Config
	}
	return config.ResolveRuntimePaths().ConfigPath
}

func GetManifestPath() string {
	if Flags.Manifest != "" {
		return Flags.Manifest
	}
	return config.ResolveRuntimePaths().ManifestPath
}

// LoadConfig loads the config and applies its logging settings.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(GetConfigPath())
	if err != nil {
		return nil, err
	}

	level := logger.INFO
	if cfg.Log.Level != "" {
		parsed, err := logger.ParseLevel(cfg.Log.Level)
		if err != nil {
			return nil, err
		}
		level = parsed
	}
	if Flags.Debug {
		level = logger.DEBUG
	}
	logger.SetLevel(level)

	if err := applyRedaction(cfg); err != nil {
		return nil, err
	}

	if path := cfg.LogFilePath(); path != "" {
		if err := logger.EnableFileLogging(path); err != nil {
			return nil, fmt.Errorf("failed to enable file logging: %w", err)
		}
	}
	return cfg, nil
}

func applyRedaction(cfg *config.Config) error {
	if !cfg.Log.Redact {
		logger.SetRedactor(nil)
		return nil
	}
	rc := redaction.DefaultConfig()
	rc.Secrets = []string{cfg.Discord.Token}
	r, err := redaction.NewRedactor(rc)
	if err != nil {
		return fmt.Errorf("failed to configure log redaction: %w", err)
	}
	logger.SetRedactor(r)
	return nil
}

// LoadRegistry builds the command registry declared by the manifest.
func LoadRegistry() (*command.Registry, error) {
	m, err := manifest.LoadFile(GetManifestPath())
	if err != nil {
		return nil, err
	}
	nodes, err := m.Nodes()
	if err != nil {
		return nil, err
	}
	reg := command.NewRegistry()
	if err := reg.Register(nodes...); err != nil {
		return nil, err
	}
	return reg, nil
}

// InitTracing starts the OTLP exporter when an endpoint is configured. The
// returned function flushes and stops it.
func InitTracing(ctx context.Context, cfg *config.Config) (func(), error) {
	if strings.TrimSpace(cfg.Tracing.Endpoint) == "" {
		return func() {}, nil
	}
	if err := tracing.Init(ctx, cfg.Tracing.ServiceName, cfg.Tracing.Endpoint); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	return func() {
		if err := tracing.Shutdown(context.Background()); err != nil {
			logger.WarnCF("tracing", "Failed to flush traces", map[string]any{"error": err.Error()})
		}
	}, nil
}

// FormatVersion returns the version string with optional git commit
func FormatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

// FormatBuildInfo returns build time and go version info
func FormatBuildInfo() (string, string) {
	build := buildTime
	goVer := goVersion
	if goVer == "" {
		goVer = runtime.Version()
	}
	return build, goVer
}
