package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"

	"github.com/trilingua/trilingua/internal/config"
	"github.com/trilingua/trilingua/internal/observability"
)

var envInfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Display environment information",
	Long:  "Display version, runtime and effective configuration. Secrets are reported as set or not set.",
	Run: func(cmd *cobra.Command, args []string) {
		logger := observability.CLILogger
		for _, line := range envInfoLines(appConfig) {
			logger.Info(line)
		}
	},
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
}

func envInfoLines(cfg *config.Config) []string {
	version := crucible.GetVersion()
	lines := []string{
		"Application:",
		"  Name:       " + binaryName,
		"  Version:    " + versionInfo.Version,
		"  Commit:     " + versionInfo.Commit,
		"  Built:      " + versionInfo.BuildDate,
		"",
		"SSOT:",
		"  Gofulmen:   " + version.Gofulmen,
		"  Crucible:   " + version.Crucible,
		"",
		"Runtime:",
		"  Go Version: " + runtime.Version(),
		"  GOOS:       " + runtime.GOOS,
		"  GOARCH:     " + runtime.GOARCH,
		fmt.Sprintf("  NumCPU:     %d", runtime.NumCPU()),
	}
	if cfg == nil {
		return lines
	}

	origins := "*"
	if len(cfg.CORS.AllowedOrigins) > 0 {
		origins = strings.Join(cfg.CORS.AllowedOrigins, ", ")
	}
	return append(lines,
		"",
		"Configuration:",
		fmt.Sprintf("  Server:           %s:%d", cfg.Server.Host, cfg.Server.Port),
		"  Log Level:        "+cfg.Logging.Level,
		fmt.Sprintf("  Metrics:          %t (port %d)", cfg.Metrics.Enabled, cfg.Metrics.Port),
		"  Config File:      "+config.DefaultConfigPath(),
		"  CORS Origins:     "+origins,
		"  Freshness Window: "+cfg.Freshness.Window.String(),
		"  Shared Secret:    "+setOrNot(cfg.Auth.SharedSecret),
		"",
		"AILink:",
		"  Base URL:         "+cfg.AILink.BaseURL,
		"  API Key:          "+setOrNot(cfg.AILink.APIKey),
		"  Timeout:          "+cfg.AILink.DefaultTimeout.String(),
		"  Models File:      "+cfg.AILink.ModelsFile,
		"",
		"Admission:",
		fmt.Sprintf("  Rate Limit:       %g/min", cfg.Admission.RateLimit),
		fmt.Sprintf("  Autocomplete:     x%g", cfg.Admission.AutocompleteMultiplier),
		"",
		"Reference:",
		fmt.Sprintf("  Enabled:          %t", cfg.Reference.Enabled),
		"  Base URL:         "+cfg.Reference.BaseURL,
		"  Timeout:          "+cfg.Reference.Timeout.String(),
	)
}

func setOrNot(value string) string {
	if strings.TrimSpace(value) == "" {
		return "(not set)"
	}
	return "(set)"
}
