package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/trilingua/trilingua/internal/ailink"
	"github.com/trilingua/trilingua/internal/ailink/prompt"
	"github.com/trilingua/trilingua/internal/config"
	errwrap "github.com/trilingua/trilingua/internal/errors"
	"github.com/trilingua/trilingua/internal/observability"
)

// doctorCheck is one diagnostic line. Warnings do not fail the run.
type doctorCheck struct {
	Name    string
	OK      bool
	Warning bool
	Detail  string
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks",
	Long: `Run diagnostic checks on the configuration, model catalog and prompts.
With --connectivity the provider's /models endpoint is probed with the API key.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		connectivity, _ := cmd.Flags().GetBool("connectivity")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		logger := observability.CLILogger
		logger.Info("=== " + binaryName + " doctor ===")

		checks := runDoctorChecks(cmd.Context(), appConfig, connectivity, timeout)
		failed := 0
		for i, check := range checks {
			line := fmt.Sprintf("[%d/%d] %s... %s", i+1, len(checks), check.Name, check.Detail)
			switch {
			case check.OK:
				logger.Info(line)
			case check.Warning:
				logger.Warn(line)
			default:
				failed++
				logger.Error(line)
			}
		}

		if failed > 0 {
			return errwrap.NewConfigInvalidError(fmt.Sprintf("%d diagnostic check(s) failed", failed))
		}
		logger.Info("All checks passed", zap.Int("checks", len(checks)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().Bool("connectivity", false, "Probe the model provider with the configured API key")
	doctorCmd.Flags().Duration("timeout", 10*time.Second, "Connectivity probe timeout")
}

func runDoctorChecks(ctx context.Context, cfg *config.Config, connectivity bool, timeout time.Duration) []doctorCheck {
	version := crucible.GetVersion()
	checks := []doctorCheck{
		{Name: "Go runtime", OK: true, Detail: fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)},
		{Name: "Gofulmen", OK: version.Gofulmen != "", Detail: "v" + version.Gofulmen},
	}

	if path := config.DefaultConfigPath(); path != "" {
		checks = append(checks, doctorCheck{Name: "Config directory", OK: true, Detail: filepath.Dir(path)})
	} else {
		checks = append(checks, doctorCheck{Name: "Config directory", Warning: true, Detail: "cannot resolve XDG config directory"})
	}

	if cfg == nil {
		return append(checks, doctorCheck{Name: "Configuration", Detail: "not loaded"})
	}

	registry, err := ailink.LoadModels(cfg.AILink.ModelsFile)
	if err != nil {
		checks = append(checks, doctorCheck{Name: "Model catalog", Warning: true,
			Detail: fmt.Sprintf("%d built-in models (%v)", registry.Len(), err)})
	} else {
		checks = append(checks, doctorCheck{Name: "Model catalog", OK: true,
			Detail: fmt.Sprintf("%d models from %s", registry.Len(), registry.Source())})
	}

	checks = append(checks, promptCheck(cfg.AILink.PromptsDir))

	if cfg.AILink.HasAPIKey() {
		checks = append(checks, doctorCheck{Name: "Provider API key", OK: true, Detail: "set"})
	} else {
		checks = append(checks, doctorCheck{Name: "Provider API key", Detail: "not set (ailink.api_key or API_KEY)"})
	}

	if cfg.Auth.SharedSecret == "" {
		checks = append(checks, doctorCheck{Name: "Shared secret", Warning: true, Detail: "not set; /api is open to any caller"})
	} else {
		checks = append(checks, doctorCheck{Name: "Shared secret", OK: true, Detail: "set"})
	}

	if connectivity {
		checks = append(checks, probeProvider(ctx, cfg.AILink.BaseURL, cfg.AILink.APIKey, timeout))
	}
	return checks
}

func promptCheck(overrideDir string) doctorCheck {
	check := doctorCheck{Name: "Prompts"}
	registry, err := prompt.LoadRegistry(overrideDir)
	if err == nil {
		err = registry.Require(ailink.PromptLookup, ailink.PromptAutocomplete, ailink.PromptSentence)
	}
	if err != nil {
		check.Detail = err.Error()
		return check
	}
	check.OK = true
	check.Detail = "lookup, autocomplete, sentence"
	if strings.TrimSpace(overrideDir) != "" {
		check.Detail += " (overrides from " + overrideDir + ")"
	}
	return check
}

// probeProvider calls GET {baseURL}/models with the bearer key.
func probeProvider(ctx context.Context, baseURL, apiKey string, timeout time.Duration) doctorCheck {
	check := doctorCheck{Name: "Provider connectivity"}
	if strings.TrimSpace(apiKey) == "" {
		check.Warning = true
		check.Detail = "skipped (no API key)"
		return check
	}

	modelsURL := strings.TrimRight(baseURL, "/") + "/models"
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, modelsURL, nil)
	if err != nil {
		check.Detail = err.Error()
		return check
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := (&http.Client{Timeout: timeout}).Do(req)
	if err != nil {
		check.Detail = err.Error()
		return check
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 32768))
	latency := time.Since(start).Milliseconds()

	switch {
	case resp.StatusCode == http.StatusOK:
		check.OK = true
		check.Detail = fmt.Sprintf("%s (%d ms)", modelsURL, latency)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		check.Detail = "credentials rejected: " + resp.Status
	case resp.StatusCode == http.StatusTooManyRequests:
		check.Warning = true
		check.Detail = "provider rate limited: " + resp.Status
	default:
		check.Detail = fmt.Sprintf("%s returned %s", modelsURL, resp.Status)
	}
	return check
}
