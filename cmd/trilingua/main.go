package main

import (
	"github.com/fulmenhq/gofulmen/foundry"

	"github.com/trilingua/trilingua/internal/cmd"
	"github.com/trilingua/trilingua/internal/server/handlers"
)

// Version information set via ldflags during build
// Example: go build -ldflags="-X main.version=1.0.0 -X main.commit=abc123 -X main.buildDate=2025-10-28"
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, buildDate)
	handlers.SetVersionInfo(version, commit, buildDate)

	if err := cmd.Execute(); err != nil {
		// Commands may have already logged specific errors.
		cmd.ExitWithCode(nil, foundry.ExitFailure, "Command execution failed", err)
	}
}
