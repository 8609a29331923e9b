package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/trilingua/trilingua/internal/ailink"
	"github.com/trilingua/trilingua/internal/observability"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the selectable models",
	Long:  "List the models clients may request, read from ailink.models_file or the built-in defaults.",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := ailink.LoadModels(appConfig.AILink.ModelsFile)
		if err != nil {
			observability.CLILogger.Debug("Model file unusable; listing defaults")
		}

		format, _ := cmd.Flags().GetString("output")
		switch format {
		case "json":
			return writeModelsJSON(cmd.OutOrStdout(), registry)
		case "table", "":
			return writeModelsTable(cmd.OutOrStdout(), registry)
		default:
			return fmt.Errorf("unknown output format %q (want table or json)", format)
		}
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.Flags().String("output", "table", "Output format: table, json")
}

func writeModelsTable(w io.Writer, registry *ailink.ModelRegistry) error {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"ID", "Name"})
	for _, m := range registry.List() {
		t.AppendRow(table.Row{m.ID, m.Name})
	}

	source := string(registry.Source())
	if path := registry.Path(); path != "" {
		source += " (" + path + ")"
	}
	t.SetCaption("source: %s", source)

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func writeModelsJSON(w io.Writer, registry *ailink.ModelRegistry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(registry.List())
}
