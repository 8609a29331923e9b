package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/trilingua/trilingua/internal/ailink"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract a JSON object from model output on stdin",
	Long: `Read raw model output from stdin and print the JSON object the server would
recover from it. Reasoning preambles and code fences are removed first; text
without an object prints {}.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		suggestions, _ := cmd.Flags().GetBool("suggestions")
		return runExtract(cmd.InOrStdin(), cmd.OutOrStdout(), suggestions)
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().Bool("suggestions", false, "Parse the input as an autocomplete list instead")
}

func runExtract(in io.Reader, out io.Writer, suggestions bool) error {
	raw, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	if suggestions {
		return printJSON(out, map[string][]string{"suggestions": ailink.ParseSuggestions(string(raw))})
	}
	return printJSON(out, ailink.ExtractObject(string(raw)))
}
