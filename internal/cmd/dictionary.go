package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trilingua/trilingua/internal/core/dictionary"
	errwrap "github.com/trilingua/trilingua/internal/errors"
	"github.com/trilingua/trilingua/internal/observability"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <query>",
	Short: "Look up a word and print the dictionary entry",
	Long: `Run one dictionary lookup through the same service the server uses and
print the entry as JSON. Useful for prompt and model debugging.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLookup,
}

var suggestCmd = &cobra.Command{
	Use:   "suggest <partial>",
	Short: "Print autocomplete suggestions for partial input",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSuggest,
}

var sentenceCmd = &cobra.Command{
	Use:   "sentence <word> <word>...",
	Short: "Generate an example sentence using the given words",
	Args:  cobra.MinimumNArgs(dictionary.MinSentenceWords),
	RunE:  runSentence,
}

func init() {
	for _, c := range []*cobra.Command{lookupCmd, suggestCmd, sentenceCmd} {
		rootCmd.AddCommand(c)
		c.Flags().String("model", "", "Model id (defaults to the first catalog entry)")
	}
	lookupCmd.Flags().String("lang", "", "Preferred definition language: zh, en, ja (default auto)")
	sentenceCmd.Flags().String("lang", "", "Tag every word with this language")
}

// newOneShotService builds the dictionary service for a single CLI request.
func newOneShotService(cmd *cobra.Command) (*app, string, error) {
	if !appConfig.AILink.HasAPIKey() {
		return nil, "", errwrap.NewConfigInvalidError("ailink.api_key (or API_KEY) is not set")
	}

	application, err := buildApp(appConfig, observability.CLILogger)
	if err != nil {
		return nil, "", err
	}

	model, _ := cmd.Flags().GetString("model")
	model = strings.TrimSpace(model)
	if model == "" {
		if list := application.models.List(); len(list) > 0 {
			model = list[0].ID
		}
	}
	return application, model, nil
}

func runLookup(cmd *cobra.Command, args []string) error {
	application, model, err := newOneShotService(cmd)
	if err != nil {
		return err
	}
	lang, _ := cmd.Flags().GetString("lang")

	entry, err := application.dictionary.Lookup(cmd.Context(), dictionary.LookupRequest{
		Query:             strings.Join(args, " "),
		Model:             model,
		PreferredLanguage: lang,
	})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), entry)
}

func runSuggest(cmd *cobra.Command, args []string) error {
	application, model, err := newOneShotService(cmd)
	if err != nil {
		return err
	}

	suggestions, err := application.dictionary.Autocomplete(cmd.Context(), dictionary.AutocompleteRequest{
		PartialInput: strings.Join(args, " "),
		Model:        model,
	})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), suggestions)
}

func runSentence(cmd *cobra.Command, args []string) error {
	application, model, err := newOneShotService(cmd)
	if err != nil {
		return err
	}
	lang, _ := cmd.Flags().GetString("lang")

	words, err := sentenceWords(args, lang)
	if err != nil {
		return err
	}

	entry, err := application.dictionary.Sentence(cmd.Context(), dictionary.SentenceRequest{
		Words: words,
		Model: model,
	})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), entry)
}

// sentenceWords encodes CLI arguments the way the web client sends them:
// plain strings, or {word, lang} objects when a language is given.
func sentenceWords(args []string, lang string) ([]json.RawMessage, error) {
	lang = strings.TrimSpace(lang)
	words := make([]json.RawMessage, 0, len(args))
	for _, arg := range args {
		var value interface{} = arg
		if lang != "" {
			value = map[string]string{"word": arg, "lang": lang}
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encode word %q: %w", arg, err)
		}
		words = append(words, raw)
	}
	return words, nil
}

func printJSON(w io.Writer, value interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(value)
}
