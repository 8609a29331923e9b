package ailink

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trilingua/trilingua/internal/ailink/content"
	"github.com/trilingua/trilingua/internal/ailink/driver"
	"github.com/trilingua/trilingua/internal/ailink/prompt"
)

type recordingDriver struct {
	schema bool
	reply  string
	err    error
	req    *driver.Request
	ctxErr error
	hasDL  bool
}

func (d *recordingDriver) Complete(ctx context.Context, req *driver.Request) (*driver.Response, error) {
	d.req = req
	_, d.hasDL = ctx.Deadline()
	d.ctxErr = ctx.Err()
	if d.err != nil {
		return nil, d.err
	}
	return &driver.Response{
		Model:        req.Model,
		Content:      []content.ContentBlock{{Type: content.ContentTypeText, Text: d.reply}},
		FinishReason: "stop",
	}, nil
}

func (d *recordingDriver) Name() string { return "recording" }

func (d *recordingDriver) Capabilities() driver.Capabilities {
	return driver.Capabilities{SupportsJSONSchema: d.schema}
}

func newTestService(t *testing.T, drv driver.Driver) *Service {
	t.Helper()
	prompts, err := prompt.DefaultRegistry()
	require.NoError(t, err)
	return &Service{Driver: drv, Prompts: prompts}
}

func TestServiceLookupRequestShape(t *testing.T) {
	drv := &recordingDriver{reply: `{"targetWord":"apple"}`}
	svc := newTestService(t, drv)

	completion, err := svc.Complete(context.Background(), CompletionRequest{
		PromptSlug: PromptLookup,
		Model:      "openai/gpt-oss-120b",
		Variables: map[string]string{
			"query":              "aple",
			"preferred_language": "auto",
			"reference":          "りんご【林檎】",
		},
	})
	require.NoError(t, err)
	require.Equal(t, `{"targetWord":"apple"}`, completion.Text)
	require.Equal(t, PromptLookup, completion.PromptSlug)
	require.Empty(t, completion.Raw)

	req := drv.req
	require.NotNil(t, req)
	require.True(t, drv.hasDL)
	require.Equal(t, "openai/gpt-oss-120b", req.Model)
	require.Len(t, req.Messages, 2)
	require.Equal(t, content.RoleSystem, req.Messages[0].Role)
	require.Equal(t, content.RoleUser, req.Messages[1].Role)

	system := req.Messages[0].Content[0].Text
	require.Contains(t, system, "smart trilingual dictionary assistant")
	require.Contains(t, system, `"targetWord"`)
	require.Contains(t, system, "予約する")
	require.NotContains(t, system, "{{schema}}")
	require.NotContains(t, system, `<`)

	user := req.Messages[1].Content[0].Text
	require.True(t, strings.HasPrefix(user, `Analyze the query: "aple". User preferred language context: auto (If 'auto', detect.`))
	require.True(t, strings.HasSuffix(user, "Additionally, you can use the following content from dictionary about the word: りんご【林檎】"))

	require.NotNil(t, req.Temperature)
	require.InDelta(t, 0.1, *req.Temperature, 1e-9)
	require.Nil(t, req.MaxTokens)
	require.Equal(t, &driver.ResponseFormat{Type: "json_schema"}, req.ResponseFormat)
}

func TestServiceLookupOmitsEmptyReference(t *testing.T) {
	drv := &recordingDriver{reply: "{}"}
	svc := newTestService(t, drv)

	_, err := svc.Complete(context.Background(), CompletionRequest{
		PromptSlug: PromptLookup,
		Model:      "m",
		Variables:  map[string]string{"query": "apple", "preferred_language": "en", "reference": ""},
	})
	require.NoError(t, err)

	user := drv.req.Messages[1].Content[0].Text
	require.NotContains(t, user, "Additionally")
	require.True(t, strings.HasSuffix(user, "bias interpretation towards this language)."))
}

func TestServiceAutocompleteRequestShape(t *testing.T) {
	drv := &recordingDriver{reply: "中国\n中国語"}
	svc := newTestService(t, drv)

	completion, err := svc.Complete(context.Background(), CompletionRequest{
		PromptSlug: PromptAutocomplete,
		Model:      "m",
		Variables:  map[string]string{"partial_input": "zhonggu"},
	})
	require.NoError(t, err)
	require.Equal(t, "中国\n中国語", completion.Text)

	req := drv.req
	require.Equal(t, "zhonggu", req.Messages[1].Content[0].Text)
	require.NotNil(t, req.Temperature)
	require.Equal(t, 0.0, *req.Temperature)
	require.NotNil(t, req.MaxTokens)
	require.Equal(t, 32, *req.MaxTokens)
	require.Nil(t, req.ResponseFormat)
}

func TestServiceSentenceRequestShape(t *testing.T) {
	drv := &recordingDriver{reply: "{}"}
	svc := newTestService(t, drv)

	_, err := svc.Complete(context.Background(), CompletionRequest{
		PromptSlug: PromptSentence,
		Model:      "m",
		Variables:  map[string]string{"words": `["apple","猫"]`},
	})
	require.NoError(t, err)

	req := drv.req
	require.Equal(t, `Input Words: ["apple","猫"]`, req.Messages[1].Content[0].Text)
	require.Nil(t, req.Temperature)
	require.Contains(t, req.Messages[0].Content[0].Text, `"usedWords"`)
}

func TestServiceRequiresVariables(t *testing.T) {
	drv := &recordingDriver{reply: "{}"}
	svc := newTestService(t, drv)

	_, err := svc.Complete(context.Background(), CompletionRequest{
		PromptSlug: PromptLookup,
		Model:      "m",
		Variables:  map[string]string{"query": "apple"},
	})
	require.ErrorContains(t, err, "preferred_language")
	require.Nil(t, drv.req)

	_, err = svc.Complete(context.Background(), CompletionRequest{PromptSlug: PromptAutocomplete, Variables: map[string]string{"partial_input": "x"}})
	require.ErrorContains(t, err, "model is required")

	_, err = svc.Complete(context.Background(), CompletionRequest{PromptSlug: "missing", Model: "m"})
	require.Error(t, err)
}

func TestServiceMapsProviderErrors(t *testing.T) {
	drv := &recordingDriver{err: &driver.ProviderError{Provider: "openai", StatusCode: 401, Message: "bad key"}}
	svc := newTestService(t, drv)

	_, err := svc.Complete(context.Background(), CompletionRequest{
		PromptSlug: PromptAutocomplete,
		Model:      "m",
		Variables:  map[string]string{"partial_input": "x"},
	})
	var aerr *Error
	require.True(t, errors.As(err, &aerr))
	require.Equal(t, CodeProviderAuth, aerr.Code)
}

func TestServiceCapturesRaw(t *testing.T) {
	drv := &recordingDriver{reply: "</think>{}"}
	svc := newTestService(t, drv)
	svc.Config.Debug = DebugConfig{CaptureRawEnabled: true, CaptureRawMaxBytes: 4}

	completion, err := svc.Complete(context.Background(), CompletionRequest{
		PromptSlug: PromptAutocomplete,
		Model:      "m",
		Variables:  map[string]string{"partial_input": "x"},
	})
	require.NoError(t, err)
	require.Equal(t, "</th", completion.Raw)
	require.Equal(t, "</think>{}", completion.Text)
}

func TestEffectiveTimeout(t *testing.T) {
	require.Equal(t, defaultTimeout, effectiveTimeout(0))
	require.Equal(t, 5*time.Second, effectiveTimeout(5*time.Second))
	require.Equal(t, maxTimeout, effectiveTimeout(time.Hour))
}

func TestNewServiceLoadsPrompts(t *testing.T) {
	svc, err := NewService(Config{APIKey: "k", DefaultTimeout: 2 * time.Second}, nil)
	require.NoError(t, err)
	require.Equal(t, "openai", svc.Driver.Name())
	require.NoError(t, svc.Prompts.Require(PromptLookup, PromptAutocomplete, PromptSentence))

	_, err = NewService(Config{PromptsDir: t.TempDir() + "/missing"}, nil)
	require.Error(t, err)
}

func TestRenderPromptDoesNotExpandValues(t *testing.T) {
	def := &prompt.Prompt{Config: prompt.Config{
		Slug:           "t",
		SystemTemplate: "sys {{a}}",
		UserTemplate:   "{{#if b}}B={{b}}{{else}}no b{{/if}} {{a}}",
	}}
	system, user, err := renderPrompt(def, map[string]string{"a": "{{b}}", "b": "x"})
	require.NoError(t, err)
	require.Equal(t, "sys {{b}}", system)
	require.Equal(t, "B=x {{b}}", user)

	_, user, err = renderPrompt(def, map[string]string{"a": "1"})
	require.NoError(t, err)
	require.Equal(t, "no b 1", user)
}
