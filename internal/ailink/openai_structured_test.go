package ailink

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trilingua/trilingua/internal/ailink/driver"
	"github.com/trilingua/trilingua/internal/ailink/prompt"
)

func TestResponseFormatForPlainJSONSchema(t *testing.T) {
	def := &prompt.Prompt{Config: prompt.Config{
		Slug:           "lookup",
		ResponseSchema: map[string]any{"type": "object"},
		ResponseOpts:   map[string]any{"format": "json_schema"},
	}}
	rf, err := responseFormatFor(&recordingDriver{schema: true}, def)
	require.NoError(t, err)
	require.Equal(t, &driver.ResponseFormat{Type: "json_schema"}, rf)
}

func TestResponseFormatForAttachesSchema(t *testing.T) {
	def := &prompt.Prompt{Config: prompt.Config{
		Slug:           "word-lookup.v2",
		ResponseSchema: map[string]any{"type": "object"},
		ResponseOpts:   map[string]any{"format": "json_schema", "attach_schema": true},
	}}

	rf, err := responseFormatFor(&recordingDriver{schema: true}, def)
	require.NoError(t, err)
	require.NotNil(t, rf.JSONSchema)
	require.Equal(t, "word_lookup_v2", rf.JSONSchema.Name)
	require.True(t, rf.JSONSchema.Strict)

	rf, err = responseFormatFor(&recordingDriver{schema: false}, def)
	require.NoError(t, err)
	require.Nil(t, rf.JSONSchema)
}

func TestResponseFormatForNone(t *testing.T) {
	rf, err := responseFormatFor(&recordingDriver{}, &prompt.Prompt{Config: prompt.Config{Slug: "autocomplete"}})
	require.NoError(t, err)
	require.Nil(t, rf)

	_, err = responseFormatFor(&recordingDriver{}, &prompt.Prompt{Config: prompt.Config{Slug: "x", ResponseOpts: map[string]any{"format": "yaml"}}})
	require.Error(t, err)
}
