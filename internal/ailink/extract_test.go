package ailink

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractObject(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want map[string]any
	}{
		{"plain", `{"a":1}`, map[string]any{"a": float64(1)}},
		{"think preamble", `blah</think>{"a":1}`, map[string]any{"a": float64(1)}},
		{"harmony channel", `<|channel|>final<|message|>{"a":1}`, map[string]any{"a": float64(1)}},
		{"last think wins", `</think>{"a":0}</think>{"a":1}`, map[string]any{"a": float64(1)}},
		{"both markers", `x<|message|>{"a":0}</think>{"a":1}`, map[string]any{"a": float64(1)}},
		{"fenced", "```json\n{\"a\":1}\n```", map[string]any{"a": float64(1)}},
		{"fenced with prose", "Here you go:\n```\n{\"a\":1}\n```\nEnjoy {not json}", map[string]any{"a": float64(1)}},
		{"unclosed fence", "```json\n{\"a\":1}", map[string]any{"a": float64(1)}},
		{"surrounding prose", `Sure! {"word":"apple","n":[1,2]} hope that helps`, map[string]any{"word": "apple", "n": []any{float64(1), float64(2)}}},
		{"nested", `{"a":{"b":{"c":"}"}}}`, map[string]any{"a": map[string]any{"b": map[string]any{"c": "}"}}}},
		{"not json", "not json at all", map[string]any{}},
		{"empty", "", map[string]any{}},
		{"only open brace", "{", map[string]any{}},
		{"reversed braces", "} then {", map[string]any{}},
		{"two objects", `{"a":1} and {"b":2}`, map[string]any{}},
		{"array", `[1,2,3]`, map[string]any{}},
		{"fence hides object", "{\"a\":1}\n```\nnothing here\n```", map[string]any{}},
		{"invalid inside", `{"a":}`, map[string]any{}},
		{"unicode", `</think>{"targetWord":"予約する","detectedLanguage":"ja"}`, map[string]any{"targetWord": "予約する", "detectedLanguage": "ja"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractObject(tc.raw)
			require.NotNil(t, got)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestExtractObjectIsIdempotent(t *testing.T) {
	inputs := []string{
		`{"a":1}`,
		`blah</think>{"a":1}`,
		"```json\n{\"a\":{\"b\":[1,\"x\"]}}\n```",
		"not json at all",
		"",
	}
	for _, raw := range inputs {
		first := ExtractObject(raw)
		encoded, err := json.Marshal(first)
		require.NoError(t, err)

		second := ExtractObject(string(encoded))
		require.Equal(t, first, second, "input %q", raw)
	}
}

func TestExtractObjectEmptyEncodesAsObject(t *testing.T) {
	encoded, err := json.Marshal(ExtractObject("garbage"))
	require.NoError(t, err)
	require.Equal(t, "{}", string(encoded))
}
