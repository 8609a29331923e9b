package ailink

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func TestLoadModelsDefaultsWithoutPath(t *testing.T) {
	reg, err := LoadModels("")
	require.NoError(t, err)
	require.Equal(t, ModelSourceDefaults, reg.Source())
	require.Equal(t, 7, reg.Len())
	require.True(t, reg.Supports("openai/gpt-oss-120b"))
	require.Equal(t, "openai/gpt-oss-120b", reg.List()[0].ID)

	name, ok := reg.DisplayName("deepseek-ai/DeepSeek-V3")
	require.True(t, ok)
	require.Equal(t, "DeepSeek V3 (FP8)", name)
}

func TestLoadModelsFromJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{"THEME":"dark","MODELS":[{"id":"b/model","name":"B"},{"id":"a/model","name":"A"}]}`)

	reg, err := LoadModels(path)
	require.NoError(t, err)
	require.Equal(t, ModelSourceFile, reg.Source())
	require.Equal(t, path, reg.Path())
	require.Equal(t, []Model{{ID: "b/model", Name: "B"}, {ID: "a/model", Name: "A"}}, reg.List())
	require.False(t, reg.Supports("openai/gpt-oss-120b"))
}

func TestLoadModelsFromYAML(t *testing.T) {
	path := writeFile(t, "models.yaml", "MODELS:\n  - id: x/y\n    name: XY\n")

	reg, err := LoadModels(path)
	require.NoError(t, err)
	require.True(t, reg.Supports("x/y"))
}

func TestLoadModelsFallsBack(t *testing.T) {
	cases := map[string]string{
		"malformed":     `{"MODELS": [`,
		"missing key":   `{"OTHER": []}`,
		"not a list":    `{"MODELS": {"id": "x"}}`,
		"empty list":    `{"MODELS": []}`,
		"missing id":    `{"MODELS": [{"name": "x"}]}`,
		"missing name":  `{"MODELS": [{"id": "x"}]}`,
		"top level arr": `[{"id":"x","name":"y"}]`,
		"empty file":    ``,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			reg, err := LoadModels(writeFile(t, "config.json", data))
			require.Error(t, err)
			require.NotNil(t, reg)
			require.Equal(t, ModelSourceDefaults, reg.Source())
			require.Equal(t, len(DefaultModels()), reg.Len())
		})
	}

	reg, err := LoadModels(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	require.Equal(t, ModelSourceDefaults, reg.Source())
}

func TestNewModelRegistryDuplicates(t *testing.T) {
	reg := NewModelRegistry([]Model{{ID: "a", Name: "first"}, {ID: "b", Name: "B"}, {ID: "a", Name: "second"}})
	require.Equal(t, []Model{{ID: "a", Name: "second"}, {ID: "b", Name: "B"}}, reg.List())
}

func TestModelRegistryListIsCopy(t *testing.T) {
	reg := NewModelRegistry(DefaultModels())
	list := reg.List()
	list[0].Name = "mutated"
	require.NotEqual(t, "mutated", reg.List()[0].Name)
}
