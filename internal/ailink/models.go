package ailink

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Model is a selectable chat model.
type Model struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// ModelSource describes where a registry came from.
type ModelSource string

const (
	ModelSourceDefaults ModelSource = "defaults"
	ModelSourceFile     ModelSource = "file"
)

var defaultModels = []Model{
	{ID: "openai/gpt-oss-120b", Name: "GPT OSS 120B"},
	{ID: "openai/gpt-oss-20b", Name: "GPT OSS 20B"},
	{ID: "meta-llama/Llama-3.3-70B-Instruct", Name: "Llama3.3 70B (FP8)"},
	{ID: "Qwen/Qwen3-Next-80B-A3B-Instruct", Name: "Qwen3 Next 80BA3B Instruct"},
	{ID: "Qwen/Qwen3-Next-80B-A3B-Thinking", Name: "Qwen3 Next 80BA3B Thinking"},
	{ID: "Qwen/Qwen3-235B-A22B", Name: "Qwen3 235B A22B (FP8)"},
	{ID: "deepseek-ai/DeepSeek-V3", Name: "DeepSeek V3 (FP8)"},
}

// ModelRegistry is an immutable, ordered id -> display name catalog.
type ModelRegistry struct {
	models []Model
	byID   map[string]string
	source ModelSource
	path   string
}

// DefaultModels returns a copy of the built-in catalog.
func DefaultModels() []Model {
	out := make([]Model, len(defaultModels))
	copy(out, defaultModels)
	return out
}

// NewModelRegistry builds a registry from models. Later duplicates replace the
// display name but keep the first position.
func NewModelRegistry(models []Model) *ModelRegistry {
	reg := &ModelRegistry{byID: make(map[string]string, len(models)), source: ModelSourceDefaults}
	for _, m := range models {
		if _, seen := reg.byID[m.ID]; !seen {
			reg.models = append(reg.models, m)
		} else {
			for i := range reg.models {
				if reg.models[i].ID == m.ID {
					reg.models[i].Name = m.Name
				}
			}
		}
		reg.byID[m.ID] = m.Name
	}
	return reg
}

// LoadModels reads the catalog at path. The returned registry is always usable:
// when the file is missing or unreadable, or its MODELS list is absent, empty
// or malformed, the built-in defaults are returned with an error saying why.
func LoadModels(path string) (*ModelRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return NewModelRegistry(defaultModels), nil
	}

	data, err := os.ReadFile(path) // #nosec G304 -- models path is operator-provided
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewModelRegistry(defaultModels), fmt.Errorf("models file %s not found: %w", path, err)
		}
		return NewModelRegistry(defaultModels), fmt.Errorf("read models file %s: %w", path, err)
	}

	models, err := parseModels(data)
	if err != nil {
		return NewModelRegistry(defaultModels), fmt.Errorf("parse models file %s: %w", path, err)
	}

	reg := NewModelRegistry(models)
	reg.source = ModelSourceFile
	reg.path = path
	return reg, nil
}

func parseModels(data []byte) ([]Model, error) {
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	node, ok := doc["MODELS"]
	if !ok {
		return nil, errors.New("MODELS list missing")
	}
	if node.Kind != yaml.SequenceNode {
		return nil, errors.New("MODELS must be a list")
	}

	var models []Model
	if err := node.Decode(&models); err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, errors.New("MODELS list is empty")
	}
	for i, m := range models {
		if strings.TrimSpace(m.ID) == "" {
			return nil, fmt.Errorf("MODELS[%d] missing id", i)
		}
		if strings.TrimSpace(m.Name) == "" {
			return nil, fmt.Errorf("MODELS[%d] missing name", i)
		}
	}
	return models, nil
}

// Supports reports whether id is a registered model.
func (r *ModelRegistry) Supports(id string) bool {
	if r == nil {
		return false
	}
	_, ok := r.byID[id]
	return ok
}

// DisplayName returns the display name for id.
func (r *ModelRegistry) DisplayName(id string) (string, bool) {
	if r == nil {
		return "", false
	}
	name, ok := r.byID[id]
	return name, ok
}

// List returns the models in catalog order.
func (r *ModelRegistry) List() []Model {
	if r == nil {
		return nil
	}
	out := make([]Model, len(r.models))
	copy(out, r.models)
	return out
}

// Len returns the number of registered models.
func (r *ModelRegistry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.models)
}

// Source reports whether the registry came from a file or the defaults.
func (r *ModelRegistry) Source() ModelSource {
	if r == nil {
		return ModelSourceDefaults
	}
	return r.source
}

// Path returns the file the registry was loaded from, if any.
func (r *ModelRegistry) Path() string {
	if r == nil {
		return ""
	}
	return r.path
}
