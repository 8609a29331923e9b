package ailink

import (
	"strings"

	"github.com/trilingua/trilingua/internal/ailink/driver"
	"github.com/trilingua/trilingua/internal/ailink/prompt"
)

// responseFormatFor builds the response_format for a prompt. The schema itself
// travels in the system prompt; it is attached to the request only when the
// prompt sets attach_schema and the driver supports strict schemas.
func responseFormatFor(drv driver.Driver, def *prompt.Prompt) (*driver.ResponseFormat, error) {
	if def == nil {
		return nil, nil
	}
	format, err := def.Config.Format()
	if err != nil {
		return nil, err
	}
	if format == "" {
		return nil, nil
	}

	rf := &driver.ResponseFormat{Type: format}
	if format != prompt.FormatJSONSchema || !def.Config.AttachSchema() {
		return rf, nil
	}
	if drv == nil || !drv.Capabilities().SupportsJSONSchema {
		return rf, nil
	}

	name := strings.TrimSpace(def.Config.Slug)
	if name == "" {
		name = "trilingua_schema"
	}
	// OpenAI requires name to be alphanumeric/underscore.
	name = strings.NewReplacer("-", "_", ".", "_").Replace(name)
	rf.JSONSchema = &driver.JSONSchema{
		Name:   name,
		Strict: true,
		Schema: def.Config.ResponseSchema,
	}
	return rf, nil
}
