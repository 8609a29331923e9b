package ailink

import (
	"encoding/json"
	"strings"
)

// reasoningMarkers end a model's private reasoning or role preamble. Only text
// after the last occurrence of each marker is kept.
var reasoningMarkers = []string{"</think>", "<|message|>"}

const codeFence = "```"

// ExtractObject recovers a single JSON object from loosely formatted model text.
//
// The steps run in order: strip reasoning preambles, keep the body of the first
// fenced block, take the widest {...} span, then decode. Any text that does not
// yield a JSON object produces an empty, non-nil map. It never fails.
func ExtractObject(raw string) map[string]any {
	text := stripReasoning(raw)
	text = unfence(text)
	span := objectSpan(text)

	var decoded map[string]any
	if err := json.Unmarshal([]byte(span), &decoded); err != nil || decoded == nil {
		return map[string]any{}
	}
	return decoded
}

func stripReasoning(text string) string {
	for _, marker := range reasoningMarkers {
		if idx := strings.LastIndex(text, marker); idx >= 0 {
			text = text[idx+len(marker):]
		}
	}
	return text
}

// unfence returns the segment between the first and second fence. An unclosed
// fence yields everything after it.
func unfence(text string) string {
	if !strings.Contains(text, codeFence) {
		return text
	}
	return strings.Split(text, codeFence)[1]
}

func objectSpan(text string) string {
	start := strings.Index(text, "{")
	if start < 0 {
		return "{}"
	}
	end := strings.LastIndex(text, "}")
	if end < start {
		return "{}"
	}
	return text[start : end+1]
}
