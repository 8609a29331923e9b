package ailink

import "strings"

func truncateBytes(input []byte, max int) []byte {
	if max <= 0 {
		return nil
	}
	if len(input) <= max {
		return input
	}
	out := make([]byte, 0, max)
	out = append(out, input[:max]...)
	return out
}

// captureRaw returns the raw model text to attach to a completion, or "" when
// capture is disabled. A zero byte limit keeps the whole payload.
func captureRaw(cfg Config, raw string) string {
	if !cfg.Debug.CaptureRawEnabled {
		return ""
	}
	if cfg.Debug.CaptureRawMaxBytes <= 0 {
		return raw
	}
	return string(truncateBytes([]byte(raw), cfg.Debug.CaptureRawMaxBytes))
}

func safeOneLine(s string) string {
	return strings.TrimSpace(strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s))
}
