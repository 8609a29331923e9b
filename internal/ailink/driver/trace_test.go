package driver

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readTrace(t *testing.T, path string) []TraceEntry {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close() // nolint:errcheck // test cleanup

	var entries []TraceEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry TraceEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}
	require.NoError(t, scanner.Err())
	return entries
}

func TestEntryForCarriesPromptAndModel(t *testing.T) {
	entry := EntryFor("openai", &Request{Model: "m-1", PromptSlug: "sentence"})
	assert.Equal(t, "openai", entry.Driver)
	assert.Equal(t, "m-1", entry.Model)
	assert.Equal(t, "sentence", entry.PromptSlug)

	empty := EntryFor("openai", nil)
	assert.Empty(t, empty.Model)
	assert.Empty(t, empty.PromptSlug)
}

func TestTraceWritesNDJSONUntilCleanup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.ndjson")
	cleanup, err := EnableTracing(path)
	require.NoError(t, err)

	first := EntryFor("openai", &Request{Model: "m-1", PromptSlug: "lookup"})
	first.StatusCode = 200
	Trace(first)
	second := EntryFor("openai", &Request{Model: "m-2", PromptSlug: "autocomplete"})
	second.Error = "timeout"
	Trace(second)

	cleanup()
	Trace(EntryFor("openai", &Request{Model: "dropped"}))

	entries := readTrace(t, path)
	require.Len(t, entries, 2)
	assert.Equal(t, "lookup", entries[0].PromptSlug)
	assert.Equal(t, 200, entries[0].StatusCode)
	assert.False(t, entries[0].Timestamp.IsZero())
	assert.Equal(t, "autocomplete", entries[1].PromptSlug)
	assert.Equal(t, "m-2", entries[1].Model)
	assert.Equal(t, "timeout", entries[1].Error)
}

func TestEnableTracingReplacesPreviousFile(t *testing.T) {
	dir := t.TempDir()
	firstPath := filepath.Join(dir, "a.ndjson")
	secondPath := filepath.Join(dir, "b.ndjson")

	staleCleanup, err := EnableTracing(firstPath)
	require.NoError(t, err)
	cleanup, err := EnableTracing(secondPath)
	require.NoError(t, err)
	defer cleanup()

	// The replaced tracer's cleanup must not disable the new one.
	staleCleanup()
	Trace(EntryFor("openai", &Request{Model: "m", PromptSlug: "lookup"}))

	assert.Empty(t, readTrace(t, firstPath))
	require.Len(t, readTrace(t, secondPath), 1)
}
