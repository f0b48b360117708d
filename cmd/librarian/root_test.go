package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// run executes the CLI against a file backend rooted in dir.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LIBRARY_CONFIG", "")
	color.NoColor = true

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--backend", "file", "--path", dir}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestCallCommand(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "call", "POST", "/api/books", "--data", `{"title": "Dune"}`)
	require.NoError(t, err)
	var created map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Equal(t, "Dune", created["title"])

	_, err = os.Stat(filepath.Join(dir, "library_data.json"))
	require.NoError(t, err)

	out, err = run(t, dir, "call", "GET", "/api/books")
	require.NoError(t, err)
	var books []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &books))
	assert.Len(t, books, 1)

	out, err = run(t, dir, "call", "GET", "/api/nowhere")
	require.NoError(t, err)
	assert.Contains(t, out, "no handler for GET /api/nowhere")

	_, err = run(t, dir, "call", "POST", "/api/books", "--data", `{not json`)
	assert.Error(t, err)
}

func TestCleanupCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "library_data.json"),
		[]byte(`{"books": [{"id": 1, "title": "Dune"}], "librarians": {"0": "x", "1": "y"}}`), 0o644))

	out, err := run(t, dir, "cleanup", "--recovery", "isolate")
	require.NoError(t, err)
	assert.Contains(t, out, "corrupted: librarians")

	raw, err := os.ReadFile(filepath.Join(dir, "library_data.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Dune")

	out, err = run(t, dir, "cleanup")
	require.NoError(t, err)
	assert.Contains(t, out, "No corrupted collections found")
}

func TestRepairCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "library_data.json"),
		[]byte(`{"books": [{"id": 1, "title": "Dune"}, {"title": "no id"}]}`), 0o644))

	out, err := run(t, dir, "repair")
	require.NoError(t, err)
	assert.Contains(t, out, "library_data: dropped 1 invalid books")

	out, err = run(t, dir, "repair")
	require.NoError(t, err)
	assert.Contains(t, out, "No invalid records found")
}

func TestOverdueCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "library_data.json"), []byte(`{
		"borrowings": [
			{"id": 1, "borrowerId": 2, "librarianId": 3, "bookId": 4, "borrowDate": "2025-01-01", "dueDate": "2025-01-10", "status": "borrowed"}
		]
	}`), 0o644))

	out, err := run(t, dir, "overdue", "--as-of", "2025-01-05")
	require.NoError(t, err)
	assert.Contains(t, out, "0 borrowing(s) marked overdue")

	out, err = run(t, dir, "overdue", "--as-of", "2025-02-01")
	require.NoError(t, err)
	assert.Contains(t, out, "1 borrowing(s) marked overdue")

	_, err = run(t, dir, "overdue", "--as-of", "yesterday")
	assert.Error(t, err)
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "call", "POST", "/api/feedback", "--data", `{"message": "Great place"}`)
	require.NoError(t, err)

	out, err := run(t, dir, "export")
	require.NoError(t, err)
	var snap map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Contains(t, snap, "books")
	assert.Len(t, snap["feedback"], 1)

	target := filepath.Join(dir, "backup", "library.yml")
	_, err = run(t, dir, "export", "--format", "yaml", "--output", target)
	require.NoError(t, err)
	raw, err := os.ReadFile(target)
	require.NoError(t, err)
	var fromYAML map[string]any
	require.NoError(t, yaml.Unmarshal(raw, &fromYAML))
	assert.Contains(t, fromYAML, "membershipApplications")
	assert.Contains(t, fromYAML, "researchPapers")

	_, err = run(t, dir, "export", "--format", "csv")
	assert.Error(t, err)
}

func TestConfigCommand(t *testing.T) {
	out, err := run(t, t.TempDir(), "config")
	require.NoError(t, err)
	assert.Contains(t, out, "backend: file")
}
