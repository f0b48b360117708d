package data

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCorruptionSignature(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]any
		want   bool
	}{
		{"plain record", map[string]any{"id": 1, "name": "x"}, false},
		{"array-like", map[string]any{"0": "a", "1": "b"}, true},
		{"mixed", map[string]any{"id": 1, "12": "x"}, true},
		{"long numeric key", map[string]any{"1234": "x"}, false},
		{"negative", map[string]any{"-1": "x"}, true},
		{"empty", map[string]any{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hasCorruptionSignature(tt.fields))
		})
	}
}

func TestRepairDocumentKeepsOnlyWellFormedBorrowing(t *testing.T) {
	raw := `{
		"books": [],
		"borrowers": [],
		"librarians": [],
		"borrowings": [
			{"id": 1, "borrowerId": 2, "bookId": 3, "librarianId": 4, "borrowDate": "2025-01-01", "dueDate": "2025-01-15", "status": "borrowed"},
			{"0": "b", "1": "o", "2": "o"},
			{"id": "seven", "borrowerId": 2, "bookId": 3, "borrowDate": "2025-01-01", "dueDate": "2025-01-15", "status": "borrowed"},
			{"id": 8, "borrowerId": 2, "borrowDate": "2025-01-01", "dueDate": "2025-01-15", "status": "borrowed"},
			"not an object",
			42
		],
		"membershipApplications": []
	}`

	doc, report := RepairDocument([]byte(raw))
	require.Len(t, doc.Borrowings, 1)
	assert.Equal(t, int64(1), doc.Borrowings[0].ID)
	assert.Equal(t, 5, report.Dropped["borrowings"])
	assert.True(t, report.Dirty())
}

func TestRepairDocumentKeepsBareRecords(t *testing.T) {
	raw := `{"books": [{"id": 3}], "borrowers": [{"id": 2}], "librarians": [{"id": 1}], "membershipApplications": [{"id": 4}]}`

	doc, report := RepairDocument([]byte(raw))
	assert.False(t, report.Dirty())
	require.Len(t, doc.Books, 1)
	require.Len(t, doc.Borrowers, 1)
	require.Len(t, doc.Librarians, 1)
	require.Len(t, doc.MembershipApplications, 1)
	assert.Equal(t, int64(3), doc.Books[0].ID)
}

func TestRepairDocumentNonArrayCollection(t *testing.T) {
	raw := `{"books": {"0": {"id": 1, "title": "a"}, "1": {"id": 2, "title": "b"}}, "librarians": [{"id": 5, "name": "Ruth"}]}`

	doc, report := RepairDocument([]byte(raw))
	assert.Empty(t, doc.Books)
	assert.NotNil(t, doc.Books)
	assert.Equal(t, 2, report.Dropped["books"])
	require.Len(t, doc.Librarians, 1)
	assert.NotNil(t, doc.Borrowers)
	assert.NotNil(t, doc.MembershipApplications)
}

func TestRepairDocumentMalformed(t *testing.T) {
	doc, report := RepairDocument([]byte(`{"books": [`))
	assert.True(t, report.Malformed)
	assert.Equal(t, EmptyDocument(), doc)

	doc, report = RepairDocument(nil)
	assert.False(t, report.Dirty())
	assert.Equal(t, EmptyDocument(), doc)
}

func TestLoadRepersistsCleanedDocument(t *testing.T) {
	store, backend := newTestStore(t, RecoverReset)
	m := NewModels(store)
	putRaw(t, backend, DocumentKey, `{"books": [{"id": 1, "title": "Dune"}, {"0": "x"}, {"title": "no id"}]}`)

	books, err := m.Books.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 1)

	top := storedDocument(t, backend)
	var stored []map[string]any
	require.NoError(t, json.Unmarshal(top["books"], &stored))
	assert.Len(t, stored, 1)
	assert.JSONEq(t, `[]`, string(top["borrowings"]))
}

func TestStoreRepairReportsPerKey(t *testing.T) {
	store, backend := newTestStore(t, RecoverReset)
	putRaw(t, backend, DocumentKey, `{"borrowers": [{"id": 1, "name": "Ada", "category": "primary"}, {"id": 2, "7": "x"}]}`)
	putRaw(t, backend, FeedbackKey, `[{"id": 1, "message": "hi"}, {"id": 2, "message": 5}]`)
	putRaw(t, backend, ResearchKey, `[{"id": 1, "title": "ok"}]`)

	reports, err := store.Repair(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, reports[DocumentKey].Dropped["borrowers"])
	assert.Equal(t, 1, reports[FeedbackKey].Dropped["feedback"])
	assert.False(t, reports[ResearchKey].Dirty())

	raw, err := backend.Get(context.Background(), FeedbackKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id": 1, "type": "", "message": "hi", "createdAt": "0001-01-01T00:00:00Z"}]`, string(raw))
}

func TestCorruptedCollections(t *testing.T) {
	raw := `{
		"books": [{"id": 1, "title": "ok"}],
		"borrowers": {"0": {"id": 1}},
		"librarians": [{"id": 1, "name": "x"}, {"0": "r", "1": "u"}],
		"borrowings": []
	}`
	assert.Equal(t, []string{"borrowers", "librarians"}, CorruptedCollections([]byte(raw)))
	assert.Empty(t, CorruptedCollections([]byte(`{"books": [{"id": 1, "title": "ok"}]}`)))
}

const corruptedDocument = `{
	"books": [{"id": 1, "title": "Dune", "copies": 1, "coverImage": "", "createdAt": "2025-01-01T00:00:00Z"}],
	"borrowers": [],
	"librarians": [{"0": "R", "1": "u"}],
	"borrowings": [],
	"membershipApplications": []
}`

func TestAggressiveCleanupResetsWholeDocument(t *testing.T) {
	store, backend := newTestStore(t, RecoverReset)
	putRaw(t, backend, DocumentKey, corruptedDocument)

	result, err := store.AggressiveCleanup(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Reset)
	assert.Equal(t, []string{"librarians"}, result.Collections)

	raw, err := backend.Get(context.Background(), DocumentKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"books":[],"borrowers":[],"librarians":[],"borrowings":[],"membershipApplications":[]}`, string(raw))
}

func TestAggressiveCleanupIsolate(t *testing.T) {
	store, backend := newTestStore(t, RecoverIsolate)
	putRaw(t, backend, DocumentKey, corruptedDocument)

	result, err := store.AggressiveCleanup(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Reset)
	assert.Equal(t, []string{"librarians"}, result.Collections)

	top := storedDocument(t, backend)
	assert.JSONEq(t, `[]`, string(top["librarians"]))

	books, err := NewModels(store).Books.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)
}

func TestAggressiveCleanupSideKeysAndCleanData(t *testing.T) {
	store, backend := newTestStore(t, RecoverReset)
	putRaw(t, backend, DocumentKey, `{"books": [{"id": 1, "title": "Dune"}]}`)
	putRaw(t, backend, ResearchKey, `{"0": {"id": 1, "title": "x"}}`)

	result, err := store.AggressiveCleanup(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Reset)
	assert.Equal(t, []string{"researchPapers"}, result.Collections)

	raw, err := backend.Get(context.Background(), ResearchKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))

	raw, err = backend.Get(context.Background(), DocumentKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"books": [{"id": 1, "title": "Dune"}]}`, string(raw))
}

func TestParseRecoveryMode(t *testing.T) {
	mode, err := ParseRecoveryMode("")
	require.NoError(t, err)
	assert.Equal(t, RecoverReset, mode)

	mode, err = ParseRecoveryMode("isolate")
	require.NoError(t, err)
	assert.Equal(t, RecoverIsolate, mode)

	_, err = ParseRecoveryMode("wipe")
	assert.Error(t, err)
}
