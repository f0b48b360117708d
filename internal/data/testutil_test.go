package data

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aoideee/libraryhub/internal/storage"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

// newTestStore returns a Store over a fresh memory backend with a fixed
// clock and sequential ids.
func newTestStore(t *testing.T, mode RecoveryMode) (*Store, *storage.Memory) {
	t.Helper()
	backend := storage.NewMemory()
	var next int64
	store := NewStore(backend, Options{
		Recovery: mode,
		Now:      func() time.Time { return testNow },
		NewID: func() int64 {
			next++
			return next
		},
	})
	return store, backend
}

func putRaw(t *testing.T, backend storage.Backend, key, raw string) {
	t.Helper()
	require.NoError(t, backend.Put(context.Background(), key, []byte(raw)))
}

func storedDocument(t *testing.T, backend storage.Backend) map[string]json.RawMessage {
	t.Helper()
	raw, err := backend.Get(context.Background(), DocumentKey)
	require.NoError(t, err)
	var top map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &top))
	return top
}

func ptr[T any](v T) *T { return &v }

func seedLibrarian(t *testing.T, m Models) *Librarian {
	t.Helper()
	l := &Librarian{Name: "Ruth Chen"}
	require.NoError(t, m.Librarians.Insert(context.Background(), l))
	return l
}

func seedBorrower(t *testing.T, m Models, name, category string) *Borrower {
	t.Helper()
	b := &Borrower{Name: name, Category: category}
	require.NoError(t, m.Borrowers.Insert(context.Background(), b))
	return b
}

func seedBook(t *testing.T, m Models, title string) *Book {
	t.Helper()
	b := &Book{Title: title}
	require.NoError(t, m.Books.Insert(context.Background(), b))
	return b
}
