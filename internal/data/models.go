// internal/data/models.go
package data

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Models is a top-level container that groups all record stores together.
// It is passed around the application so every handler (HTTP or dispatcher)
// goes through the same business rules.
type Models struct {
	Books       BookModel
	Borrowers   BorrowerModel
	Librarians  LibrarianModel
	Borrowings  BorrowingModel
	Feedback    FeedbackModel
	Research    ResearchModel
	Memberships MembershipModel
	Dashboard   DashboardModel
}

// NewModels constructs a Models value wired up to the given store.
// Call this once during application startup.
func NewModels(store *Store) Models {
	return Models{
		Books:       BookModel{store: store},
		Borrowers:   BorrowerModel{store: store},
		Librarians:  LibrarianModel{store: store},
		Borrowings:  BorrowingModel{store: store},
		Feedback:    FeedbackModel{store: store},
		Research:    ResearchModel{store: store},
		Memberships: MembershipModel{store: store},
		Dashboard:   DashboardModel{store: store},
	}
}

// ErrRecordNotFound is returned when no record carries the requested id.
var ErrRecordNotFound = errors.New("record not found")

// ValidationError is returned by write operations when the record is
// rejected. Errors maps field names to messages, as collected by a Validator.
type ValidationError struct {
	Errors map[string]string
}

func (e *ValidationError) Error() string {
	keys := slices.Sorted(maps.Keys(e.Errors))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Errors[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// record is implemented by every stored entity.
type record interface {
	recordID() int64
}

// indexByID returns the position of the record with id, or -1.
func indexByID[T record](items []T, id int64) int {
	for i, item := range items {
		if item.recordID() == id {
			return i
		}
	}
	return -1
}

// removeByID removes a record by id. Returns the updated slice and whether a
// record was actually removed.
func removeByID[T record](items []T, id int64) ([]T, bool) {
	i := indexByID(items, id)
	if i < 0 {
		return items, false
	}
	return append(items[:i], items[i+1:]...), true
}

// takenIn returns a predicate reporting whether an id is already used in items.
func takenIn[T record](items []T) func(int64) bool {
	return func(id int64) bool { return indexByID(items, id) >= 0 }
}
