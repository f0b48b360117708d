package data

import (
	"context"
	"fmt"
	"time"

	"github.com/aoideee/libraryhub/internal/validator"
)

// Borrowing statuses.
const (
	StatusBorrowed = "borrowed"
	StatusReturned = "returned"
	StatusOverdue  = "overdue"
)

// Borrowing records one loan of a book or research paper to a borrower.
// Exactly one of BookID and ResearchID is set.
type Borrowing struct {
	ID          int64     `json:"id"`
	BorrowerID  int64     `json:"borrowerId"`
	LibrarianID int64     `json:"librarianId"`
	BookID      *int64    `json:"bookId,omitempty"`
	ResearchID  *int64    `json:"researchId,omitempty"`
	BorrowDate  string    `json:"borrowDate"`
	DueDate     string    `json:"dueDate"`
	ReturnDate  string    `json:"returnDate,omitempty"`
	Status      string    `json:"status"`
	Rating      *int      `json:"rating,omitempty"` // 1-10
	Review      string    `json:"review,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (b *Borrowing) recordID() int64 { return b.ID }

// UpdateBorrowingInput carries a partial borrowing update. Setting only one
// of BookID/ResearchID clears the other so a loan can switch item kinds.
type UpdateBorrowingInput struct {
	BorrowerID  *int64  `json:"borrowerId"`
	LibrarianID *int64  `json:"librarianId"`
	BookID      *int64  `json:"bookId"`
	ResearchID  *int64  `json:"researchId"`
	BorrowDate  *string `json:"borrowDate"`
	DueDate     *string `json:"dueDate"`
	ReturnDate  *string `json:"returnDate"`
	Status      *string `json:"status"`
	Rating      *int    `json:"rating"`
	Review      *string `json:"review"`
}

func (in UpdateBorrowingInput) apply(b *Borrowing) {
	setIf(&b.BorrowerID, in.BorrowerID)
	setIf(&b.LibrarianID, in.LibrarianID)
	switch {
	case in.BookID != nil && in.ResearchID != nil:
		b.BookID, b.ResearchID = in.BookID, in.ResearchID
	case in.BookID != nil:
		b.BookID, b.ResearchID = in.BookID, nil
	case in.ResearchID != nil:
		b.BookID, b.ResearchID = nil, in.ResearchID
	}
	setIf(&b.BorrowDate, in.BorrowDate)
	setIf(&b.DueDate, in.DueDate)
	setIf(&b.ReturnDate, in.ReturnDate)
	setIf(&b.Status, in.Status)
	if in.Rating != nil {
		b.Rating = in.Rating
	}
	setIf(&b.Review, in.Review)
}

// ValidateBorrowing checks the fields of b. Relationship checks that need
// the document live in the model.
func ValidateBorrowing(v *validator.Validator, b *Borrowing) {
	v.Check(b.BorrowerID > 0, "borrowerId", "must be provided")
	v.Check(b.LibrarianID > 0, "librarianId", "must be provided")
	v.Check((b.BookID == nil) != (b.ResearchID == nil), "bookId", "exactly one of bookId or researchId must be set")
	v.Check(validator.IsDate(b.BorrowDate), "borrowDate", "must be a date (YYYY-MM-DD)")
	v.Check(validator.IsDate(b.DueDate), "dueDate", "must be a date (YYYY-MM-DD)")
	v.Check(b.ReturnDate == "" || validator.IsDate(b.ReturnDate), "returnDate", "must be a date (YYYY-MM-DD)")
	v.Check(validator.In(b.Status, StatusBorrowed, StatusReturned, StatusOverdue), "status", "must be one of borrowed, returned, overdue")
	v.Check(b.Rating == nil || validator.Between(*b.Rating, 1, 10), "rating", "must be between 1 and 10")

	borrowed, okB := validator.ParseDate(b.BorrowDate)
	due, okD := validator.ParseDate(b.DueDate)
	if okB && okD {
		v.Check(!due.Before(borrowed), "dueDate", "must not be before borrowDate")
	}
}

// BorrowingFilter narrows GetAll. Zero fields match everything.
type BorrowingFilter struct {
	BorrowerID int64
}

// BorrowingModel stores borrowing transactions.
type BorrowingModel struct {
	store *Store
}

// Insert validates and stores a borrowing. The librarian must exist at
// creation time; otherwise a *ValidationError is returned and the
// borrowings collection is left untouched.
func (m BorrowingModel) Insert(ctx context.Context, borrowing *Borrowing) error {
	if borrowing.Status == "" {
		borrowing.Status = StatusBorrowed
	}
	v := validator.New()
	ValidateBorrowing(v, borrowing)
	if !v.Valid() {
		return &ValidationError{Errors: v.Errors}
	}

	return m.store.update(ctx, func(doc *Document) error {
		if indexByID(doc.Librarians, borrowing.LibrarianID) < 0 {
			return librarianMissing(borrowing.LibrarianID)
		}
		borrowing.ID = m.store.nextID(takenIn(doc.Borrowings))
		borrowing.CreatedAt = m.store.now().UTC()
		stored := *borrowing
		doc.Borrowings = append(doc.Borrowings, &stored)
		return nil
	})
}

func librarianMissing(id int64) error {
	return &ValidationError{Errors: map[string]string{
		"librarianId": fmt.Sprintf("librarian %d does not exist", id),
	}}
}

func (m BorrowingModel) Get(ctx context.Context, id int64) (*Borrowing, error) {
	var borrowing *Borrowing
	err := m.store.view(ctx, func(doc *Document) error {
		i := indexByID(doc.Borrowings, id)
		if i < 0 {
			return ErrRecordNotFound
		}
		borrowing = doc.Borrowings[i]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return borrowing, nil
}

// GetAll returns the borrowings matching filter in insertion order.
func (m BorrowingModel) GetAll(ctx context.Context, filter BorrowingFilter) ([]*Borrowing, error) {
	borrowings := []*Borrowing{}
	err := m.store.view(ctx, func(doc *Document) error {
		for _, b := range doc.Borrowings {
			if filter.BorrowerID != 0 && b.BorrowerID != filter.BorrowerID {
				continue
			}
			borrowings = append(borrowings, b)
		}
		return nil
	})
	return borrowings, err
}

// Update merges input over the stored borrowing. Changing the librarian
// repeats the existence check.
func (m BorrowingModel) Update(ctx context.Context, id int64, input UpdateBorrowingInput) (*Borrowing, error) {
	var borrowing *Borrowing
	err := m.store.update(ctx, func(doc *Document) error {
		i := indexByID(doc.Borrowings, id)
		if i < 0 {
			return ErrRecordNotFound
		}
		current := doc.Borrowings[i]
		updated := *current
		input.apply(&updated)

		v := validator.New()
		ValidateBorrowing(v, &updated)
		if !v.Valid() {
			return &ValidationError{Errors: v.Errors}
		}
		if updated.LibrarianID != current.LibrarianID && indexByID(doc.Librarians, updated.LibrarianID) < 0 {
			return librarianMissing(updated.LibrarianID)
		}
		doc.Borrowings[i] = &updated
		borrowing = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return borrowing, nil
}

func (m BorrowingModel) Delete(ctx context.Context, id int64) (bool, error) {
	var removed bool
	err := m.store.update(ctx, func(doc *Document) error {
		doc.Borrowings, removed = removeByID(doc.Borrowings, id)
		if !removed {
			return errNoChange
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// MarkOverdue flips open loans whose due date is before now to overdue and
// returns how many changed.
func (m BorrowingModel) MarkOverdue(ctx context.Context, now time.Time) (int, error) {
	today := now.UTC().Format(validator.DateLayout)
	cutoff, _ := validator.ParseDate(today)

	changed := 0
	err := m.store.update(ctx, func(doc *Document) error {
		for _, b := range doc.Borrowings {
			if b.Status != StatusBorrowed || b.ReturnDate != "" {
				continue
			}
			due, ok := validator.ParseDate(b.DueDate)
			if ok && due.Before(cutoff) {
				b.Status = StatusOverdue
				changed++
			}
		}
		if changed == 0 {
			return errNoChange
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}
