package data

import (
	"context"
	"strings"
	"time"

	"github.com/aoideee/libraryhub/internal/validator"
)

// Borrower categories, in the order dashboards present them.
var BorrowerCategories = []string{"primary", "middle", "secondary", "university", "graduate"}

// Borrower is a registered library member.
type Borrower struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	Email         string    `json:"email,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Address       string    `json:"address,omitempty"`
	BirthDate     string    `json:"birthDate,omitempty"`
	School        string    `json:"school,omitempty"`
	FavoriteBooks string    `json:"favoriteBooks,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	JoinedDate    string    `json:"joinedDate"`
	ExpiryDate    string    `json:"expiryDate"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (b *Borrower) recordID() int64 { return b.ID }

// UpdateBorrowerInput carries a partial borrower update; nil fields are left as-is.
type UpdateBorrowerInput struct {
	Name          *string `json:"name"`
	Category      *string `json:"category"`
	Email         *string `json:"email"`
	Phone         *string `json:"phone"`
	Address       *string `json:"address"`
	BirthDate     *string `json:"birthDate"`
	School        *string `json:"school"`
	FavoriteBooks *string `json:"favoriteBooks"`
	Notes         *string `json:"notes"`
	JoinedDate    *string `json:"joinedDate"`
	ExpiryDate    *string `json:"expiryDate"`
}

func (in UpdateBorrowerInput) apply(b *Borrower) {
	setIf(&b.Name, in.Name)
	setIf(&b.Category, in.Category)
	setIf(&b.Email, in.Email)
	setIf(&b.Phone, in.Phone)
	setIf(&b.Address, in.Address)
	setIf(&b.BirthDate, in.BirthDate)
	setIf(&b.School, in.School)
	setIf(&b.FavoriteBooks, in.FavoriteBooks)
	setIf(&b.Notes, in.Notes)
	setIf(&b.JoinedDate, in.JoinedDate)
	setIf(&b.ExpiryDate, in.ExpiryDate)
}

// normalize fills membership dates: joined today, expiring a year later.
func (b *Borrower) normalize(today string) {
	if b.JoinedDate == "" {
		b.JoinedDate = today
	}
	if b.ExpiryDate == "" {
		if joined, ok := validator.ParseDate(b.JoinedDate); ok {
			b.ExpiryDate = joined.AddDate(1, 0, 0).Format(validator.DateLayout)
		}
	}
}

// ValidateBorrower checks the fields of b.
func ValidateBorrower(v *validator.Validator, b *Borrower) {
	v.Check(strings.TrimSpace(b.Name) != "", "name", "must be provided")
	v.Check(validator.In(b.Category, BorrowerCategories...), "category", "must be one of primary, middle, secondary, university, graduate")
	v.Check(b.Email == "" || validator.Matches(b.Email, validator.EmailRX), "email", "must be a valid email address")
	v.Check(b.BirthDate == "" || validator.IsDate(b.BirthDate), "birthDate", "must be a date (YYYY-MM-DD)")
	v.Check(validator.IsDate(b.JoinedDate), "joinedDate", "must be a date (YYYY-MM-DD)")
	v.Check(validator.IsDate(b.ExpiryDate), "expiryDate", "must be a date (YYYY-MM-DD)")
	if joined, ok := validator.ParseDate(b.JoinedDate); ok {
		if expiry, ok := validator.ParseDate(b.ExpiryDate); ok {
			v.Check(!expiry.Before(joined), "expiryDate", "must not be before joinedDate")
		}
	}
}

// BorrowerFilter narrows GetAll. Empty fields match everything.
type BorrowerFilter struct {
	Category string
}

// BorrowerModel stores borrowers.
type BorrowerModel struct {
	store *Store
}

// Insert validates borrower, assigns its id and timestamps, and persists it.
func (m BorrowerModel) Insert(ctx context.Context, borrower *Borrower) error {
	borrower.normalize(m.store.today())
	v := validator.New()
	ValidateBorrower(v, borrower)
	if !v.Valid() {
		return &ValidationError{Errors: v.Errors}
	}

	return m.store.update(ctx, func(doc *Document) error {
		m.insertInto(doc, borrower)
		return nil
	})
}

// insertInto appends a validated borrower to doc. Shared with membership
// applications so both paths assign identities the same way.
func (m BorrowerModel) insertInto(doc *Document, borrower *Borrower) {
	borrower.ID = m.store.nextID(takenIn(doc.Borrowers))
	borrower.CreatedAt = m.store.now().UTC()
	stored := *borrower
	doc.Borrowers = append(doc.Borrowers, &stored)
}

// Get returns the borrower with id, or ErrRecordNotFound.
func (m BorrowerModel) Get(ctx context.Context, id int64) (*Borrower, error) {
	var borrower *Borrower
	err := m.store.view(ctx, func(doc *Document) error {
		i := indexByID(doc.Borrowers, id)
		if i < 0 {
			return ErrRecordNotFound
		}
		borrower = doc.Borrowers[i]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return borrower, nil
}

// GetAll returns the borrowers matching filter in insertion order.
func (m BorrowerModel) GetAll(ctx context.Context, filter BorrowerFilter) ([]*Borrower, error) {
	borrowers := []*Borrower{}
	err := m.store.view(ctx, func(doc *Document) error {
		for _, b := range doc.Borrowers {
			if filter.Category != "" && b.Category != filter.Category {
				continue
			}
			borrowers = append(borrowers, b)
		}
		return nil
	})
	return borrowers, err
}

// Update merges input over the stored borrower.
func (m BorrowerModel) Update(ctx context.Context, id int64, input UpdateBorrowerInput) (*Borrower, error) {
	var borrower *Borrower
	err := m.store.update(ctx, func(doc *Document) error {
		i := indexByID(doc.Borrowers, id)
		if i < 0 {
			return ErrRecordNotFound
		}
		updated := *doc.Borrowers[i]
		input.apply(&updated)
		updated.normalize(m.store.today())

		v := validator.New()
		ValidateBorrower(v, &updated)
		if !v.Valid() {
			return &ValidationError{Errors: v.Errors}
		}
		doc.Borrowers[i] = &updated
		borrower = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return borrower, nil
}

// Delete removes the borrower with id; false when it did not exist.
func (m BorrowerModel) Delete(ctx context.Context, id int64) (bool, error) {
	var removed bool
	err := m.store.update(ctx, func(doc *Document) error {
		doc.Borrowers, removed = removeByID(doc.Borrowers, id)
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
