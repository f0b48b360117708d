package data

import (
	"context"
	"strings"
	"time"

	"github.com/aoideee/libraryhub/internal/validator"
)

// EmploymentStatuses lists the accepted librarian employment states.
var EmploymentStatuses = []string{"active", "part-time", "on-leave", "retired"}

// Librarian is a staff member who records borrowings.
type Librarian struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email,omitempty"`
	Phone            string    `json:"phone,omitempty"`
	EmploymentStatus string    `json:"employmentStatus"`
	CreatedAt        time.Time `json:"createdAt"`
}

func (l *Librarian) recordID() int64 { return l.ID }

// UpdateLibrarianInput carries a partial librarian update.
type UpdateLibrarianInput struct {
	Name             *string `json:"name"`
	Email            *string `json:"email"`
	Phone            *string `json:"phone"`
	EmploymentStatus *string `json:"employmentStatus"`
}

func (in UpdateLibrarianInput) apply(l *Librarian) {
	setIf(&l.Name, in.Name)
	setIf(&l.Email, in.Email)
	setIf(&l.Phone, in.Phone)
	setIf(&l.EmploymentStatus, in.EmploymentStatus)
}

// normalize defaults the employment status to active.
func (l *Librarian) normalize() {
	if l.EmploymentStatus == "" {
		l.EmploymentStatus = "active"
	}
}

func ValidateLibrarian(v *validator.Validator, l *Librarian) {
	v.Check(strings.TrimSpace(l.Name) != "", "name", "must be provided")
	v.Check(l.Email == "" || validator.Matches(l.Email, validator.EmailRX), "email", "must be a valid email address")
	v.Check(validator.In(l.EmploymentStatus, EmploymentStatuses...), "employmentStatus", "must be one of active, part-time, on-leave, retired")
}

// LibrarianModel stores librarians.
type LibrarianModel struct {
	store *Store
}

func (m LibrarianModel) Insert(ctx context.Context, librarian *Librarian) error {
	librarian.normalize()
	v := validator.New()
	ValidateLibrarian(v, librarian)
	if !v.Valid() {
		return &ValidationError{Errors: v.Errors}
	}

	return m.store.update(ctx, func(doc *Document) error {
		librarian.ID = m.store.nextID(takenIn(doc.Librarians))
		librarian.CreatedAt = m.store.now().UTC()
		stored := *librarian
		doc.Librarians = append(doc.Librarians, &stored)
		return nil
	})
}

func (m LibrarianModel) Get(ctx context.Context, id int64) (*Librarian, error) {
	var librarian *Librarian
	err := m.store.view(ctx, func(doc *Document) error {
		i := indexByID(doc.Librarians, id)
		if i < 0 {
			return ErrRecordNotFound
		}
		librarian = doc.Librarians[i]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return librarian, nil
}

func (m LibrarianModel) GetAll(ctx context.Context) ([]*Librarian, error) {
	var librarians []*Librarian
	err := m.store.view(ctx, func(doc *Document) error {
		librarians = doc.Librarians
		return nil
	})
	return librarians, err
}

func (m LibrarianModel) Update(ctx context.Context, id int64, input UpdateLibrarianInput) (*Librarian, error) {
	var librarian *Librarian
	err := m.store.update(ctx, func(doc *Document) error {
		i := indexByID(doc.Librarians, id)
		if i < 0 {
			return ErrRecordNotFound
		}
		updated := *doc.Librarians[i]
		input.apply(&updated)
		updated.normalize()

		v := validator.New()
		ValidateLibrarian(v, &updated)
		if !v.Valid() {
			return &ValidationError{Errors: v.Errors}
		}
		doc.Librarians[i] = &updated
		librarian = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return librarian, nil
}

// Delete removes the librarian. Borrowings that reference it are kept; the
// existence check only applies when a borrowing is created.
func (m LibrarianModel) Delete(ctx context.Context, id int64) (bool, error) {
	var removed bool
	err := m.store.update(ctx, func(doc *Document) error {
		doc.Librarians, removed = removeByID(doc.Librarians, id)
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
