package data

import (
	"context"
	"strings"
	"time"

	"github.com/aoideee/libraryhub/internal/validator"
)

// MembershipApplication is a public sign-up request. Applications are
// approved on arrival: Apply stores the application and registers the
// matching Borrower in the same write.
type MembershipApplication struct {
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
	Status        string    `json:"status,omitempty"`
	BorrowerID    int64     `json:"borrowerId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (a *MembershipApplication) recordID() int64 { return a.ID }

func ValidateMembershipApplication(v *validator.Validator, a *MembershipApplication) {
	v.Check(strings.TrimSpace(a.Name) != "", "name", "must be provided")
	v.Check(validator.In(a.Category, BorrowerCategories...), "category", "must be one of primary, middle, secondary, university, graduate")
	v.Check(a.Email == "" || validator.Matches(a.Email, validator.EmailRX), "email", "must be a valid email address")
	v.Check(a.BirthDate == "" || validator.IsDate(a.BirthDate), "birthDate", "must be a date (YYYY-MM-DD)")
}

// borrower builds the member record an approved application turns into.
func (a *MembershipApplication) borrower() *Borrower {
	return &Borrower{
		Name:          a.Name,
		Category:      a.Category,
		Email:         a.Email,
		Phone:         a.Phone,
		Address:       a.Address,
		BirthDate:     a.BirthDate,
		School:        a.School,
		FavoriteBooks: a.FavoriteBooks,
		Notes:         a.Notes,
	}
}

type MembershipModel struct {
	store *Store
}

// Apply validates application, stores it as approved and returns the
// Borrower created for it.
func (m MembershipModel) Apply(ctx context.Context, application *MembershipApplication) (*Borrower, error) {
	v := validator.New()
	ValidateMembershipApplication(v, application)
	if !v.Valid() {
		return nil, &ValidationError{Errors: v.Errors}
	}

	borrower := application.borrower()
	borrower.normalize(m.store.today())
	ValidateBorrower(v, borrower)
	if !v.Valid() {
		return nil, &ValidationError{Errors: v.Errors}
	}

	borrowers := BorrowerModel{store: m.store}
	err := m.store.update(ctx, func(doc *Document) error {
		borrowers.insertInto(doc, borrower)

		application.ID = m.store.nextID(takenIn(doc.MembershipApplications))
		application.Status = "approved"
		application.BorrowerID = borrower.ID
		application.CreatedAt = m.store.now().UTC()
		stored := *application
		doc.MembershipApplications = append(doc.MembershipApplications, &stored)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return borrower, nil
}

func (m MembershipModel) GetAll(ctx context.Context) ([]*MembershipApplication, error) {
	var applications []*MembershipApplication
	err := m.store.view(ctx, func(doc *Document) error {
		applications = doc.MembershipApplications
		return nil
	})
	return applications, err
}
