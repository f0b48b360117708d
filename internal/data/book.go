// Package data provides the record types and stores for the library
// management system, together with the repair logic that keeps the
// serialized documents readable.
package data

import (
	"context"
	"strings"
	"time"

	"github.com/aoideee/libraryhub/internal/validator"
)

// DefaultCoverImage is used for books stored without a cover.
const DefaultCoverImage = "/images/book-placeholder.png"

// Book represents a single book record in the library document.
type Book struct {
	ID          int64     `json:"id"`                    // Identity assigned on insert
	Name        string    `json:"name,omitempty"`        // Display name; either Name or Title is required
	Title       string    `json:"title,omitempty"`       // Title of the book
	Author      string    `json:"author,omitempty"`      // Author(s) as entered
	Publisher   string    `json:"publisher,omitempty"`   // Publishing company
	Cabinet     string    `json:"cabinet,omitempty"`     // Location: cabinet label
	Shelf       string    `json:"shelf,omitempty"`       // Location: shelf within the cabinet
	Num         string    `json:"num,omitempty"`         // Location: position on the shelf
	BookCode    string    `json:"bookCode,omitempty"`    // Derived from cabinet, shelf and num
	Copies      int       `json:"copies"`                // Number of physical copies, at least 1
	Genres      string    `json:"genres,omitempty"`      // Comma-joined genre list
	Tags        string    `json:"tags,omitempty"`        // Comma-joined tag list
	Description string    `json:"description,omitempty"` // Optional short description
	PublishYear int       `json:"publishYear,omitempty"` // Year of publication
	CoverImage  string    `json:"coverImage"`            // Cover URI, placeholder when unset
	AddedDate   string    `json:"addedDate,omitempty"`   // Date the book joined the catalogue
	CreatedAt   time.Time `json:"createdAt"`             // Timestamp when the record was created
}

func (b *Book) recordID() int64 { return b.ID }

// DisplayName returns the title, falling back to the name.
func (b *Book) DisplayName() string {
	if b.Title != "" {
		return b.Title
	}
	return b.Name
}

// UpdateBookInput holds the fields a client may supply when partially updating a book.
// Every field is a pointer so we can distinguish between "not provided" (nil)
// and "intentionally set to zero/empty". Only non-nil fields are applied.
type UpdateBookInput struct {
	Name        *string `json:"name"`
	Title       *string `json:"title"`
	Author      *string `json:"author"`
	Publisher   *string `json:"publisher"`
	Cabinet     *string `json:"cabinet"`
	Shelf       *string `json:"shelf"`
	Num         *string `json:"num"`
	Copies      *int    `json:"copies"`
	Genres      *string `json:"genres"`
	Tags        *string `json:"tags"`
	Description *string `json:"description"`
	PublishYear *int    `json:"publishYear"`
	CoverImage  *string `json:"coverImage"`
	AddedDate   *string `json:"addedDate"`
}

func (in UpdateBookInput) apply(b *Book) {
	setIf(&b.Name, in.Name)
	setIf(&b.Title, in.Title)
	setIf(&b.Author, in.Author)
	setIf(&b.Publisher, in.Publisher)
	setIf(&b.Cabinet, in.Cabinet)
	setIf(&b.Shelf, in.Shelf)
	setIf(&b.Num, in.Num)
	setIf(&b.Copies, in.Copies)
	setIf(&b.Genres, in.Genres)
	setIf(&b.Tags, in.Tags)
	setIf(&b.Description, in.Description)
	setIf(&b.PublishYear, in.PublishYear)
	setIf(&b.CoverImage, in.CoverImage)
	setIf(&b.AddedDate, in.AddedDate)
}

// setIf copies *src into *dst when src is non-nil.
func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// BookCode joins the non-empty location parts with "-".
func BookCode(cabinet, shelf, num string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{cabinet, shelf, num} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "-")
}

func (b *Book) normalize(today string) {
	if b.Copies == 0 {
		b.Copies = 1
	}
	if b.CoverImage == "" {
		b.CoverImage = DefaultCoverImage
	}
	if b.AddedDate == "" {
		b.AddedDate = today
	}
	b.BookCode = BookCode(b.Cabinet, b.Shelf, b.Num)
}

// ValidateBook checks the fields of b.
func ValidateBook(v *validator.Validator, b *Book) {
	v.Check(strings.TrimSpace(b.Name) != "" || strings.TrimSpace(b.Title) != "", "title", "a title or name must be provided")
	v.Check(len(b.Title) <= 500, "title", "must not be more than 500 bytes long")
	v.Check(b.Copies >= 1, "copies", "must be at least 1")
	v.Check(b.PublishYear >= 0 && b.PublishYear <= 9999, "publishYear", "must be a valid year")
	v.Check(b.AddedDate == "" || validator.IsDate(b.AddedDate), "addedDate", "must be a date (YYYY-MM-DD)")
	v.Check(validator.Unique(splitList(b.Genres)), "genres", "must not contain duplicate values")
	v.Check(validator.Unique(splitList(b.Tags)), "tags", "must not contain duplicate values")
}

// splitList breaks a comma-joined list into trimmed, lower-cased entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// BookModel provides creating, reading, updating, and deleting book records.
type BookModel struct {
	store *Store
}

// Insert validates book, assigns its id and timestamps, and persists it.
// The stored values are written back into book.
func (m BookModel) Insert(ctx context.Context, book *Book) error {
	book.normalize(m.store.today())
	v := validator.New()
	ValidateBook(v, book)
	if !v.Valid() {
		return &ValidationError{Errors: v.Errors}
	}

	return m.store.update(ctx, func(doc *Document) error {
		book.ID = m.store.nextID(takenIn(doc.Books))
		book.CreatedAt = m.store.now().UTC()
		stored := *book
		doc.Books = append(doc.Books, &stored)
		return nil
	})
}

// Get retrieves a single book by id.
// Returns ErrRecordNotFound if no book with the given id exists.
func (m BookModel) Get(ctx context.Context, id int64) (*Book, error) {
	var book *Book
	err := m.store.view(ctx, func(doc *Document) error {
		i := indexByID(doc.Books, id)
		if i < 0 {
			return ErrRecordNotFound
		}
		book = doc.Books[i]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

// GetAll returns every book in insertion order.
func (m BookModel) GetAll(ctx context.Context) ([]*Book, error) {
	var books []*Book
	err := m.store.view(ctx, func(doc *Document) error {
		books = doc.Books
		return nil
	})
	return books, err
}

// Update merges input over the stored book, keeping its id.
func (m BookModel) Update(ctx context.Context, id int64, input UpdateBookInput) (*Book, error) {
	var book *Book
	err := m.store.update(ctx, func(doc *Document) error {
		i := indexByID(doc.Books, id)
		if i < 0 {
			return ErrRecordNotFound
		}
		updated := *doc.Books[i]
		input.apply(&updated)
		updated.normalize(m.store.today())

		v := validator.New()
		ValidateBook(v, &updated)
		if !v.Valid() {
			return &ValidationError{Errors: v.Errors}
		}
		doc.Books[i] = &updated
		book = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

// Delete removes the book with the given id. It reports false, without an
// error, when there was nothing to remove.
func (m BookModel) Delete(ctx context.Context, id int64) (bool, error) {
	var removed bool
	err := m.store.update(ctx, func(doc *Document) error {
		doc.Books, removed = removeByID(doc.Books, id)
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
