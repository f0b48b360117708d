package data

import (
	"context"
	"strings"
	"time"

	"github.com/aoideee/libraryhub/internal/validator"
)

// ResearchPaper is a lendable paper kept in its own collection. Borrowings
// reference it through researchId.
type ResearchPaper struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Authors   string    `json:"authors,omitempty"`
	Field     string    `json:"field,omitempty"`
	Abstract  string    `json:"abstract,omitempty"`
	Year      int       `json:"year,omitempty"`
	Copies    int       `json:"copies"`
	CreatedAt time.Time `json:"createdAt"`
}

func (p *ResearchPaper) recordID() int64 { return p.ID }

type UpdateResearchPaperInput struct {
	Title    *string `json:"title"`
	Authors  *string `json:"authors"`
	Field    *string `json:"field"`
	Abstract *string `json:"abstract"`
	Year     *int    `json:"year"`
	Copies   *int    `json:"copies"`
}

func (in UpdateResearchPaperInput) apply(p *ResearchPaper) {
	setIf(&p.Title, in.Title)
	setIf(&p.Authors, in.Authors)
	setIf(&p.Field, in.Field)
	setIf(&p.Abstract, in.Abstract)
	setIf(&p.Year, in.Year)
	setIf(&p.Copies, in.Copies)
}

func ValidateResearchPaper(v *validator.Validator, p *ResearchPaper) {
	v.Check(strings.TrimSpace(p.Title) != "", "title", "must be provided")
	v.Check(len(p.Title) <= 500, "title", "must not be more than 500 bytes long")
	v.Check(p.Copies >= 1, "copies", "must be at least 1")
	v.Check(p.Year >= 0 && p.Year <= 9999, "year", "must be a valid year")
}

// ResearchModel stores research papers under ResearchKey.
type ResearchModel struct {
	store *Store
}

func (m ResearchModel) Insert(ctx context.Context, paper *ResearchPaper) error {
	if paper.Copies == 0 {
		paper.Copies = 1
	}
	v := validator.New()
	ValidateResearchPaper(v, paper)
	if !v.Valid() {
		return &ValidationError{Errors: v.Errors}
	}

	return updateList(ctx, m.store, researchList, func(items *[]*ResearchPaper) error {
		paper.ID = m.store.nextID(takenIn(*items))
		paper.CreatedAt = m.store.now().UTC()
		stored := *paper
		*items = append(*items, &stored)
		return nil
	})
}

func (m ResearchModel) Get(ctx context.Context, id int64) (*ResearchPaper, error) {
	var paper *ResearchPaper
	err := viewList(ctx, m.store, researchList, func(items []*ResearchPaper) error {
		i := indexByID(items, id)
		if i < 0 {
			return ErrRecordNotFound
		}
		paper = items[i]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paper, nil
}

func (m ResearchModel) GetAll(ctx context.Context) ([]*ResearchPaper, error) {
	var all []*ResearchPaper
	err := viewList(ctx, m.store, researchList, func(items []*ResearchPaper) error {
		all = items
		return nil
	})
	return all, err
}

func (m ResearchModel) Update(ctx context.Context, id int64, input UpdateResearchPaperInput) (*ResearchPaper, error) {
	var paper *ResearchPaper
	err := updateList(ctx, m.store, researchList, func(items *[]*ResearchPaper) error {
		i := indexByID(*items, id)
		if i < 0 {
			return ErrRecordNotFound
		}
		updated := *(*items)[i]
		input.apply(&updated)

		v := validator.New()
		ValidateResearchPaper(v, &updated)
		if !v.Valid() {
			return &ValidationError{Errors: v.Errors}
		}
		(*items)[i] = &updated
		paper = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paper, nil
}

func (m ResearchModel) Delete(ctx context.Context, id int64) (bool, error) {
	var removed bool
	err := updateList(ctx, m.store, researchList, func(items *[]*ResearchPaper) error {
		*items, removed = removeByID(*items, id)
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
