package data

import (
	"context"
	"strings"
	"time"

	"github.com/aoideee/libraryhub/internal/validator"
)

// FeedbackTypes lists the accepted feedback kinds.
var FeedbackTypes = []string{"general", "suggestion", "complaint", "praise"}

// Feedback is a visitor comment, stored apart from the library document.
type Feedback struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Rating    *int      `json:"rating,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (f *Feedback) recordID() int64 { return f.ID }

type UpdateFeedbackInput struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Type    *string `json:"type"`
	Message *string `json:"message"`
	Rating  *int    `json:"rating"`
}

func (in UpdateFeedbackInput) apply(f *Feedback) {
	setIf(&f.Name, in.Name)
	setIf(&f.Email, in.Email)
	setIf(&f.Type, in.Type)
	setIf(&f.Message, in.Message)
	if in.Rating != nil {
		f.Rating = in.Rating
	}
}

func ValidateFeedback(v *validator.Validator, f *Feedback) {
	v.Check(strings.TrimSpace(f.Message) != "", "message", "must be provided")
	v.Check(len(f.Message) <= 5000, "message", "must not be more than 5000 bytes long")
	v.Check(validator.In(f.Type, FeedbackTypes...), "type", "must be one of general, suggestion, complaint, praise")
	v.Check(f.Email == "" || validator.Matches(f.Email, validator.EmailRX), "email", "must be a valid email address")
	v.Check(f.Rating == nil || validator.Between(*f.Rating, 1, 5), "rating", "must be between 1 and 5")
}

// FeedbackModel stores feedback under FeedbackKey.
type FeedbackModel struct {
	store *Store
}

func (m FeedbackModel) Insert(ctx context.Context, feedback *Feedback) error {
	if feedback.Type == "" {
		feedback.Type = "general"
	}
	v := validator.New()
	ValidateFeedback(v, feedback)
	if !v.Valid() {
		return &ValidationError{Errors: v.Errors}
	}

	return updateList(ctx, m.store, feedbackList, func(items *[]*Feedback) error {
		feedback.ID = m.store.nextID(takenIn(*items))
		feedback.CreatedAt = m.store.now().UTC()
		stored := *feedback
		*items = append(*items, &stored)
		return nil
	})
}

func (m FeedbackModel) Get(ctx context.Context, id int64) (*Feedback, error) {
	var feedback *Feedback
	err := viewList(ctx, m.store, feedbackList, func(items []*Feedback) error {
		i := indexByID(items, id)
		if i < 0 {
			return ErrRecordNotFound
		}
		feedback = items[i]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return feedback, nil
}

func (m FeedbackModel) GetAll(ctx context.Context) ([]*Feedback, error) {
	var all []*Feedback
	err := viewList(ctx, m.store, feedbackList, func(items []*Feedback) error {
		all = items
		return nil
	})
	return all, err
}

func (m FeedbackModel) Update(ctx context.Context, id int64, input UpdateFeedbackInput) (*Feedback, error) {
	var feedback *Feedback
	err := updateList(ctx, m.store, feedbackList, func(items *[]*Feedback) error {
		i := indexByID(*items, id)
		if i < 0 {
			return ErrRecordNotFound
		}
		updated := *(*items)[i]
		input.apply(&updated)

		v := validator.New()
		ValidateFeedback(v, &updated)
		if !v.Valid() {
			return &ValidationError{Errors: v.Errors}
		}
		(*items)[i] = &updated
		feedback = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return feedback, nil
}

func (m FeedbackModel) Delete(ctx context.Context, id int64) (bool, error) {
	var removed bool
	err := updateList(ctx, m.store, feedbackList, func(items *[]*Feedback) error {
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
