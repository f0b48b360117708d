package mockapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/aoideee/libraryhub/internal/data"
)

// store is the CRUD surface shared by every record model.
type store[T any, U any] struct {
	list   func(ctx context.Context, req Request) ([]*T, error)
	insert func(ctx context.Context, v *T) error
	get    func(ctx context.Context, id int64) (*T, error)
	update func(ctx context.Context, id int64, input U) (*T, error)
	remove func(ctx context.Context, id int64) (bool, error)
}

// crud turns a store into a prefix route serving the collection and
// "/<id>" item paths.
func crud[T any, U any](path string, s store[T, U]) route {
	collectionOnly := func(h handlerFunc) handlerFunc {
		return func(ctx context.Context, req Request, id *int64) (any, error) {
			if id != nil {
				return nil, errMethodOnItem(req.Method)
			}
			return h(ctx, req, nil)
		}
	}
	itemOnly := func(h handlerFunc) handlerFunc {
		return func(ctx context.Context, req Request, id *int64) (any, error) {
			if id == nil {
				return nil, errMethodOnCollection(req.Method)
			}
			return h(ctx, req, id)
		}
	}

	update := itemOnly(func(ctx context.Context, req Request, id *int64) (any, error) {
		var input U
		if err := decode(req.Body, &input); err != nil {
			return nil, err
		}
		return s.update(ctx, *id, input)
	})

	get := func(ctx context.Context, req Request, id *int64) (any, error) {
		if id == nil {
			return s.list(ctx, req)
		}
		return s.get(ctx, *id)
	}

	return route{
		path:   path,
		prefix: true,
		serve: map[string]handlerFunc{
			http.MethodGet: get,
			http.MethodPost: collectionOnly(func(ctx context.Context, req Request, _ *int64) (any, error) {
				var v T
				if err := decode(req.Body, &v); err != nil {
					return nil, err
				}
				if err := s.insert(ctx, &v); err != nil {
					return nil, err
				}
				return &v, nil
			}),
			http.MethodPut:   update,
			http.MethodPatch: update,
			http.MethodDelete: itemOnly(func(ctx context.Context, _ Request, id *int64) (any, error) {
				removed, err := s.remove(ctx, *id)
				if err != nil {
					return nil, err
				}
				return envelope{"success": removed}, nil
			}),
		},
	}
}

func (d *Dispatcher) buildRoutes() []route {
	m := d.models
	return []route{
		crud("/api/books", store[data.Book, data.UpdateBookInput]{
			list:   func(ctx context.Context, _ Request) ([]*data.Book, error) { return m.Books.GetAll(ctx) },
			insert: m.Books.Insert,
			get:    m.Books.Get,
			update: m.Books.Update,
			remove: m.Books.Delete,
		}),
		crud("/api/borrowers", store[data.Borrower, data.UpdateBorrowerInput]{
			list: func(ctx context.Context, req Request) ([]*data.Borrower, error) {
				return m.Borrowers.GetAll(ctx, data.BorrowerFilter{Category: req.Query.Get("category")})
			},
			insert: m.Borrowers.Insert,
			get:    m.Borrowers.Get,
			update: m.Borrowers.Update,
			remove: m.Borrowers.Delete,
		}),
		crud("/api/librarians", store[data.Librarian, data.UpdateLibrarianInput]{
			list:   func(ctx context.Context, _ Request) ([]*data.Librarian, error) { return m.Librarians.GetAll(ctx) },
			insert: m.Librarians.Insert,
			get:    m.Librarians.Get,
			update: m.Librarians.Update,
			remove: m.Librarians.Delete,
		}),
		crud("/api/borrowings", store[data.Borrowing, data.UpdateBorrowingInput]{
			list: func(ctx context.Context, req Request) ([]*data.Borrowing, error) {
				borrowerID, _ := strconv.ParseInt(req.Query.Get("borrowerId"), 10, 64)
				return m.Borrowings.GetAll(ctx, data.BorrowingFilter{BorrowerID: borrowerID})
			},
			insert: m.Borrowings.Insert,
			get:    m.Borrowings.Get,
			update: m.Borrowings.Update,
			remove: m.Borrowings.Delete,
		}),
		crud("/api/feedback", store[data.Feedback, data.UpdateFeedbackInput]{
			list:   func(ctx context.Context, _ Request) ([]*data.Feedback, error) { return m.Feedback.GetAll(ctx) },
			insert: m.Feedback.Insert,
			get:    m.Feedback.Get,
			update: m.Feedback.Update,
			remove: m.Feedback.Delete,
		}),
		crud("/api/research-papers", store[data.ResearchPaper, data.UpdateResearchPaperInput]{
			list:   func(ctx context.Context, _ Request) ([]*data.ResearchPaper, error) { return m.Research.GetAll(ctx) },
			insert: m.Research.Insert,
			get:    m.Research.Get,
			update: m.Research.Update,
			remove: m.Research.Delete,
		}),
		{
			path: "/api/membership-application",
			serve: map[string]handlerFunc{
				http.MethodGet: func(ctx context.Context, _ Request, _ *int64) (any, error) {
					return m.Memberships.GetAll(ctx)
				},
				http.MethodPost: func(ctx context.Context, req Request, _ *int64) (any, error) {
					var app data.MembershipApplication
					if err := decode(req.Body, &app); err != nil {
						return nil, err
					}
					borrower, err := m.Memberships.Apply(ctx, &app)
					if err != nil {
						return nil, err
					}
					return envelope{"success": true, "application": app, "borrower": borrower}, nil
				},
			},
		},
		dashboard("/api/dashboard/most-borrowed-books", func(ctx context.Context, req Request) (any, error) {
			return m.Dashboard.MostBorrowedBooks(ctx, queryInt(req.Query, "limit"))
		}),
		dashboard("/api/dashboard/popular-books", func(ctx context.Context, req Request) (any, error) {
			return m.Dashboard.PopularBooks(ctx, queryInt(req.Query, "limit"))
		}),
		dashboard("/api/dashboard/top-borrowers", func(ctx context.Context, req Request) (any, error) {
			return m.Dashboard.TopBorrowers(ctx, queryInt(req.Query, "limit"))
		}),
		dashboard("/api/dashboard/borrower-distribution", func(ctx context.Context, _ Request) (any, error) {
			return m.Dashboard.BorrowerDistribution(ctx)
		}),
		dashboard("/api/dashboard/member-growth", func(ctx context.Context, req Request) (any, error) {
			return m.Dashboard.MemberGrowth(ctx, queryInt(req.Query, "limit"))
		}),
	}
}

func dashboard(path string, view func(ctx context.Context, req Request) (any, error)) route {
	return route{
		path: path,
		serve: map[string]handlerFunc{
			http.MethodGet: func(ctx context.Context, req Request, _ *int64) (any, error) {
				return view(ctx, req)
			},
		},
	}
}
