package data

import (
	"cmp"
	"context"
	"slices"

	"github.com/aoideee/libraryhub/internal/validator"
)

const (
	defaultDashboardLimit = 5
	defaultGrowthMonths   = 12
)

// BookStat ranks a book by how often it is borrowed.
type BookStat struct {
	Book          *Book   `json:"book"`
	BorrowCount   int     `json:"borrowCount"`
	AverageRating float64 `json:"averageRating,omitempty"`
	Score         float64 `json:"score,omitempty"`
}

// BorrowerStat ranks a borrower by engagement.
type BorrowerStat struct {
	Borrower        *Borrower `json:"borrower"`
	BorrowCount     int       `json:"borrowCount"`
	ReturnedCount   int       `json:"returnedCount"`
	ReviewCount     int       `json:"reviewCount"`
	EngagementScore float64   `json:"engagementScore"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type MonthlyGrowth struct {
	Month      string `json:"month"` // YYYY-MM
	NewMembers int    `json:"newMembers"`
	Total      int    `json:"total"`
}

// DashboardModel computes read-only views over the whole document.
type DashboardModel struct {
	store *Store
}

func limitOr(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return limit
}

type bookTally struct {
	count   int
	ratings int
	rated   int
}

// tallyBooks counts borrowings per known book id.
func tallyBooks(doc *Document) map[int64]*bookTally {
	tallies := make(map[int64]*bookTally, len(doc.Books))
	for _, b := range doc.Books {
		tallies[b.ID] = &bookTally{}
	}
	for _, br := range doc.Borrowings {
		if br.BookID == nil {
			continue
		}
		t, ok := tallies[*br.BookID]
		if !ok {
			continue
		}
		t.count++
		if br.Rating != nil {
			t.ratings += *br.Rating
			t.rated++
		}
	}
	return tallies
}

func rankBooks(stats []BookStat, key func(BookStat) float64, limit int) []BookStat {
	slices.SortStableFunc(stats, func(a, b BookStat) int {
		if c := cmp.Compare(key(b), key(a)); c != 0 {
			return c
		}
		return cmp.Compare(a.Book.ID, b.Book.ID)
	})
	if len(stats) > limit {
		stats = stats[:limit]
	}
	return stats
}

// MostBorrowedBooks returns the books with at least one borrowing, most
// borrowed first.
func (m DashboardModel) MostBorrowedBooks(ctx context.Context, limit int) ([]BookStat, error) {
	stats := []BookStat{}
	err := m.store.view(ctx, func(doc *Document) error {
		tallies := tallyBooks(doc)
		for _, b := range doc.Books {
			if t := tallies[b.ID]; t.count > 0 {
				stats = append(stats, BookStat{Book: b, BorrowCount: t.count})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rankBooks(stats, func(s BookStat) float64 { return float64(s.BorrowCount) }, limitOr(limit, defaultDashboardLimit)), nil
}

// PopularBooks scores books as 0.6*borrowCount + 0.4*averageRating.
func (m DashboardModel) PopularBooks(ctx context.Context, limit int) ([]BookStat, error) {
	stats := []BookStat{}
	err := m.store.view(ctx, func(doc *Document) error {
		tallies := tallyBooks(doc)
		for _, b := range doc.Books {
			t := tallies[b.ID]
			if t.count == 0 {
				continue
			}
			var avg float64
			if t.rated > 0 {
				avg = float64(t.ratings) / float64(t.rated)
			}
			stats = append(stats, BookStat{
				Book:          b,
				BorrowCount:   t.count,
				AverageRating: avg,
				Score:         0.6*float64(t.count) + 0.4*avg,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rankBooks(stats, func(s BookStat) float64 { return s.Score }, limitOr(limit, defaultDashboardLimit)), nil
}

// TopBorrowers scores borrowers as
// 0.5*borrowCount + 0.3*returnedCount + 0.2*reviewCount.
func (m DashboardModel) TopBorrowers(ctx context.Context, limit int) ([]BorrowerStat, error) {
	stats := []BorrowerStat{}
	err := m.store.view(ctx, func(doc *Document) error {
		byID := make(map[int64]*BorrowerStat, len(doc.Borrowers))
		for _, b := range doc.Borrowers {
			byID[b.ID] = &BorrowerStat{Borrower: b}
		}
		for _, br := range doc.Borrowings {
			s, ok := byID[br.BorrowerID]
			if !ok {
				continue
			}
			s.BorrowCount++
			if br.Status == StatusReturned || br.ReturnDate != "" {
				s.ReturnedCount++
			}
			if br.Review != "" || br.Rating != nil {
				s.ReviewCount++
			}
		}
		for _, b := range doc.Borrowers {
			s := byID[b.ID]
			if s.BorrowCount == 0 {
				continue
			}
			s.EngagementScore = 0.5*float64(s.BorrowCount) + 0.3*float64(s.ReturnedCount) + 0.2*float64(s.ReviewCount)
			stats = append(stats, *s)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(stats, func(a, b BorrowerStat) int {
		if c := cmp.Compare(b.EngagementScore, a.EngagementScore); c != 0 {
			return c
		}
		return cmp.Compare(a.Borrower.ID, b.Borrower.ID)
	})
	if limit = limitOr(limit, defaultDashboardLimit); len(stats) > limit {
		stats = stats[:limit]
	}
	return stats, nil
}

// BorrowerDistribution counts borrowers per category. Every category is
// present, in BorrowerCategories order.
func (m DashboardModel) BorrowerDistribution(ctx context.Context) ([]CategoryCount, error) {
	counts := make([]CategoryCount, len(BorrowerCategories))
	for i, c := range BorrowerCategories {
		counts[i].Category = c
	}
	err := m.store.view(ctx, func(doc *Document) error {
		for _, b := range doc.Borrowers {
			if i := slices.Index(BorrowerCategories, b.Category); i >= 0 {
				counts[i].Count++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// MemberGrowth groups borrowers by the month they joined, with running
// totals, and returns the most recent months.
func (m DashboardModel) MemberGrowth(ctx context.Context, months int) ([]MonthlyGrowth, error) {
	perMonth := map[string]int{}
	err := m.store.view(ctx, func(doc *Document) error {
		for _, b := range doc.Borrowers {
			joined, ok := validator.ParseDate(b.JoinedDate)
			if !ok {
				joined = b.CreatedAt
			}
			if joined.IsZero() {
				continue
			}
			perMonth[joined.Format("2006-01")]++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(perMonth))
	for k := range perMonth {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	growth := make([]MonthlyGrowth, 0, len(keys))
	total := 0
	for _, k := range keys {
		total += perMonth[k]
		growth = append(growth, MonthlyGrowth{Month: k, NewMembers: perMonth[k], Total: total})
	}
	if months = limitOr(months, defaultGrowthMonths); len(growth) > months {
		growth = growth[len(growth)-months:]
	}
	return growth, nil
}
