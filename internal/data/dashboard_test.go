package data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardViews(t *testing.T) {
	store, backend := newTestStore(t, RecoverReset)
	m := NewModels(store)
	ctx := context.Background()

	putRaw(t, backend, DocumentKey, `{
		"books": [
			{"id": 1, "title": "Dune"},
			{"id": 2, "title": "Emma"},
			{"id": 3, "title": "Ulysses"}
		],
		"borrowers": [
			{"id": 10, "name": "Ada", "category": "university", "joinedDate": "2024-11-02"},
			{"id": 11, "name": "Bo", "category": "primary", "joinedDate": "2024-11-20"},
			{"id": 12, "name": "Cy", "category": "primary", "joinedDate": "2025-01-05"}
		],
		"librarians": [{"id": 20, "name": "Ruth"}],
		"borrowings": [
			{"id": 30, "borrowerId": 10, "librarianId": 20, "bookId": 1, "borrowDate": "2025-01-01", "dueDate": "2025-01-10", "status": "returned", "returnDate": "2025-01-09", "rating": 4},
			{"id": 31, "borrowerId": 11, "librarianId": 20, "bookId": 1, "borrowDate": "2025-02-01", "dueDate": "2025-02-10", "status": "borrowed"},
			{"id": 32, "borrowerId": 10, "librarianId": 20, "bookId": 2, "borrowDate": "2025-02-01", "dueDate": "2025-02-10", "status": "returned", "returnDate": "2025-02-05", "rating": 10, "review": "superb"},
			{"id": 33, "borrowerId": 10, "librarianId": 20, "researchId": 99, "borrowDate": "2025-02-01", "dueDate": "2025-02-10", "status": "borrowed"}
		]
	}`)

	t.Run("most borrowed", func(t *testing.T) {
		stats, err := m.Dashboard.MostBorrowedBooks(ctx, 0)
		require.NoError(t, err)
		require.Len(t, stats, 2)
		assert.Equal(t, int64(1), stats[0].Book.ID)
		assert.Equal(t, 2, stats[0].BorrowCount)
		assert.Equal(t, int64(2), stats[1].Book.ID)

		stats, err = m.Dashboard.MostBorrowedBooks(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, stats, 1)
	})

	t.Run("popular", func(t *testing.T) {
		stats, err := m.Dashboard.PopularBooks(ctx, 5)
		require.NoError(t, err)
		require.Len(t, stats, 2)
		// Emma: 0.6*1 + 0.4*10 = 4.6; Dune: 0.6*2 + 0.4*4 = 2.8
		assert.Equal(t, int64(2), stats[0].Book.ID)
		assert.InDelta(t, 4.6, stats[0].Score, 1e-9)
		assert.InDelta(t, 2.8, stats[1].Score, 1e-9)
		assert.InDelta(t, 4.0, stats[1].AverageRating, 1e-9)
	})

	t.Run("top borrowers", func(t *testing.T) {
		stats, err := m.Dashboard.TopBorrowers(ctx, 5)
		require.NoError(t, err)
		require.Len(t, stats, 2)
		ada := stats[0]
		assert.Equal(t, int64(10), ada.Borrower.ID)
		assert.Equal(t, 3, ada.BorrowCount)
		assert.Equal(t, 2, ada.ReturnedCount)
		assert.Equal(t, 2, ada.ReviewCount)
		assert.InDelta(t, 0.5*3+0.3*2+0.2*2, ada.EngagementScore, 1e-9)
		assert.Equal(t, int64(11), stats[1].Borrower.ID)
	})

	t.Run("distribution", func(t *testing.T) {
		counts, err := m.Dashboard.BorrowerDistribution(ctx)
		require.NoError(t, err)
		assert.Equal(t, []CategoryCount{
			{"primary", 2}, {"middle", 0}, {"secondary", 0}, {"university", 1}, {"graduate", 0},
		}, counts)
	})

	t.Run("member growth", func(t *testing.T) {
		growth, err := m.Dashboard.MemberGrowth(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, []MonthlyGrowth{
			{Month: "2024-11", NewMembers: 2, Total: 2},
			{Month: "2025-01", NewMembers: 1, Total: 3},
		}, growth)

		growth, err = m.Dashboard.MemberGrowth(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []MonthlyGrowth{{Month: "2025-01", NewMembers: 1, Total: 3}}, growth)
	})
}

func TestDashboardEmpty(t *testing.T) {
	store, _ := newTestStore(t, RecoverReset)
	m := NewModels(store)

	stats, err := m.Dashboard.PopularBooks(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, stats)

	counts, err := m.Dashboard.BorrowerDistribution(context.Background())
	require.NoError(t, err)
	assert.Len(t, counts, len(BorrowerCategories))
}
