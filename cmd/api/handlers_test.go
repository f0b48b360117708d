package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aoideee/libraryhub/internal/config"
	"github.com/aoideee/libraryhub/internal/storage"
)

func newTestApplication(t *testing.T) *applicationDependencies {
	t.Helper()
	cfg := &config.Config{
		Port: 4000,
		Env:  "testing",
		Storage: storage.Config{
			Backend:        "memory",
			CleanupOnStart: true,
		},
		CORS: config.CORS{TrustedOrigins: []string{"http://localhost:5173"}},
	}
	app, closeStorage, err := newApplication(context.Background(), cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(closeStorage)
	return app
}

// do sends a request through the full middleware chain and decodes the
// JSON response body.
func do(t *testing.T, h http.Handler, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var out map[string]any
	if rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	}
	return rr.Code, out
}

func idOf(t *testing.T, resp map[string]any, key string) string {
	t.Helper()
	rec, ok := resp[key].(map[string]any)
	require.True(t, ok, "missing %q in %v", key, resp)
	return strconv.FormatInt(int64(rec["id"].(float64)), 10)
}

func TestHealthcheck(t *testing.T) {
	app := newTestApplication(t)

	code, resp := do(t, app.routes(), http.MethodGet, "/api/healthcheck", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "available", resp["status"])
}

func TestBookHandlers(t *testing.T) {
	app := newTestApplication(t)
	h := app.routes()

	code, resp := do(t, h, http.MethodPost, "/api/books", `{"title": "Dune", "author": "Frank Herbert", "cabinet": "A", "shelf": "2"}`)
	require.Equal(t, http.StatusCreated, code, resp)
	book := resp["book"].(map[string]any)
	assert.Equal(t, "A-2", book["bookCode"])
	id := idOf(t, resp, "book")

	code, resp = do(t, h, http.MethodGet, "/api/books/"+id, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Dune", resp["book"].(map[string]any)["title"])

	code, resp = do(t, h, http.MethodPatch, "/api/books/"+id, `{"copies": 5}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(5), resp["book"].(map[string]any)["copies"])
	assert.Equal(t, "Frank Herbert", resp["book"].(map[string]any)["author"])

	code, resp = do(t, h, http.MethodGet, "/api/books", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, resp["books"], 1)

	code, _ = do(t, h, http.MethodDelete, "/api/books/"+id, "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = do(t, h, http.MethodDelete, "/api/books/"+id, "")
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = do(t, h, http.MethodGet, "/api/books/"+id, "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCreateBookErrors(t *testing.T) {
	app := newTestApplication(t)
	h := app.routes()

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"missing title", `{"author": "x"}`, http.StatusUnprocessableEntity},
		{"unknown field", `{"title": "x", "isbn": "123"}`, http.StatusBadRequest},
		{"bad json", `{"title": `, http.StatusBadRequest},
		{"empty body", ``, http.StatusBadRequest},
		{"two values", `{"title": "a"}{"title": "b"}`, http.StatusBadRequest},
		{"wrong type", `{"title": 7}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := do(t, h, http.MethodPost, "/api/books", tt.body)
			assert.Equal(t, tt.wantCode, code)
			assert.Contains(t, resp, "error")
		})
	}
}

func TestBorrowingHandlers(t *testing.T) {
	app := newTestApplication(t)
	h := app.routes()

	_, resp := do(t, h, http.MethodPost, "/api/librarians", `{"name": "Ruth"}`)
	librarianID := idOf(t, resp, "librarian")
	_, resp = do(t, h, http.MethodPost, "/api/borrowers", `{"name": "Ada", "category": "university"}`)
	borrowerID := idOf(t, resp, "borrower")
	_, resp = do(t, h, http.MethodPost, "/api/books", `{"title": "Dune"}`)
	bookID := idOf(t, resp, "book")

	code, resp := do(t, h, http.MethodPost, "/api/borrowings",
		`{"borrowerId": `+borrowerID+`, "librarianId": 1, "bookId": `+bookID+`, "borrowDate": "2025-03-01", "dueDate": "2025-03-15"}`)
	require.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, resp["error"], "librarianId")

	code, resp = do(t, h, http.MethodPost, "/api/borrowings",
		`{"borrowerId": `+borrowerID+`, "librarianId": `+librarianID+`, "borrowDate": "2025-03-01", "dueDate": "2025-03-15"}`)
	require.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, resp["error"], "bookId")

	code, resp = do(t, h, http.MethodPost, "/api/borrowings",
		`{"borrowerId": `+borrowerID+`, "librarianId": `+librarianID+`, "bookId": `+bookID+`, "borrowDate": "2025-03-01", "dueDate": "2025-03-15"}`)
	require.Equal(t, http.StatusCreated, code, resp)
	assert.Equal(t, "borrowed", resp["borrowing"].(map[string]any)["status"])

	code, resp = do(t, h, http.MethodGet, "/api/borrowings?borrowerId="+borrowerID, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, resp["borrowings"], 1)

	code, _ = do(t, h, http.MethodGet, "/api/borrowings?borrowerId=abc", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = do(t, h, http.MethodGet, "/api/dashboard/most-borrowed-books?limit=3", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, resp["books"], 1)
}

func TestMembershipAndDashboardHandlers(t *testing.T) {
	app := newTestApplication(t)
	h := app.routes()

	code, resp := do(t, h, http.MethodPost, "/api/membership-application", `{"name": "Kofi", "category": "secondary"}`)
	require.Equal(t, http.StatusCreated, code, resp)
	assert.Equal(t, "Kofi", resp["borrower"].(map[string]any)["name"])
	assert.Equal(t, "approved", resp["application"].(map[string]any)["status"])

	code, resp = do(t, h, http.MethodGet, "/api/dashboard/borrower-distribution", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, resp["distribution"], 5)

	code, resp = do(t, h, http.MethodGet, "/api/dashboard/member-growth", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, resp["growth"], 1)
}

func TestRouterErrors(t *testing.T) {
	app := newTestApplication(t)
	h := app.routes()

	code, _ := do(t, h, http.MethodGet, "/api/quotes", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, h, http.MethodDelete, "/api/books", "")
	assert.Equal(t, http.StatusMethodNotAllowed, code)

	code, _ = do(t, h, http.MethodGet, "/api/books/-1", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestMiddleware(t *testing.T) {
	app := newTestApplication(t)
	h := app.routes()

	t.Run("request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/healthcheck", nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))

		req.Header.Set("X-Request-Id", "abc-123")
		rr = httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, "abc-123", rr.Header().Get("X-Request-Id"))
	})

	t.Run("cors preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/books", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))

		req.Header.Set("Origin", "http://evil.example")
		rr = httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("recover panic", func(t *testing.T) {
		panicky := app.recoverPanic(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}))
		code, resp := do(t, panicky, http.MethodGet, "/", "")
		assert.Equal(t, http.StatusInternalServerError, code)
		assert.Contains(t, resp, "error")
	})

	t.Run("rate limit", func(t *testing.T) {
		app.config.Limiter = config.Limiter{Enabled: true, RPS: 1, Burst: 2}
		limited := app.rateLimit(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		var codes []int
		for range 3 {
			rr := httptest.NewRecorder()
			limited.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
			codes = append(codes, rr.Code)
		}
		assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	})
}

func TestSweepOverdueDisabled(t *testing.T) {
	app := newTestApplication(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	app.sweepOverdue(ctx, 0)
}
