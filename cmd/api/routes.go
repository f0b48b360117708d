// cmd/api/routes.go
package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// routes registers all HTTP endpoints and returns the router wrapped in the
// middleware chain.
//
// Middleware chain (outermost → innermost):
//
//	recoverPanic → requestID → logRequest → enableCORS → rateLimit → router
func (app *applicationDependencies) routes() http.Handler {
	router := httprouter.New()

	// Override the default httprouter error handlers to return JSON responses.
	router.NotFound = http.HandlerFunc(app.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedResponse)

	router.HandlerFunc(http.MethodGet, "/api/healthcheck", app.healthcheckHandler)

	router.HandlerFunc(http.MethodGet, "/api/books", app.listBooksHandler)
	router.HandlerFunc(http.MethodPost, "/api/books", app.createBookHandler)
	router.HandlerFunc(http.MethodGet, "/api/books/:id", app.showBookHandler)
	router.HandlerFunc(http.MethodPut, "/api/books/:id", app.updateBookHandler)
	router.HandlerFunc(http.MethodPatch, "/api/books/:id", app.updateBookHandler)
	router.HandlerFunc(http.MethodDelete, "/api/books/:id", app.deleteBookHandler)

	router.HandlerFunc(http.MethodGet, "/api/borrowers", app.listBorrowersHandler)
	router.HandlerFunc(http.MethodPost, "/api/borrowers", app.createBorrowerHandler)
	router.HandlerFunc(http.MethodGet, "/api/borrowers/:id", app.showBorrowerHandler)
	router.HandlerFunc(http.MethodPut, "/api/borrowers/:id", app.updateBorrowerHandler)
	router.HandlerFunc(http.MethodPatch, "/api/borrowers/:id", app.updateBorrowerHandler)
	router.HandlerFunc(http.MethodDelete, "/api/borrowers/:id", app.deleteBorrowerHandler)

	router.HandlerFunc(http.MethodGet, "/api/librarians", app.listLibrariansHandler)
	router.HandlerFunc(http.MethodPost, "/api/librarians", app.createLibrarianHandler)
	router.HandlerFunc(http.MethodGet, "/api/librarians/:id", app.showLibrarianHandler)
	router.HandlerFunc(http.MethodPut, "/api/librarians/:id", app.updateLibrarianHandler)
	router.HandlerFunc(http.MethodPatch, "/api/librarians/:id", app.updateLibrarianHandler)
	router.HandlerFunc(http.MethodDelete, "/api/librarians/:id", app.deleteLibrarianHandler)

	router.HandlerFunc(http.MethodGet, "/api/borrowings", app.listBorrowingsHandler)
	router.HandlerFunc(http.MethodPost, "/api/borrowings", app.createBorrowingHandler)
	router.HandlerFunc(http.MethodGet, "/api/borrowings/:id", app.showBorrowingHandler)
	router.HandlerFunc(http.MethodPut, "/api/borrowings/:id", app.updateBorrowingHandler)
	router.HandlerFunc(http.MethodPatch, "/api/borrowings/:id", app.updateBorrowingHandler)
	router.HandlerFunc(http.MethodDelete, "/api/borrowings/:id", app.deleteBorrowingHandler)

	router.HandlerFunc(http.MethodGet, "/api/feedback", app.listFeedbackHandler)
	router.HandlerFunc(http.MethodPost, "/api/feedback", app.createFeedbackHandler)
	router.HandlerFunc(http.MethodGet, "/api/feedback/:id", app.showFeedbackHandler)
	router.HandlerFunc(http.MethodPut, "/api/feedback/:id", app.updateFeedbackHandler)
	router.HandlerFunc(http.MethodPatch, "/api/feedback/:id", app.updateFeedbackHandler)
	router.HandlerFunc(http.MethodDelete, "/api/feedback/:id", app.deleteFeedbackHandler)

	router.HandlerFunc(http.MethodGet, "/api/research-papers", app.listResearchPapersHandler)
	router.HandlerFunc(http.MethodPost, "/api/research-papers", app.createResearchPaperHandler)
	router.HandlerFunc(http.MethodGet, "/api/research-papers/:id", app.showResearchPaperHandler)
	router.HandlerFunc(http.MethodPut, "/api/research-papers/:id", app.updateResearchPaperHandler)
	router.HandlerFunc(http.MethodPatch, "/api/research-papers/:id", app.updateResearchPaperHandler)
	router.HandlerFunc(http.MethodDelete, "/api/research-papers/:id", app.deleteResearchPaperHandler)

	router.HandlerFunc(http.MethodGet, "/api/membership-application", app.listMembershipApplicationsHandler)
	router.HandlerFunc(http.MethodPost, "/api/membership-application", app.applyForMembershipHandler)

	router.HandlerFunc(http.MethodGet, "/api/dashboard/most-borrowed-books", app.mostBorrowedBooksHandler)
	router.HandlerFunc(http.MethodGet, "/api/dashboard/popular-books", app.popularBooksHandler)
	router.HandlerFunc(http.MethodGet, "/api/dashboard/top-borrowers", app.topBorrowersHandler)
	router.HandlerFunc(http.MethodGet, "/api/dashboard/borrower-distribution", app.borrowerDistributionHandler)
	router.HandlerFunc(http.MethodGet, "/api/dashboard/member-growth", app.memberGrowthHandler)

	return app.recoverPanic(app.requestID(app.logRequest(app.enableCORS(app.rateLimit(router)))))
}
