// cmd/api/dashboard.go
// Membership sign-up and the read-only dashboard views.
package main

import (
	"net/http"

	"github.com/aoideee/libraryhub/internal/data"
)

// applyForMembershipHandler handles POST /api/membership-application.
// The application is approved immediately; the response carries both the
// stored application and the borrower created for it.
func (app *applicationDependencies) applyForMembershipHandler(w http.ResponseWriter, r *http.Request) {
	var application data.MembershipApplication
	err := app.readJSON(w, r, &application)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	borrower, err := app.models.Memberships.Apply(r.Context(), &application)
	if err != nil {
		app.modelErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"application": application, "borrower": borrower}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *applicationDependencies) listMembershipApplicationsHandler(w http.ResponseWriter, r *http.Request) {
	applications, err := app.models.Memberships.GetAll(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"applications": applications}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// dashboardView serves one dashboard view under key. limit comes from the
// ?limit= query parameter; 0 lets the model pick its default.
func (app *applicationDependencies) dashboardView(key string, view func(r *http.Request, limit int) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := app.readInt(r.URL.Query(), "limit", 0)

		result, err := view(r, limit)
		if err != nil {
			app.serverErrorResponse(w, r, err)
			return
		}

		err = app.writeJSON(w, http.StatusOK, envelope{key: result}, nil)
		if err != nil {
			app.serverErrorResponse(w, r, err)
		}
	}
}

func (app *applicationDependencies) mostBorrowedBooksHandler(w http.ResponseWriter, r *http.Request) {
	app.dashboardView("books", func(r *http.Request, limit int) (any, error) {
		return app.models.Dashboard.MostBorrowedBooks(r.Context(), limit)
	})(w, r)
}

func (app *applicationDependencies) popularBooksHandler(w http.ResponseWriter, r *http.Request) {
	app.dashboardView("books", func(r *http.Request, limit int) (any, error) {
		return app.models.Dashboard.PopularBooks(r.Context(), limit)
	})(w, r)
}

func (app *applicationDependencies) topBorrowersHandler(w http.ResponseWriter, r *http.Request) {
	app.dashboardView("borrowers", func(r *http.Request, limit int) (any, error) {
		return app.models.Dashboard.TopBorrowers(r.Context(), limit)
	})(w, r)
}

func (app *applicationDependencies) borrowerDistributionHandler(w http.ResponseWriter, r *http.Request) {
	app.dashboardView("distribution", func(r *http.Request, _ int) (any, error) {
		return app.models.Dashboard.BorrowerDistribution(r.Context())
	})(w, r)
}

func (app *applicationDependencies) memberGrowthHandler(w http.ResponseWriter, r *http.Request) {
	app.dashboardView("growth", func(r *http.Request, limit int) (any, error) {
		return app.models.Dashboard.MemberGrowth(r.Context(), limit)
	})(w, r)
}
