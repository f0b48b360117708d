package main

import (
	"net/http"

	"github.com/aoideee/libraryhub/internal/data"
)

func (app *applicationDependencies) createBorrowerHandler(w http.ResponseWriter, r *http.Request) {
	var borrower data.Borrower
	err := app.readJSON(w, r, &borrower)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.models.Borrowers.Insert(r.Context(), &borrower)
	if err != nil {
		app.modelErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"borrower": borrower}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *applicationDependencies) showBorrowerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	borrower, err := app.models.Borrowers.Get(r.Context(), id)
	if err != nil {
		app.modelErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"borrower": borrower}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listBorrowersHandler handles GET /api/borrowers?category=.
func (app *applicationDependencies) listBorrowersHandler(w http.ResponseWriter, r *http.Request) {
	filter := data.BorrowerFilter{
		Category: app.readString(r.URL.Query(), "category", ""),
	}

	borrowers, err := app.models.Borrowers.GetAll(r.Context(), filter)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"borrowers": borrowers}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *applicationDependencies) updateBorrowerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input data.UpdateBorrowerInput
	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	borrower, err := app.models.Borrowers.Update(r.Context(), id, input)
	if err != nil {
		app.modelErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"borrower": borrower}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *applicationDependencies) deleteBorrowerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	removed, err := app.models.Borrowers.Delete(r.Context(), id)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	if !removed {
		app.notFoundResponse(w, r)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "borrower successfully deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
