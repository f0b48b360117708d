package main

import (
	"net/http"

	"github.com/aoideee/libraryhub/internal/data"
)

// createBorrowingHandler handles POST /api/borrowings.
// The librarian named by librarianId must already exist, and exactly one of
// bookId or researchId must be set; both are reported as 422.
func (app *applicationDependencies) createBorrowingHandler(w http.ResponseWriter, r *http.Request) {
	var borrowing data.Borrowing
	err := app.readJSON(w, r, &borrowing)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.models.Borrowings.Insert(r.Context(), &borrowing)
	if err != nil {
		app.modelErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"borrowing": borrowing}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *applicationDependencies) showBorrowingHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	borrowing, err := app.models.Borrowings.Get(r.Context(), id)
	if err != nil {
		app.modelErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"borrowing": borrowing}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listBorrowingsHandler handles GET /api/borrowings?borrowerId=.
func (app *applicationDependencies) listBorrowingsHandler(w http.ResponseWriter, r *http.Request) {
	borrowerID, err := app.readID(r.URL.Query(), "borrowerId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	borrowings, err := app.models.Borrowings.GetAll(r.Context(), data.BorrowingFilter{BorrowerID: borrowerID})
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"borrowings": borrowings}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *applicationDependencies) updateBorrowingHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input data.UpdateBorrowingInput
	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	borrowing, err := app.models.Borrowings.Update(r.Context(), id, input)
	if err != nil {
		app.modelErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"borrowing": borrowing}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *applicationDependencies) deleteBorrowingHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	removed, err := app.models.Borrowings.Delete(r.Context(), id)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	if !removed {
		app.notFoundResponse(w, r)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "borrowing successfully deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
