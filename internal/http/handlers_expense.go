package http

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/core"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/log"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/wire"
)

// handleListExpenses returns every stored expense, newest first. An
// optional ?category= narrows the list.
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	var only core.Category
	if v := strings.TrimSpace(r.URL.Query().Get("category")); v != "" {
		c, ok := core.ParseCategory(v)
		if !ok {
			writeError(w, r, log.OpList, core.NewValidationError("category", core.ErrInvalidCategory))
			return
		}
		only = c
	}

	expenses, err := s.deps.Store.List(r.Context())
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	if only != "" {
		kept := make([]core.Expense, 0, len(expenses))
		for _, e := range expenses {
			if e.Category == only {
				kept = append(kept, e)
			}
		}
		expenses = kept
	}
	writeJSON(w, http.StatusOK, wire.FromExpenses(expenses))
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var body wire.Expense
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}

	in := body.Input()
	in.Description = sanitizeInput(in.Description)
	in.Merchant = sanitizeInput(in.Merchant)

	candidate, err := in.Parse(core.DateOf(s.now()))
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}

	created, err := s.deps.Store.Create(r.Context(), candidate)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	s.invalidateInsights()

	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense created",
		log.NewFields().WithOperation(log.OpCreate).WithExpense(created.ID, created.Amount.Cents, string(created.Category)).ToSlice()...)
	w.Header().Set("Location", "/api/expenses/"+url.PathEscape(created.ID))
	writeJSON(w, http.StatusCreated, wire.FromExpense(created))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, r, log.OpDelete, core.ErrNotFound)
		return
	}

	if err := s.deps.Store.Delete(r.Context(), id); err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	s.invalidateInsights()

	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense deleted",
		log.FieldOperation, log.OpDelete, log.FieldExpenseID, id)
	w.WriteHeader(http.StatusNoContent)
}
