package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tocos/ledger-service/internal/domain"
)

// transferRequest is the body of POST /transactions.
type transferRequest struct {
	FromID int64 `json:"from_id"`
	ToID   int64 `json:"to_id"`
	Amount int64 `json:"amount"`
}

// handleGetAccounts serves GET /users: every account, id descending.
func (s *Server) handleGetAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.accounts.GetAccounts(r.Context(), nil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, accounts)
}

// handleGetAccountByID serves GET /users/{id}: a JSON array holding the
// one matching account.
func (s *Server) handleGetAccountByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeError(w, r, domain.NewError(domain.KindSerializationFailure, err))
		return
	}

	accounts, err := s.accounts.GetAccounts(r.Context(), &id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, accounts)
}

// handleCreateAccount serves POST /users with body {id, balance}.
func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var account domain.Account
	if err := json.NewDecoder(r.Body).Decode(&account); err != nil {
		s.writeError(w, r, domain.NewError(domain.KindSerializationFailure, err))
		return
	}
	if account.Balance < 0 {
		s.writeError(w, r, domain.NewError(domain.KindSerializationFailure, nil))
		return
	}

	ack, err := s.accounts.CreateAccount(r.Context(), account)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if s.collector != nil {
		s.collector.RecordAccountCreated()
	}
	s.writeJSON(w, ack)
}

// handleGetTransactions serves GET /transactions?limit=N: the most
// recent N ledger entries, newest first. An omitted limit means the
// maximum window; anything outside (0, 25] is rejected before the store
// is touched.
func (s *Server) handleGetTransactions(w http.ResponseWriter, r *http.Request) {
	limit := domain.MaxWindowSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, r, domain.NewError(domain.KindWindowLimitExceeded, err))
			return
		}
		limit = parsed
	}
	if limit <= 0 || limit > domain.MaxWindowSize {
		s.writeError(w, r, domain.NewError(domain.KindWindowLimitExceeded, nil))
		return
	}

	transactions, err := s.transfers.ListTransactions(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, transactions)
}

// handlePostTransaction serves POST /transactions with body
// {from_id, to_id, amount}.
func (s *Server) handlePostTransaction(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, domain.NewError(domain.KindSerializationFailure, err))
		return
	}
	if req.Amount <= 0 {
		s.writeError(w, r, domain.NewError(domain.KindSerializationFailure, nil))
		return
	}

	start := time.Now()
	ack, err := s.transfers.ExecuteTransfer(r.Context(), req.FromID, req.ToID, req.Amount)
	if s.collector != nil {
		s.collector.RecordTransfer(time.Since(start), failureReason(err))
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, ack)
}
