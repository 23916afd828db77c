// Package server exposes the ledger service over HTTP/JSON.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/tocos/ledger-service/internal/domain"
	"github.com/tocos/ledger-service/internal/metrics"
)

// livenessText is the literal body of the index endpoint.
const livenessText = "Ledger service alive."

// AccountAPI is the slice of the account service the handlers need.
type AccountAPI interface {
	GetAccounts(ctx context.Context, id *int64) ([]domain.Account, error)
	CreateAccount(ctx context.Context, account domain.Account) (string, error)
}

// TransferAPI is the slice of the transfer service the handlers need.
type TransferAPI interface {
	ExecuteTransfer(ctx context.Context, fromID, toID, amount int64) (string, error)
	ListTransactions(ctx context.Context, limit int) ([]domain.Transaction, error)
}

// Server routes HTTP requests onto the account and transfer services
// and maps service errors back to status codes.
type Server struct {
	accounts  AccountAPI
	transfers TransferAPI
	collector *metrics.Collector
	logger    *slog.Logger
}

// New creates a Server. collector may be nil to disable instrumentation.
func New(accounts AccountAPI, transfers TransferAPI, collector *metrics.Collector, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		accounts:  accounts,
		transfers: transfers,
		collector: collector,
		logger:    logger,
	}
}

// Router builds the HTTP route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{
			"Content-Type", "User-Agent", "Sec-Fetch-Mode", "Referer", "Origin",
			"Access-Control-Request-Method", "Access-Control-Request-Headers",
		},
	}))

	r.Get("/", s.handleIndex)
	r.Get("/users", s.handleGetAccounts)
	r.Get("/users/{id}", s.handleGetAccountByID)
	r.Post("/users", s.handleCreateAccount)
	r.Get("/transactions", s.handleGetTransactions)
	r.Post("/transactions", s.handlePostTransaction)

	if s.collector != nil {
		r.Method(http.MethodGet, "/metrics", s.collector.Handler())
	}

	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(livenessText))
}
