package server

import (
	"encoding/json"
	"net/http"

	"github.com/tocos/ledger-service/internal/domain"
)

// writeJSON writes v as a 200 JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// writeError maps a service error onto its HTTP status and client
// message. The taxonomy is a closed set, matched exhaustively here:
// pool exhaustion is the one server-side condition, everything else is
// a client-correctable request. Errors from outside the set are
// reported as database query failures, never leaked verbatim.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)

	var status int
	switch kind {
	case domain.KindResourceBusy:
		status = http.StatusInternalServerError
	case domain.KindSenderDoesNotExist,
		domain.KindRecipientDoesNotExist,
		domain.KindNotEnoughBalance,
		domain.KindAccountExists,
		domain.KindWindowLimitExceeded,
		domain.KindSerializationFailure,
		domain.KindDatabaseQueryError:
		status = http.StatusBadRequest
	default:
		kind = domain.KindDatabaseQueryError
		status = http.StatusInternalServerError
	}

	s.logger.Warn("request failed",
		"method", r.Method, "path", r.URL.Path, "status", status, "error", err)

	w.WriteHeader(status)
	w.Write([]byte(kind.Message()))
}

// failureReason labels a transfer outcome for metrics. Empty for success.
func failureReason(err error) string {
	switch domain.KindOf(err) {
	case domain.KindUnknown:
		if err == nil {
			return ""
		}
		return "database_query_error"
	case domain.KindResourceBusy:
		return "resource_busy"
	case domain.KindSenderDoesNotExist:
		return "sender_does_not_exist"
	case domain.KindRecipientDoesNotExist:
		return "recipient_does_not_exist"
	case domain.KindNotEnoughBalance:
		return "not_enough_balance"
	case domain.KindSerializationFailure:
		return "serialization_failure"
	default:
		return "database_query_error"
	}
}
