package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/drachma-games/casino/internal/games"
)

func jsonEncode(w io.Writer, data interface{}) error {
	return json.NewEncoder(w).Encode(data)
}

// apiError is the JSON error envelope.
type apiError struct {
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Context   map[string]interface{} `json:"context,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// writeError writes a structured error response.
func (s *Server) writeError(w http.ResponseWriter, status int, errType, message string, context map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Type", errType)
	w.WriteHeader(status)
	s.writeJSONBody(w, apiError{Type: errType, Message: message, Context: context})
}

func (s *Server) writeJSONBody(w http.ResponseWriter, data interface{}) {
	// Best effort; headers are already out.
	_ = jsonEncode(w, data)
}

// writeGameError maps the engine error taxonomy onto HTTP statuses. Every
// engine rejection leaves state unchanged, so these are all safe to retry
// after the caller fixes the request.
func (s *Server) writeGameError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetReqID(r.Context())
	ctx := map[string]interface{}{"path": r.URL.Path}

	var status int
	var errType string
	switch {
	case errors.Is(err, games.ErrInvalidBet):
		status, errType = http.StatusBadRequest, "invalid_bet"
	case errors.Is(err, games.ErrConfiguration):
		status, errType = http.StatusBadRequest, "configuration_error"
	case errors.Is(err, games.ErrInsufficientBalance):
		status, errType = http.StatusPaymentRequired, "insufficient_balance"
	case errors.Is(err, games.ErrInvalidAction):
		status, errType = http.StatusConflict, "invalid_action"
	default:
		status, errType = http.StatusInternalServerError, "internal"
		s.logger.Printf("unexpected error request_id=%s path=%s: %v", requestID, r.URL.Path, err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Type", errType)
	w.WriteHeader(status)
	s.writeJSONBody(w, apiError{
		Type:      errType,
		Message:   err.Error(),
		Context:   ctx,
		RequestID: requestID,
	})
}
