package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/salonkit/reserve-core/internal/apperr"
)

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the uniform error payload. Conflict errors additionally carry
// the colliding interval so the client can re-render the day.
type errorBody struct {
	Error    string      `json:"error"`
	Message  string      `json:"message"`
	Conflict interface{} `json:"conflict,omitempty"`
}

// writeError maps classified errors to HTTP statuses. Unclassified errors are
// logged and surface as a generic 503 so internals never leak.
func writeError(w http.ResponseWriter, err error) {
	e, ok := apperr.As(err)
	if !ok {
		log.Error().Err(err).Msg("unclassified handler error")
		writeJSON(w, http.StatusServiceUnavailable, errorBody{
			Error:   "internal_error",
			Message: "something went wrong, please retry",
		})
		return
	}

	body := errorBody{Error: e.Code, Message: e.Message}
	if e.Conflict != nil {
		body.Conflict = e.Conflict
	}

	switch e.Kind {
	case apperr.KindValidation:
		writeJSON(w, http.StatusBadRequest, body)
	case apperr.KindNotFound:
		writeJSON(w, http.StatusNotFound, body)
	case apperr.KindConflict:
		writeJSON(w, http.StatusConflict, body)
	case apperr.KindPolicy, apperr.KindCoupon:
		writeJSON(w, http.StatusUnprocessableEntity, body)
	case apperr.KindUpstream:
		log.Error().Err(err).Msg("upstream failure")
		writeJSON(w, http.StatusServiceUnavailable, body)
	default:
		writeJSON(w, http.StatusInternalServerError, body)
	}
}
