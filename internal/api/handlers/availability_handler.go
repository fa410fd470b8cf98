package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/salonkit/reserve-core/internal/apperr"
	"github.com/salonkit/reserve-core/internal/service"
)

type AvailabilityHandler struct {
	availability *service.AvailabilityService
}

func NewAvailabilityHandler(availability *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability}
}

// Get handles GET /availability?date=2026-09-01&service_ids=cut,color
func (h *AvailabilityHandler) Get(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, err)
		return
	}

	serviceIDs := splitCSV(r.URL.Query().Get("service_ids"))
	if len(serviceIDs) == 0 {
		writeError(w, apperr.Validation("no_services", "at least one service id is required"))
		return
	}

	view, err := h.availability.Get(r.Context(), date, serviceIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, apperr.Validation("missing_date", "a date query parameter is required")
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, apperr.Validation("invalid_date", "date must be formatted YYYY-MM-DD")
	}
	return d, nil
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
