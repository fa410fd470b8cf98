package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/salonkit/reserve-core/internal/apperr"
	"github.com/salonkit/reserve-core/internal/models"
	"github.com/salonkit/reserve-core/internal/repository"
	"github.com/salonkit/reserve-core/internal/service"
)

// --- Request DTOs ---

type CreateServiceBody struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Price       int64  `json:"price"`
	DurationMin int    `json:"duration_min"`
	LastStart   string `json:"last_start,omitempty"` // HH:MM
	Active      *bool  `json:"active,omitempty"`
}

type CreateClosureBody struct {
	Date      string `json:"date"` // YYYY-MM-DD
	AllDay    bool   `json:"all_day"`
	StartTime string `json:"start_time,omitempty"` // HH:MM, partial closure
	EndTime   string `json:"end_time,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type CreateForcedOpenBody struct {
	Date string `json:"date"` // YYYY-MM-DD
}

// AdminHandler covers the catalog and calendar write surface. Calendar edits
// invalidate the availability policy cache for the touched date.
type AdminHandler struct {
	services     *repository.ServiceRepo
	calendar     *repository.CalendarRepo
	availability *service.AvailabilityService
}

func NewAdminHandler(services *repository.ServiceRepo, calendar *repository.CalendarRepo, availability *service.AvailabilityService) *AdminHandler {
	return &AdminHandler{services: services, calendar: calendar, availability: availability}
}

// CreateService handles POST /admin/services
func (h *AdminHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	var body CreateServiceBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperr.Validation("invalid_body", "request body must be valid JSON"))
		return
	}

	if body.ID == "" || body.Name == "" || body.Category == "" {
		writeError(w, apperr.Validation("missing_fields", "id, name and category are required"))
		return
	}
	if body.Price < 0 || body.DurationMin <= 0 {
		writeError(w, apperr.Validation("invalid_fields", "price must not be negative and duration_min must be positive"))
		return
	}

	svc := &models.Service{
		ID:          body.ID,
		Name:        body.Name,
		Category:    body.Category,
		Price:       body.Price,
		DurationMin: body.DurationMin,
		Active:      true,
	}
	if body.Active != nil {
		svc.Active = *body.Active
	}
	if body.LastStart != "" {
		t, err := models.NewTimeOfDay(body.LastStart)
		if err != nil {
			writeError(w, apperr.Validation("invalid_last_start", "last_start must be formatted HH:MM"))
			return
		}
		svc.LastStart = t
	}

	if err := h.services.Create(r.Context(), svc); err != nil {
		writeError(w, apperr.Upstream("could not create service", err))
		return
	}
	writeJSON(w, http.StatusCreated, svc)
}

// CreateClosure handles POST /admin/closures
func (h *AdminHandler) CreateClosure(w http.ResponseWriter, r *http.Request) {
	var body CreateClosureBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperr.Validation("invalid_body", "request body must be valid JSON"))
		return
	}

	date, err := parseDate(body.Date)
	if err != nil {
		writeError(w, err)
		return
	}

	closure := &models.Closure{Date: date, AllDay: body.AllDay, Reason: body.Reason}
	if !body.AllDay {
		start, err := parseTimeOfDayOrEmpty(body.StartTime)
		if err != nil {
			writeError(w, apperr.Validation("invalid_start_time", "start_time must be formatted HH:MM"))
			return
		}
		end, err := parseTimeOfDayOrEmpty(body.EndTime)
		if err != nil {
			writeError(w, apperr.Validation("invalid_end_time", "end_time must be formatted HH:MM"))
			return
		}
		if start == nil || end == nil || !start.Before(*end) {
			writeError(w, apperr.Validation("invalid_window", "a partial closure needs start_time before end_time"))
			return
		}
		closure.StartTime = start
		closure.EndTime = end
	}

	if err := h.calendar.CreateClosure(r.Context(), closure); err != nil {
		writeError(w, apperr.Upstream("could not create closure", err))
		return
	}
	h.availability.InvalidateDate(date)
	writeJSON(w, http.StatusCreated, closure)
}

// CreateForcedOpenDay handles POST /admin/forced-open-days
func (h *AdminHandler) CreateForcedOpenDay(w http.ResponseWriter, r *http.Request) {
	var body CreateForcedOpenBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperr.Validation("invalid_body", "request body must be valid JSON"))
		return
	}

	date, err := parseDate(body.Date)
	if err != nil {
		writeError(w, err)
		return
	}

	day := &models.ForcedOpenDay{Date: date}
	if err := h.calendar.CreateForcedOpenDay(r.Context(), day); err != nil {
		writeError(w, apperr.Upstream("could not create forced open day", err))
		return
	}
	h.availability.InvalidateDate(date)
	writeJSON(w, http.StatusCreated, day)
}
