package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/salonkit/reserve-core/internal/apperr"
	"github.com/salonkit/reserve-core/internal/models"
	"github.com/salonkit/reserve-core/internal/service"
)

// --- Request DTOs ---

type CreateReservationBody struct {
	CustomerID     string   `json:"customer_id"`
	ServiceIDs     []string `json:"service_ids"`
	Date           string   `json:"date"`       // YYYY-MM-DD
	StartTime      string   `json:"start_time"` // HH:MM
	Note           string   `json:"note,omitempty"`
	CouponCode     string   `json:"coupon_code,omitempty"`
	CouponRequired bool     `json:"coupon_required,omitempty"`
}

type UpdateReservationBody struct {
	ServiceIDs []string `json:"service_ids,omitempty"`
	Date       *string  `json:"date,omitempty"`
	StartTime  *string  `json:"start_time,omitempty"`
	EndTime    *string  `json:"end_time,omitempty"`
	Note       *string  `json:"note,omitempty"`
}

type SetStatusBody struct {
	Status string `json:"status"`
}

type ReservationHandler struct {
	reservations *service.ReservationService
}

func NewReservationHandler(reservations *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservations: reservations}
}

// Create handles POST /reservations
func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body CreateReservationBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperr.Validation("invalid_body", "request body must be valid JSON"))
		return
	}

	customerID, err := uuid.Parse(body.CustomerID)
	if err != nil {
		writeError(w, apperr.Validation("invalid_customer_id", "customer_id must be a UUID"))
		return
	}
	date, err := parseDate(body.Date)
	if err != nil {
		writeError(w, err)
		return
	}
	startTime, err := models.NewTimeOfDay(body.StartTime)
	if err != nil {
		writeError(w, apperr.Validation("invalid_start_time", "start_time must be formatted HH:MM"))
		return
	}

	appt, err := h.reservations.Create(r.Context(), service.CreateReservationRequest{
		CustomerID:     customerID,
		ServiceIDs:     body.ServiceIDs,
		Date:           date,
		StartTime:      startTime,
		Note:           body.Note,
		CouponCode:     body.CouponCode,
		CouponRequired: body.CouponRequired,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

// Get handles GET /reservations/{id}
func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseReservationID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	appt, err := h.reservations.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// Update handles PATCH /reservations/{id}
func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseReservationID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var body UpdateReservationBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperr.Validation("invalid_body", "request body must be valid JSON"))
		return
	}

	req := service.UpdateReservationRequest{
		ServiceIDs: body.ServiceIDs,
		Note:       body.Note,
	}
	if body.Date != nil {
		d, err := parseDate(*body.Date)
		if err != nil {
			writeError(w, err)
			return
		}
		req.Date = &d
	}
	if body.StartTime != nil {
		t, err := models.NewTimeOfDay(*body.StartTime)
		if err != nil {
			writeError(w, apperr.Validation("invalid_start_time", "start_time must be formatted HH:MM"))
			return
		}
		req.StartTime = &t
	}
	if body.EndTime != nil {
		t, err := models.NewTimeOfDay(*body.EndTime)
		if err != nil {
			writeError(w, apperr.Validation("invalid_end_time", "end_time must be formatted HH:MM"))
			return
		}
		req.EndTime = &t
	}

	appt, err := h.reservations.Update(r.Context(), id, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// Cancel handles DELETE /reservations/{id}. Cancellation is a status
// transition; the row survives for history.
func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := parseReservationID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.reservations.Cancel(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(models.AppointmentStatusCancelled)})
}

// SetStatus handles POST /reservations/{id}/status
func (h *ReservationHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseReservationID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var body SetStatusBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperr.Validation("invalid_body", "request body must be valid JSON"))
		return
	}

	if err := h.reservations.SetStatus(r.Context(), id, models.AppointmentStatus(body.Status)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": body.Status})
}

// Delete handles DELETE /admin/reservations/{id}, the hard delete.
func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseReservationID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.reservations.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseReservationID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid_id", "reservation id must be a UUID")
	}
	return id, nil
}
