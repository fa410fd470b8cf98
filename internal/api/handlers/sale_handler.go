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

type PaymentLineBody struct {
	Method string `json:"method"`
	Amount int64  `json:"amount"`
}

type SettleSaleBody struct {
	SaleID        string            `json:"sale_id"`
	CustomerID    string            `json:"customer_id"`
	ReservationID string            `json:"reservation_id,omitempty"`
	ServiceIDs    []string          `json:"service_ids,omitempty"`
	CouponCode    string            `json:"coupon_code,omitempty"`
	Payments      []PaymentLineBody `json:"payments"`
}

type SaleHandler struct {
	settlement *service.SettlementService
}

func NewSaleHandler(settlement *service.SettlementService) *SaleHandler {
	return &SaleHandler{settlement: settlement}
}

// Settle handles POST /sales. The caller supplies sale_id, so a network
// retry replays to the same settled sale instead of double charging.
func (h *SaleHandler) Settle(w http.ResponseWriter, r *http.Request) {
	var body SettleSaleBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperr.Validation("invalid_body", "request body must be valid JSON"))
		return
	}

	saleID, err := uuid.Parse(body.SaleID)
	if err != nil {
		writeError(w, apperr.Validation("invalid_sale_id", "sale_id must be a UUID"))
		return
	}

	req := service.SettleRequest{
		SaleID:     saleID,
		ServiceIDs: body.ServiceIDs,
		CouponCode: body.CouponCode,
	}

	if body.ReservationID != "" {
		rid, err := uuid.Parse(body.ReservationID)
		if err != nil {
			writeError(w, apperr.Validation("invalid_reservation_id", "reservation_id must be a UUID"))
			return
		}
		req.ReservationID = &rid
	} else {
		// direct walk-in sale, customer comes from the request
		customerID, err := uuid.Parse(body.CustomerID)
		if err != nil {
			writeError(w, apperr.Validation("invalid_customer_id", "customer_id must be a UUID"))
			return
		}
		req.CustomerID = customerID
	}

	for _, p := range body.Payments {
		req.Payments = append(req.Payments, models.PaymentLine{Method: p.Method, Amount: p.Amount})
	}

	sale, err := h.settlement.Finalize(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sale)
}

// Get handles GET /sales/{id}
func (h *SaleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperr.Validation("invalid_id", "sale id must be a UUID"))
		return
	}

	sale, err := h.settlement.Lookup(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sale)
}
