package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/salonkit/reserve-core/internal/apperr"
	"github.com/salonkit/reserve-core/internal/clock"
	"github.com/salonkit/reserve-core/internal/models"
	"github.com/salonkit/reserve-core/internal/repository"
)

// SettleRequest finalizes a sale. SaleID is caller-supplied so a retried
// request is a no-op. Either ReservationID or ServiceIDs drives the line
// items, never both.
type SettleRequest struct {
	SaleID        uuid.UUID
	CustomerID    uuid.UUID
	ReservationID *uuid.UUID
	ServiceIDs    []string
	CouponCode    string
	Payments      []models.PaymentLine
}

// SettlementService is the sole writer of coupon usage. It validates the
// coupon read-only, computes tax-inclusive totals, reconciles payments and
// commits the sale plus the single usage increment in one transaction,
// idempotently per sale id.
type SettlementService struct {
	tx      TxStarter
	catalog *Catalog
	coupons *CouponService
	ledger  CouponLedger
	sales   SaleStore
	appts   AppointmentStore
	taxRate int
	clk     clock.Clock
}

func NewSettlementService(
	tx TxStarter,
	catalog *Catalog,
	coupons *CouponService,
	ledger CouponLedger,
	sales SaleStore,
	appts AppointmentStore,
	taxRatePercent int,
	clk clock.Clock,
) *SettlementService {
	return &SettlementService{
		tx:      tx,
		catalog: catalog,
		coupons: coupons,
		ledger:  ledger,
		sales:   sales,
		appts:   appts,
		taxRate: taxRatePercent,
		clk:     clk,
	}
}

// Finalize settles a sale. Replaying an already-settled sale id returns the
// stored sale unchanged and writes nothing.
func (s *SettlementService) Finalize(ctx context.Context, req SettleRequest) (*models.Sale, error) {
	if req.SaleID == uuid.Nil {
		return nil, apperr.Validation("missing_sale_id", "a sale id is required for idempotent settlement")
	}

	// replay fast path, before any validation: the original settlement may
	// itself have exhausted the coupon, so re-validating a replay would
	// wrongly reject a sale that already succeeded
	if existing, err := s.sales.GetByID(ctx, req.SaleID); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	sale := &models.Sale{
		ID:         req.SaleID,
		CustomerID: req.CustomerID,
		Payments:   req.Payments,
	}

	var appt *models.Appointment
	var couponID *int64
	var discount int64

	if req.ReservationID != nil {
		var err error
		appt, err = s.appts.GetByID(ctx, *req.ReservationID)
		if err != nil {
			return nil, err
		}
		if appt == nil {
			return nil, apperr.NotFound("reservation_not_found", "no such reservation")
		}
		if appt.Status != models.AppointmentStatusConfirmed {
			return nil, apperr.Validation("not_settleable", "reservation is not in a confirmed state")
		}

		sale.ReservationID = &appt.ID
		sale.CustomerID = appt.CustomerID
		sale.Items = itemsFromAppointment(appt)
		sale.Subtotal = appt.Subtotal()

		// the frozen discount is used verbatim, never recomputed; coupon
		// state may have drifted since booking and that is intentional
		if appt.CouponCode != nil {
			discount = appt.DiscountAmount
			meta, err := s.ledger.GetMetaByCode(ctx, *appt.CouponCode)
			if err != nil {
				return nil, err
			}
			if meta != nil {
				id := meta.ID
				couponID = &id
			}
		}
	} else {
		services, err := s.catalog.Resolve(ctx, req.ServiceIDs)
		if err != nil {
			return nil, err
		}
		sale.Items = itemsFromServices(services)
		sale.Subtotal = sumSaleItems(sale.Items)

		if req.CouponCode != "" {
			now := s.clk.Now()
			tod, _ := models.NewTimeOfDay(now.Format("15:04"))
			meta, d, err := s.coupons.Validate(ctx, CouponRequest{
				Code:       req.CouponCode,
				Subtotal:   sale.Subtotal,
				CustomerID: sale.CustomerID,
				ServiceIDs: req.ServiceIDs,
				Categories: saleItemCategories(sale.Items),
				Weekday:    now.Weekday(),
				TimeOfDay:  tod,
			})
			if err != nil {
				// a coupon handed over at the register is always required
				return nil, err
			}
			discount = d
			id := meta.ID
			couponID = &id
		}
	}

	totals := ComputeSettlementTotals(sale.Subtotal, discount, s.taxRate)
	sale.DiscountAmount = totals.Discount
	sale.TaxRate = totals.TaxRate
	sale.TaxAmount = totals.Tax
	sale.Total = totals.Total
	sale.CouponID = couponID

	if err := ReconcilePayments(sale.Payments, sale.Total); err != nil {
		return nil, err
	}

	tx, err := s.tx.Begin(ctx)
	if err != nil {
		return nil, apperr.Upstream("could not start transaction", err)
	}
	defer tx.Rollback()

	inserted, err := s.sales.Insert(ctx, tx, sale)
	if err != nil {
		return nil, apperr.Upstream("could not persist sale", err)
	}
	if !inserted {
		// lost a race with a concurrent replay: return its sale, write nothing
		existing, err := s.sales.GetByID(ctx, sale.ID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, apperr.Upstream("sale insert conflicted but row is missing", nil)
		}
		return existing, nil
	}

	if err := s.sales.InsertLines(ctx, tx, sale); err != nil {
		return nil, apperr.Upstream("could not persist sale lines", err)
	}

	if couponID != nil {
		if err := s.consumeCoupon(ctx, tx, *couponID, sale); err != nil {
			return nil, err
		}
	}

	if appt != nil {
		if err := s.appts.UpdateStatus(ctx, tx, appt.ID, models.AppointmentStatusCompleted); err != nil {
			return nil, apperr.Upstream("could not complete reservation", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Upstream("could not commit sale", err)
	}
	return sale, nil
}

// Lookup returns a settled sale with its lines and payments.
func (s *SettlementService) Lookup(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	sale, err := s.sales.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, apperr.NotFound("sale_not_found", "no such sale")
	}
	return sale, nil
}

// consumeCoupon performs the single usage-increment write, under a row lock
// so the global limit holds against concurrent settlements.
func (s *SettlementService) consumeCoupon(ctx context.Context, tx repository.DBExecutor, couponID int64, sale *models.Sale) error {
	coupon, err := s.ledger.LockByID(ctx, tx, couponID)
	if err != nil {
		return apperr.Upstream("could not lock coupon", err)
	}
	if coupon == nil {
		return apperr.Coupon("coupon_not_found", "coupon disappeared before settlement")
	}
	if coupon.UsageLimit != nil && coupon.UsageCount >= *coupon.UsageLimit {
		return apperr.Coupon("coupon_exhausted", "this coupon has reached its usage limit")
	}

	if err := s.ledger.IncrementUsage(ctx, tx, couponID); err != nil {
		return apperr.Upstream("could not increment coupon usage", err)
	}
	return s.sales.InsertCouponUsage(ctx, tx, &models.CouponUsage{
		CouponID:   couponID,
		SaleID:     sale.ID,
		CustomerID: sale.CustomerID,
	})
}

func itemsFromAppointment(appt *models.Appointment) []models.SaleItem {
	items := make([]models.SaleItem, 0, len(appt.Items))
	for i, it := range appt.Items {
		items = append(items, models.SaleItem{
			ServiceID:   it.ServiceID,
			ServiceName: it.ServiceName,
			Category:    it.Category,
			Price:       it.Price,
			Position:    i,
		})
	}
	return items
}

func itemsFromServices(services []models.Service) []models.SaleItem {
	items := make([]models.SaleItem, 0, len(services))
	for i, svc := range services {
		items = append(items, models.SaleItem{
			ServiceID:   svc.ID,
			ServiceName: svc.Name,
			Category:    svc.Category,
			Price:       svc.Price,
			Position:    i,
		})
	}
	return items
}

func sumSaleItems(items []models.SaleItem) int64 {
	var sum int64
	for _, it := range items {
		sum += it.Price
	}
	return sum
}

func saleItemCategories(items []models.SaleItem) []string {
	cats := make([]string, 0, len(items))
	for _, it := range items {
		cats = append(cats, it.Category)
	}
	return cats
}
