package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/salonkit/reserve-core/internal/apperr"
	"github.com/salonkit/reserve-core/internal/clock"
	"github.com/salonkit/reserve-core/internal/metrics"
	"github.com/salonkit/reserve-core/internal/models"
	"github.com/salonkit/reserve-core/internal/notify"
	"github.com/salonkit/reserve-core/internal/repository"
)

// CreateReservationRequest is a reservation draft.
type CreateReservationRequest struct {
	CustomerID uuid.UUID
	ServiceIDs []string
	Date       time.Time
	StartTime  models.TimeOfDay
	Note       string
	// CouponCode is optional. When CouponRequired is false a failing coupon
	// is dropped with a warning and the reservation proceeds undiscounted.
	CouponCode     string
	CouponRequired bool
}

// UpdateReservationRequest carries partial changes; nil fields keep the
// current value.
type UpdateReservationRequest struct {
	ServiceIDs []string
	Date       *time.Time
	StartTime  *models.TimeOfDay
	// EndTime overrides the catalog-derived end when set.
	EndTime *models.TimeOfDay
	Note    *string
}

// ReservationService is the transactional decision point for appointment
// writes. Availability reads answer "probably free"; this service re-checks
// everything against live, locked rows before committing, so two racing
// writers produce exactly one confirmed appointment and one conflict error.
type ReservationService struct {
	tx       TxStarter
	catalog  *Catalog
	policy   *CalendarPolicy
	appts    AppointmentStore
	coupons  *CouponService
	notifier notify.Notifier
	clk      clock.Clock
}

func NewReservationService(
	tx TxStarter,
	catalog *Catalog,
	policy *CalendarPolicy,
	appts AppointmentStore,
	coupons *CouponService,
	notifier notify.Notifier,
	clk clock.Clock,
) *ReservationService {
	return &ReservationService{
		tx:       tx,
		catalog:  catalog,
		policy:   policy,
		appts:    appts,
		coupons:  coupons,
		notifier: notifier,
		clk:      clk,
	}
}

// Create validates and persists a new appointment atomically.
func (s *ReservationService) Create(ctx context.Context, req CreateReservationRequest) (*models.Appointment, error) {
	start := time.Now()
	result := "failed"
	defer func() {
		metrics.RecordReservationWrite("create", result, time.Since(start).Seconds())
	}()

	services, err := s.catalog.Resolve(ctx, req.ServiceIDs)
	if err != nil {
		return nil, err
	}
	if err := rejectDuplicateCategories(services); err != nil {
		return nil, err
	}

	items := snapshotItems(services)
	durationMin := totalDuration(items)
	subtotal := totalPrice(items)

	tx, err := s.tx.Begin(ctx)
	if err != nil {
		return nil, apperr.Upstream("could not start transaction", err)
	}
	defer tx.Rollback()

	endTime, err := s.checkSlot(ctx, tx, req.Date, req.StartTime, durationMin, services, nil)
	if err != nil {
		if apperr.IsKind(err, apperr.KindConflict) {
			metrics.SlotConflicts.Inc()
		}
		return nil, err
	}

	appt := &models.Appointment{
		ID:         uuid.New(),
		CustomerID: req.CustomerID,
		Date:       req.Date,
		StartTime:  req.StartTime,
		EndTime:    endTime,
		Status:     models.AppointmentStatusConfirmed,
		Note:       req.Note,
		Items:      items,
	}

	if req.CouponCode != "" {
		// read-only validation; the discount is frozen on the row and the
		// usage slot is only consumed later, at settlement
		meta, discount, err := s.coupons.Validate(ctx, CouponRequest{
			Code:       req.CouponCode,
			Subtotal:   subtotal,
			CustomerID: req.CustomerID,
			ServiceIDs: req.ServiceIDs,
			Categories: itemCategories(items),
			Weekday:    req.Date.Weekday(),
			TimeOfDay:  req.StartTime,
		})
		switch {
		case err == nil:
			code := meta.Code
			appt.CouponCode = &code
			appt.DiscountAmount = discount
		case req.CouponRequired:
			return nil, err
		default:
			log.Warn().Err(err).Str("coupon_code", req.CouponCode).
				Msg("optional coupon rejected, reservation proceeds without it")
		}
	}

	if err := s.appts.Insert(ctx, tx, appt); err != nil {
		return nil, apperr.Upstream("could not persist reservation", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.Upstream("could not commit reservation", err)
	}
	result = "success"

	s.notifier.ReservationCreated(ctx, appt)
	return appt, nil
}

// Get returns a reservation with its item snapshots.
func (s *ReservationService) Get(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	appt, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt == nil {
		return nil, apperr.NotFound("reservation_not_found", "no such reservation")
	}
	return appt, nil
}

// Update re-validates a changed appointment against all other confirmed
// appointments (self-excluded) and commits atomically.
func (s *ReservationService) Update(ctx context.Context, id uuid.UUID, req UpdateReservationRequest) (*models.Appointment, error) {
	start := time.Now()
	result := "failed"
	defer func() {
		metrics.RecordReservationWrite("update", result, time.Since(start).Seconds())
	}()

	appt, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt == nil {
		return nil, apperr.NotFound("reservation_not_found", "no such reservation")
	}
	if appt.Status != models.AppointmentStatusConfirmed {
		return nil, apperr.Validation("not_editable", "only confirmed reservations can be edited")
	}

	var services []models.Service
	if req.ServiceIDs != nil {
		services, err = s.catalog.Resolve(ctx, req.ServiceIDs)
		if err != nil {
			return nil, err
		}
		if err := rejectDuplicateCategories(services); err != nil {
			return nil, err
		}
		appt.Items = snapshotItems(services)
	}
	if req.Date != nil {
		appt.Date = *req.Date
	}
	if req.StartTime != nil {
		appt.StartTime = *req.StartTime
	}
	if req.Note != nil {
		appt.Note = *req.Note
	}

	// the kept services' booking constraints still apply when only the
	// date or time moved, so re-read them from the catalog
	if services == nil {
		services, err = s.catalog.Lookup(ctx, itemServiceIDs(appt.Items))
		if err != nil {
			return nil, err
		}
	}

	durationMin := totalDuration(appt.Items)
	if req.EndTime != nil {
		// explicit override, distinct from the catalog-derived end
		override := req.EndTime.Minutes() - appt.StartTime.Minutes()
		if override <= 0 {
			return nil, apperr.Validation("invalid_end_time", "end time must be after start time")
		}
		durationMin = override
	}

	tx, err := s.tx.Begin(ctx)
	if err != nil {
		return nil, apperr.Upstream("could not start transaction", err)
	}
	defer tx.Rollback()

	endTime, err := s.checkSlot(ctx, tx, appt.Date, appt.StartTime, durationMin, services, &id)
	if err != nil {
		if apperr.IsKind(err, apperr.KindConflict) {
			metrics.SlotConflicts.Inc()
		}
		return nil, err
	}
	appt.EndTime = endTime

	if err := s.appts.Update(ctx, tx, appt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("reservation_not_found", "no such reservation")
		}
		return nil, apperr.Upstream("could not persist reservation", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.Upstream("could not commit reservation", err)
	}
	result = "success"

	s.notifier.ReservationUpdated(ctx, appt)
	return appt, nil
}

// Cancel transitions a confirmed reservation to cancelled.
func (s *ReservationService) Cancel(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, models.AppointmentStatusCancelled)
}

// SetStatus transitions a confirmed reservation to a terminal status.
func (s *ReservationService) SetStatus(ctx context.Context, id uuid.UUID, status models.AppointmentStatus) error {
	switch status {
	case models.AppointmentStatusCancelled, models.AppointmentStatusCompleted, models.AppointmentStatusNoShow:
		return s.transition(ctx, id, status)
	default:
		return apperr.Validation("invalid_status", "status must be cancelled, completed or no_show")
	}
}

func (s *ReservationService) transition(ctx context.Context, id uuid.UUID, status models.AppointmentStatus) error {
	appt, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if appt == nil {
		return apperr.NotFound("reservation_not_found", "no such reservation")
	}
	if appt.Status != models.AppointmentStatusConfirmed {
		return apperr.Validation("not_transitionable", "reservation is not in a confirmed state")
	}

	tx, err := s.tx.Begin(ctx)
	if err != nil {
		return apperr.Upstream("could not start transaction", err)
	}
	defer tx.Rollback()

	if err := s.appts.UpdateStatus(ctx, tx, id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("reservation_not_found", "no such reservation")
		}
		return apperr.Upstream("could not update reservation", err)
	}
	if err := tx.Commit(); err != nil {
		return apperr.Upstream("could not commit transition", err)
	}

	if status == models.AppointmentStatusCancelled {
		appt.Status = status
		s.notifier.ReservationCancelled(ctx, appt)
	}
	return nil
}

// Delete hard-deletes a reservation and its items. Admin action only.
func (s *ReservationService) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := s.tx.Begin(ctx)
	if err != nil {
		return apperr.Upstream("could not start transaction", err)
	}
	defer tx.Rollback()

	if err := s.appts.Delete(ctx, tx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("reservation_not_found", "no such reservation")
		}
		return apperr.Upstream("could not delete reservation", err)
	}
	if err := tx.Commit(); err != nil {
		return apperr.Upstream("could not commit delete", err)
	}
	return nil
}

// checkSlot re-runs the calendar policy and conflict checks against live
// rows inside the caller's transaction and returns the end time. The day
// lock comes first: it is the only thing that serializes two inserts into an
// otherwise empty day.
func (s *ReservationService) checkSlot(
	ctx context.Context,
	tx repository.DBExecutor,
	date time.Time,
	startTime models.TimeOfDay,
	durationMin int,
	services []models.Service,
	exclude *uuid.UUID,
) (models.TimeOfDay, error) {
	if err := s.appts.LockDay(ctx, tx, date); err != nil {
		return "", apperr.Upstream("could not lock booking day", err)
	}

	day, err := s.policy.Resolve(ctx, date)
	if err != nil {
		return "", err
	}
	if !day.Open {
		return "", apperr.Policy("closed", "the salon is closed on this date")
	}

	existing, err := s.appts.LockConfirmedByDate(ctx, tx, date, exclude)
	if err != nil {
		return "", apperr.Upstream("could not lock appointments", err)
	}

	verdict := EvaluateSlot(ConflictInput{
		Start:           startTime,
		DurationMin:     durationMin,
		Hours:           effectiveHours(day.Hours, services),
		Existing:        appointmentIntervals(existing),
		PartialClosures: day.PartialClosures,
		Now:             s.nowIfSameDay(date),
	})
	if !verdict.Available {
		return "", slotError(verdict)
	}

	end, err := startTime.Add(durationMin)
	if err != nil {
		return "", apperr.Policy(ReasonExceedsClosing, "the appointment would run past midnight")
	}
	return end, nil
}

// nowIfSameDay returns the current time-of-day when date is today, nil
// otherwise, so past-time filtering only applies to same-day requests.
func (s *ReservationService) nowIfSameDay(date time.Time) *models.TimeOfDay {
	now := s.clk.Now()
	if now.Format("2006-01-02") != date.Format("2006-01-02") {
		return nil
	}
	tod, err := models.NewTimeOfDay(now.Format("15:04"))
	if err != nil {
		return nil
	}
	return &tod
}

func slotError(v Availability) error {
	switch v.Reason {
	case ReasonSlotTaken:
		return apperr.Conflict(v.Reason, "the requested slot overlaps an existing reservation", v.Conflict)
	case ReasonPartialClosure:
		return apperr.Conflict(v.Reason, "the requested slot overlaps a closure window", v.Conflict)
	case ReasonPastCutoff:
		return apperr.Policy(v.Reason, "the requested time is after the last booking time")
	case ReasonElapsed:
		return apperr.Policy(v.Reason, "the requested time has already passed")
	case ReasonExceedsClosing:
		return apperr.Policy(v.Reason, "the appointment would end after closing time")
	default:
		return apperr.Policy(v.Reason, "the requested slot is not available")
	}
}

// effectiveHours tightens the last-booking cutoff with each service's own
// last-acceptable-start.
func effectiveHours(hours models.BusinessHours, services []models.Service) models.BusinessHours {
	for _, svc := range services {
		if svc.LastStart != "" && svc.LastStart.Before(hours.LastBooking) {
			hours.LastBooking = svc.LastStart
		}
	}
	return hours
}

func rejectDuplicateCategories(services []models.Service) error {
	seen := make(map[string]bool, len(services))
	for _, svc := range services {
		if seen[svc.Category] {
			return apperr.Validation("duplicate_category",
				fmt.Sprintf("cannot book two services from the %q category in one appointment", svc.Category))
		}
		seen[svc.Category] = true
	}
	return nil
}

func snapshotItems(services []models.Service) []models.AppointmentItem {
	items := make([]models.AppointmentItem, 0, len(services))
	for i, svc := range services {
		items = append(items, models.AppointmentItem{
			ServiceID:   svc.ID,
			ServiceName: svc.Name,
			Category:    svc.Category,
			Price:       svc.Price,
			DurationMin: svc.DurationMin,
			Position:    i,
		})
	}
	return items
}

func totalDuration(items []models.AppointmentItem) int {
	var sum int
	for _, it := range items {
		sum += it.DurationMin
	}
	return sum
}

func totalPrice(items []models.AppointmentItem) int64 {
	var sum int64
	for _, it := range items {
		sum += it.Price
	}
	return sum
}

func itemServiceIDs(items []models.AppointmentItem) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ServiceID)
	}
	return ids
}

func itemCategories(items []models.AppointmentItem) []string {
	cats := make([]string, 0, len(items))
	for _, it := range items {
		cats = append(cats, it.Category)
	}
	return cats
}

func appointmentIntervals(appts []models.Appointment) []models.Interval {
	ivs := make([]models.Interval, 0, len(appts))
	for _, a := range appts {
		ivs = append(ivs, models.Interval{Start: a.StartTime, End: a.EndTime})
	}
	return ivs
}
