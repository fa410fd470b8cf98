package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/salonkit/reserve-core/internal/apperr"
	"github.com/salonkit/reserve-core/internal/clock"
	"github.com/salonkit/reserve-core/internal/models"
	"github.com/salonkit/reserve-core/internal/repository"
)

// bookingNow is a Monday well before the dates under test, so the same-day
// elapsed check stays out of the way unless a test wants it.
var bookingNow = time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)

type fakeTx struct {
	committed  bool
	rolledBack bool
}

func (t *fakeTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}

func (t *fakeTx) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return sql.ErrNoRows
}

func (t *fakeTx) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return nil
}

func (t *fakeTx) Commit() error { t.committed = true; return nil }

func (t *fakeTx) Rollback() error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakeTxStarter struct {
	txs []*fakeTx
}

func (s *fakeTxStarter) Begin(ctx context.Context) (Tx, error) {
	tx := &fakeTx{}
	s.txs = append(s.txs, tx)
	return tx, nil
}

func (s *fakeTxStarter) last() *fakeTx { return s.txs[len(s.txs)-1] }

type fakeAppointmentStore struct {
	appts map[uuid.UUID]models.Appointment
	ops   []string
}

func newFakeAppointmentStore() *fakeAppointmentStore {
	return &fakeAppointmentStore{appts: map[uuid.UUID]models.Appointment{}}
}

func (f *fakeAppointmentStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	a, ok := f.appts[id]
	if !ok {
		return nil, nil
	}
	cp := a
	return &cp, nil
}

func (f *fakeAppointmentStore) ListConfirmedByDate(ctx context.Context, date time.Time) ([]models.Appointment, error) {
	return f.confirmedOn(date, nil), nil
}

func (f *fakeAppointmentStore) LockDay(ctx context.Context, tx repository.DBExecutor, date time.Time) error {
	f.ops = append(f.ops, "lock_day")
	return nil
}

func (f *fakeAppointmentStore) LockConfirmedByDate(ctx context.Context, tx repository.DBExecutor, date time.Time, exclude *uuid.UUID) ([]models.Appointment, error) {
	f.ops = append(f.ops, "lock_rows")
	return f.confirmedOn(date, exclude), nil
}

func (f *fakeAppointmentStore) Insert(ctx context.Context, tx repository.DBExecutor, appt *models.Appointment) error {
	f.ops = append(f.ops, "insert")
	f.appts[appt.ID] = *appt
	return nil
}

func (f *fakeAppointmentStore) Update(ctx context.Context, tx repository.DBExecutor, appt *models.Appointment) error {
	if _, ok := f.appts[appt.ID]; !ok {
		return sql.ErrNoRows
	}
	f.appts[appt.ID] = *appt
	return nil
}

func (f *fakeAppointmentStore) UpdateStatus(ctx context.Context, ex repository.DBExecutor, id uuid.UUID, status models.AppointmentStatus) error {
	a, ok := f.appts[id]
	if !ok {
		return sql.ErrNoRows
	}
	a.Status = status
	f.appts[id] = a
	return nil
}

func (f *fakeAppointmentStore) Delete(ctx context.Context, tx repository.DBExecutor, id uuid.UUID) error {
	if _, ok := f.appts[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.appts, id)
	return nil
}

func (f *fakeAppointmentStore) confirmedOn(date time.Time, exclude *uuid.UUID) []models.Appointment {
	var out []models.Appointment
	for _, a := range f.appts {
		if exclude != nil && a.ID == *exclude {
			continue
		}
		if a.Status == models.AppointmentStatusConfirmed &&
			a.Date.Format("2006-01-02") == date.Format("2006-01-02") {
			out = append(out, a)
		}
	}
	return out
}

type fakeNotifier struct {
	created, updated, cancelled int
}

func (n *fakeNotifier) ReservationCreated(ctx context.Context, appt *models.Appointment) {
	n.created++
}

func (n *fakeNotifier) ReservationUpdated(ctx context.Context, appt *models.Appointment) {
	n.updated++
}

func (n *fakeNotifier) ReservationCancelled(ctx context.Context, appt *models.Appointment) {
	n.cancelled++
}

type reservationFixture struct {
	svc    *ReservationService
	store  *fakeAppointmentStore
	tx     *fakeTxStarter
	notify *fakeNotifier
}

func newReservationFixture(t *testing.T, catalog *Catalog) *reservationFixture {
	t.Helper()
	f := &reservationFixture{
		store:  newFakeAppointmentStore(),
		tx:     &fakeTxStarter{},
		notify: &fakeNotifier{},
	}
	policy := newTestPolicy(t, &fakeCalendarStore{})
	coupons := NewCouponService(&fakeCouponStore{}, clock.Fixed{T: bookingNow})
	f.svc = NewReservationService(f.tx, catalog, policy, f.store, coupons, f.notify, clock.Fixed{T: bookingNow})
	return f
}

func (f *reservationFixture) create(t *testing.T, start string, serviceIDs ...string) *models.Appointment {
	t.Helper()
	appt, err := f.svc.Create(context.Background(), CreateReservationRequest{
		CustomerID: uuid.New(),
		ServiceIDs: serviceIDs,
		Date:       wednesday,
		StartTime:  tod(t, start),
	})
	if err != nil {
		t.Fatalf("Create(%s): %v", start, err)
	}
	return appt
}

func TestCreateReservationBooksFreeSlot(t *testing.T) {
	f := newReservationFixture(t, testCatalog())

	appt := f.create(t, "10:00", "cut")

	if appt.EndTime != "11:00" {
		t.Errorf("EndTime = %q, want 11:00", appt.EndTime)
	}
	if appt.Status != models.AppointmentStatusConfirmed {
		t.Errorf("Status = %q, want confirmed", appt.Status)
	}
	if len(f.store.appts) != 1 {
		t.Fatalf("store holds %d appointments, want 1", len(f.store.appts))
	}
	if !f.tx.last().committed {
		t.Error("transaction was not committed")
	}
	if f.notify.created != 1 {
		t.Errorf("created notifications = %d, want 1", f.notify.created)
	}
	// the per-day lock must come before the conflict read: it is what
	// serializes two writers on an otherwise empty day
	if len(f.store.ops) < 3 || f.store.ops[0] != "lock_day" || f.store.ops[1] != "lock_rows" || f.store.ops[2] != "insert" {
		t.Fatalf("ops = %v, want [lock_day lock_rows insert]", f.store.ops)
	}
}

func TestCreateReservationSecondWriterLoses(t *testing.T) {
	f := newReservationFixture(t, testCatalog())
	f.create(t, "10:00", "cut")

	// the second writer runs after the first committed; behind the day lock
	// its re-check must see that row and reject the overlap
	_, err := f.svc.Create(context.Background(), CreateReservationRequest{
		CustomerID: uuid.New(),
		ServiceIDs: []string{"cut"},
		Date:       wednesday,
		StartTime:  tod(t, "10:30"),
	})
	e, ok := apperr.As(err)
	if !ok || e.Kind != apperr.KindConflict || e.Code != ReasonSlotTaken {
		t.Fatalf("got %v, want conflict/slot_taken", err)
	}
	if e.Conflict == nil || e.Conflict.Start != "10:00" || e.Conflict.End != "11:00" {
		t.Fatalf("conflict = %+v, want the winner's 10:00-11:00 interval", e.Conflict)
	}
	if len(f.store.appts) != 1 {
		t.Fatalf("store holds %d appointments, want only the winner", len(f.store.appts))
	}
	if !f.tx.last().rolledBack {
		t.Error("loser's transaction was not rolled back")
	}
	if f.notify.created != 1 {
		t.Errorf("created notifications = %d, want 1", f.notify.created)
	}
}

func TestCreateReservationBackToBack(t *testing.T) {
	f := newReservationFixture(t, testCatalog())
	f.create(t, "10:00", "cut")

	// starting exactly at the existing end is legal
	appt := f.create(t, "11:00", "cut")
	if appt.EndTime != "12:00" {
		t.Errorf("EndTime = %q, want 12:00", appt.EndTime)
	}
	if len(f.store.appts) != 2 {
		t.Fatalf("store holds %d appointments, want 2", len(f.store.appts))
	}
}

func TestCreateReservationClosedDay(t *testing.T) {
	f := newReservationFixture(t, testCatalog())

	_, err := f.svc.Create(context.Background(), CreateReservationRequest{
		CustomerID: uuid.New(),
		ServiceIDs: []string{"cut"},
		Date:       tuesday,
		StartTime:  tod(t, "10:00"),
	})
	e, ok := apperr.As(err)
	if !ok || e.Kind != apperr.KindPolicy || e.Code != "closed" {
		t.Fatalf("got %v, want policy/closed", err)
	}
	if len(f.store.appts) != 0 {
		t.Fatal("nothing should have been written")
	}
}

func TestUpdateReservationExcludesItself(t *testing.T) {
	f := newReservationFixture(t, testCatalog())
	appt := f.create(t, "10:00", "cut")

	// shifting within its own old window must not conflict with itself
	start := tod(t, "10:30")
	updated, err := f.svc.Update(context.Background(), appt.ID, UpdateReservationRequest{StartTime: &start})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.StartTime != "10:30" || updated.EndTime != "11:30" {
		t.Errorf("updated window = %s-%s, want 10:30-11:30", updated.StartTime, updated.EndTime)
	}
	if stored := f.store.appts[appt.ID]; stored.StartTime != "10:30" {
		t.Errorf("stored start = %q, want 10:30", stored.StartTime)
	}
	if f.notify.updated != 1 {
		t.Errorf("updated notifications = %d, want 1", f.notify.updated)
	}
}

func TestUpdateReservationRejectsOverlapWithOther(t *testing.T) {
	f := newReservationFixture(t, testCatalog())
	f.create(t, "10:00", "cut")
	b := f.create(t, "12:00", "cut")

	start := tod(t, "10:30")
	_, err := f.svc.Update(context.Background(), b.ID, UpdateReservationRequest{StartTime: &start})
	e, ok := apperr.As(err)
	if !ok || e.Code != ReasonSlotTaken {
		t.Fatalf("got %v, want slot_taken", err)
	}
	// the rejected edit must leave the stored row untouched
	if stored := f.store.appts[b.ID]; stored.StartTime != "12:00" {
		t.Errorf("stored start = %q, want the original 12:00", stored.StartTime)
	}
}

func TestUpdateReservationKeepsServiceStartCutoff(t *testing.T) {
	catalog := NewCatalog(&fakeServiceStore{services: map[string]models.Service{
		"color": {ID: "color", Name: "Color", Category: "color", Price: 8000, DurationMin: 60, LastStart: "17:00", Active: true},
	}})
	f := newReservationFixture(t, catalog)
	appt := f.create(t, "16:00", "color")

	// moving only the time must still honor the kept service's last
	// acceptable start, exactly as creation would
	start := tod(t, "18:00")
	_, err := f.svc.Update(context.Background(), appt.ID, UpdateReservationRequest{StartTime: &start})
	e, ok := apperr.As(err)
	if !ok || e.Kind != apperr.KindPolicy || e.Code != ReasonPastCutoff {
		t.Fatalf("got %v, want policy/past_cutoff", err)
	}
	if stored := f.store.appts[appt.ID]; stored.StartTime != "16:00" {
		t.Errorf("stored start = %q, want the original 16:00", stored.StartTime)
	}
}

func TestCancelReservation(t *testing.T) {
	f := newReservationFixture(t, testCatalog())
	appt := f.create(t, "10:00", "cut")

	if err := f.svc.Cancel(context.Background(), appt.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if stored := f.store.appts[appt.ID]; stored.Status != models.AppointmentStatusCancelled {
		t.Errorf("status = %q, want cancelled", stored.Status)
	}
	if !f.tx.last().committed {
		t.Error("transition transaction was not committed")
	}
	if f.notify.cancelled != 1 {
		t.Errorf("cancelled notifications = %d, want 1", f.notify.cancelled)
	}

	// a cancelled reservation cannot be cancelled again
	err := f.svc.Cancel(context.Background(), appt.ID)
	if e, ok := apperr.As(err); !ok || e.Code != "not_transitionable" {
		t.Fatalf("second cancel: got %v, want not_transitionable", err)
	}
}

func TestCancelledSlotBecomesBookable(t *testing.T) {
	f := newReservationFixture(t, testCatalog())
	appt := f.create(t, "10:00", "cut")
	if err := f.svc.Cancel(context.Background(), appt.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	// only confirmed rows block a slot
	again := f.create(t, "10:00", "cut")
	if again.ID == appt.ID {
		t.Fatal("expected a fresh appointment")
	}
}
