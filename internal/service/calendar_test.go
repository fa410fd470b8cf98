package service

import (
	"context"
	"testing"
	"time"

	"github.com/salonkit/reserve-core/internal/config"
	"github.com/salonkit/reserve-core/internal/models"
)

type fakeCalendarStore struct {
	closures   map[string][]models.Closure
	forcedOpen map[string]bool
}

func (f *fakeCalendarStore) GetClosures(ctx context.Context, date time.Time) ([]models.Closure, error) {
	return f.closures[date.Format("2006-01-02")], nil
}

func (f *fakeCalendarStore) HasForcedOpen(ctx context.Context, date time.Time) (bool, error) {
	return f.forcedOpen[date.Format("2006-01-02")], nil
}

func newTestPolicy(t *testing.T, store *fakeCalendarStore) *CalendarPolicy {
	t.Helper()
	if store.closures == nil {
		store.closures = map[string][]models.Closure{}
	}
	if store.forcedOpen == nil {
		store.forcedOpen = map[string]bool{}
	}
	cfg := &config.SalonConfig{
		ClosedWeekday:      int(time.Tuesday),
		WeekdayOpen:        "10:00",
		WeekdayClose:       "20:00",
		WeekdayLastBooking: "19:00",
		WeekendOpen:        "09:00",
		WeekendClose:       "19:00",
		WeekendLastBooking: "18:00",
	}
	p, err := NewCalendarPolicy(store, cfg)
	if err != nil {
		t.Fatalf("NewCalendarPolicy: %v", err)
	}
	return p
}

// 2026-09-02 is a Wednesday; 2026-09-01 a Tuesday; 2026-09-05 a Saturday.
var (
	wednesday = time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	tuesday   = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	saturday  = time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)
)

func TestCalendarPolicyRegularDays(t *testing.T) {
	p := newTestPolicy(t, &fakeCalendarStore{})

	day, err := p.Resolve(context.Background(), wednesday)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !day.Open {
		t.Fatal("wednesday should be open")
	}
	if day.Hours.Open != "10:00" || day.Hours.Close != "20:00" {
		t.Errorf("wednesday hours = %+v, want weekday hours", day.Hours)
	}

	day, err = p.Resolve(context.Background(), saturday)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !day.Open || day.Hours.Open != "09:00" || day.Hours.Close != "19:00" {
		t.Errorf("saturday = %+v, want open with weekend hours", day)
	}
}

func TestCalendarPolicyWeeklyClosure(t *testing.T) {
	p := newTestPolicy(t, &fakeCalendarStore{})

	day, err := p.Resolve(context.Background(), tuesday)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if day.Open {
		t.Fatal("the weekly closed weekday should be closed")
	}
}

func TestCalendarPolicyForcedOpenOverridesWeeklyClosure(t *testing.T) {
	store := &fakeCalendarStore{forcedOpen: map[string]bool{"2026-09-01": true}}
	p := newTestPolicy(t, store)

	day, err := p.Resolve(context.Background(), tuesday)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !day.Open {
		t.Fatal("forced-open tuesday should be open")
	}
	// forced-open days run on the weekend hour set
	if day.Hours.Open != "09:00" || day.Hours.LastBooking != "18:00" {
		t.Errorf("forced-open hours = %+v, want weekend hours", day.Hours)
	}
}

func TestCalendarPolicyFullDayClosureBeatsForcedOpen(t *testing.T) {
	store := &fakeCalendarStore{
		closures: map[string][]models.Closure{
			"2026-09-01": {{AllDay: true, Reason: "renovation"}},
		},
		forcedOpen: map[string]bool{"2026-09-01": true},
	}
	p := newTestPolicy(t, store)

	day, err := p.Resolve(context.Background(), tuesday)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if day.Open {
		t.Fatal("an explicit full-day closure must win over a forced-open day")
	}
}

func TestCalendarPolicyPartialClosures(t *testing.T) {
	from := models.TimeOfDay("14:00")
	until := models.TimeOfDay("16:00")
	store := &fakeCalendarStore{
		closures: map[string][]models.Closure{
			"2026-09-02": {{StartTime: &from, EndTime: &until}},
		},
	}
	p := newTestPolicy(t, store)

	day, err := p.Resolve(context.Background(), wednesday)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !day.Open {
		t.Fatal("a partial closure must not close the day")
	}
	if len(day.PartialClosures) != 1 || day.PartialClosures[0].Start != "14:00" {
		t.Fatalf("partial closures = %+v, want one 14:00-16:00 window", day.PartialClosures)
	}
}
