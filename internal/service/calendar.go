package service

import (
	"context"
	"time"

	"github.com/salonkit/reserve-core/internal/config"
	"github.com/salonkit/reserve-core/internal/models"
)

// CalendarStore is the closure/forced-open read surface the policy needs.
type CalendarStore interface {
	GetClosures(ctx context.Context, date time.Time) ([]models.Closure, error)
	HasForcedOpen(ctx context.Context, date time.Time) (bool, error)
}

// DayPolicy is the resolved calendar verdict for one date.
type DayPolicy struct {
	Open            bool                 `json:"open"`
	Hours           models.BusinessHours `json:"hours,omitempty"`
	PartialClosures []models.Interval    `json:"partial_closures,omitempty"`
}

// CalendarPolicy resolves whether the salon is open on a date and with what
// hours. Weekly-closed weekday and the two hour sets come from typed config;
// closures and forced-open overrides come from the store. Pure read.
type CalendarPolicy struct {
	store         CalendarStore
	closedWeekday time.Weekday
	weekdayHours  models.BusinessHours
	weekendHours  models.BusinessHours
}

func NewCalendarPolicy(store CalendarStore, cfg *config.SalonConfig) (*CalendarPolicy, error) {
	weekday, err := cfg.WeekdayHours()
	if err != nil {
		return nil, err
	}
	weekend, err := cfg.WeekendHours()
	if err != nil {
		return nil, err
	}
	return &CalendarPolicy{
		store:         store,
		closedWeekday: cfg.Weekday(),
		weekdayHours:  weekday,
		weekendHours:  weekend,
	}, nil
}

// Resolve applies the determination order: an explicit full-day closure
// always wins, even over a forced-open day; otherwise the weekly closed
// weekday closes the date unless a forced-open override exists; otherwise
// the date is open with weekday- or weekend-dependent hours.
func (p *CalendarPolicy) Resolve(ctx context.Context, date time.Time) (*DayPolicy, error) {
	closures, err := p.store.GetClosures(ctx, date)
	if err != nil {
		return nil, err
	}

	var partials []models.Interval
	for _, c := range closures {
		if c.AllDay {
			return &DayPolicy{Open: false}, nil
		}
		if c.StartTime != nil && c.EndTime != nil {
			partials = append(partials, models.Interval{Start: *c.StartTime, End: *c.EndTime})
		}
	}

	forced, err := p.store.HasForcedOpen(ctx, date)
	if err != nil {
		return nil, err
	}
	if date.Weekday() == p.closedWeekday && !forced {
		return &DayPolicy{Open: false}, nil
	}

	return &DayPolicy{
		Open:            true,
		Hours:           p.hoursFor(date, forced),
		PartialClosures: partials,
	}, nil
}

// IsOpen reports whether the date is open and with what hours.
func (p *CalendarPolicy) IsOpen(ctx context.Context, date time.Time) (bool, models.BusinessHours, error) {
	day, err := p.Resolve(ctx, date)
	if err != nil {
		return false, models.BusinessHours{}, err
	}
	return day.Open, day.Hours, nil
}

// PartialClosures returns the date's partial-day closure windows.
func (p *CalendarPolicy) PartialClosures(ctx context.Context, date time.Time) ([]models.Interval, error) {
	day, err := p.Resolve(ctx, date)
	if err != nil {
		return nil, err
	}
	return day.PartialClosures, nil
}

// Weekends and forced-open days (holidays standing in for the weekly
// closure) get the weekend hour set; everything else gets weekday hours.
func (p *CalendarPolicy) hoursFor(date time.Time, forced bool) models.BusinessHours {
	wd := date.Weekday()
	if wd == time.Saturday || wd == time.Sunday || forced {
		return p.weekendHours
	}
	return p.weekdayHours
}
