package service

import (
	"context"
	"time"

	"github.com/salonkit/reserve-core/internal/cache"
	"github.com/salonkit/reserve-core/internal/clock"
	"github.com/salonkit/reserve-core/internal/models"
)

// SlotView is one candidate start time in the availability response.
type SlotView struct {
	Time      models.TimeOfDay `json:"time"`
	Available bool             `json:"available"`
	Reason    string           `json:"reason,omitempty"`
}

// AvailabilityView is the full availability answer for one date and service
// selection.
type AvailabilityView struct {
	Open             bool                 `json:"open"`
	Hours            models.BusinessHours `json:"hours,omitempty"`
	Slots            []SlotView           `json:"slots"`
	TotalPrice       int64                `json:"total_price"`
	TotalDurationMin int                  `json:"total_duration_min"`
}

// AvailabilityService is the read side: it renders candidate slots for a
// date without taking locks. The reservation writer re-checks everything at
// write time, so a stale answer here can never corrupt the calendar.
type AvailabilityService struct {
	catalog     *Catalog
	policy      *CalendarPolicy
	appts       AppointmentStore
	policyCache *cache.PolicyCache[*DayPolicy]
	clk         clock.Clock
	granularity int
}

func NewAvailabilityService(
	catalog *Catalog,
	policy *CalendarPolicy,
	appts AppointmentStore,
	clk clock.Clock,
	granularityMin int,
) *AvailabilityService {
	return &AvailabilityService{
		catalog:     catalog,
		policy:      policy,
		appts:       appts,
		policyCache: cache.NewPolicyCache[*DayPolicy](),
		clk:         clk,
		granularity: granularityMin,
	}
}

// Get computes the availability view for a date and requested services.
func (s *AvailabilityService) Get(ctx context.Context, date time.Time, serviceIDs []string) (*AvailabilityView, error) {
	services, err := s.catalog.Resolve(ctx, serviceIDs)
	if err != nil {
		return nil, err
	}

	items := snapshotItems(services)
	view := &AvailabilityView{
		Slots:            []SlotView{},
		TotalPrice:       totalPrice(items),
		TotalDurationMin: totalDuration(items),
	}

	day, err := s.dayPolicy(ctx, date)
	if err != nil {
		return nil, err
	}
	if !day.Open {
		return view, nil
	}
	view.Open = true
	view.Hours = day.Hours

	// appointments are read live, never cached; only the slow-changing
	// calendar policy is memoized
	existing, err := s.appts.ListConfirmedByDate(ctx, date)
	if err != nil {
		return nil, err
	}

	hours := effectiveHours(day.Hours, services)
	input := ConflictInput{
		DurationMin:     view.TotalDurationMin,
		Hours:           hours,
		Existing:        appointmentIntervals(existing),
		PartialClosures: day.PartialClosures,
		Now:             s.nowIfSameDay(date),
	}

	for _, slot := range GenerateSlots(hours, s.granularity) {
		input.Start = slot
		verdict := EvaluateSlot(input)
		view.Slots = append(view.Slots, SlotView{
			Time:      slot,
			Available: verdict.Available,
			Reason:    verdict.Reason,
		})
	}
	return view, nil
}

// InvalidateDate drops the cached policy for a date after an admin edits
// closures or forced-open days.
func (s *AvailabilityService) InvalidateDate(date time.Time) {
	s.policyCache.Delete(date.Format("2006-01-02"))
}

func (s *AvailabilityService) dayPolicy(ctx context.Context, date time.Time) (*DayPolicy, error) {
	key := date.Format("2006-01-02")
	if day, ok := s.policyCache.Get(key); ok {
		return day, nil
	}
	day, err := s.policy.Resolve(ctx, date)
	if err != nil {
		return nil, err
	}
	s.policyCache.Set(key, day)
	return day, nil
}

func (s *AvailabilityService) nowIfSameDay(date time.Time) *models.TimeOfDay {
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
