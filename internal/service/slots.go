package service

import "github.com/salonkit/reserve-core/internal/models"

// GenerateSlots returns the fixed-step candidate start times for one day:
// open, open+g, ... while the time is still <= the last-booking cutoff.
// Pure: no clock involved; filtering out already-elapsed slots is the
// caller's concern.
func GenerateSlots(hours models.BusinessHours, granularityMin int) []models.TimeOfDay {
	if granularityMin <= 0 {
		return nil
	}

	var slots []models.TimeOfDay
	for m := hours.Open.Minutes(); ; m += granularityMin {
		t, err := models.MinutesToTimeOfDay(m)
		if err != nil {
			break
		}
		if t.After(hours.LastBooking) {
			break
		}
		slots = append(slots, t)
	}
	return slots
}
