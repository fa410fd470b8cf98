package service

import "github.com/salonkit/reserve-core/internal/models"

// Reason codes for unavailable slots. Stable: callers key messaging off
// these.
const (
	ReasonPastCutoff     = "past_cutoff"     // start after the last-booking time
	ReasonElapsed        = "elapsed"         // start already passed today
	ReasonExceedsClosing = "exceeds_closing" // service would end after closing
	ReasonSlotTaken      = "slot_taken"      // overlaps a confirmed appointment
	ReasonPartialClosure = "partial_closure" // overlaps a partial-day closure
)

// Availability is the verdict for one candidate slot.
type Availability struct {
	Available bool
	Reason    string
	// Conflict is the colliding interval for slot_taken / partial_closure.
	Conflict *models.Interval
}

// ConflictInput bundles everything EvaluateSlot needs. Now is set only when
// evaluating today's date; nil disables the past-time check.
type ConflictInput struct {
	Start           models.TimeOfDay
	DurationMin     int
	Hours           models.BusinessHours
	Existing        []models.Interval
	PartialClosures []models.Interval
	Now             *models.TimeOfDay
}

// EvaluateSlot decides whether a candidate interval is bookable. The checks
// run in a fixed order and the first failure wins, because each reason maps
// to a different user-facing message:
//
//  1. cutoff: the slot start is after the last-booking time (duration is
//     irrelevant here)
//  2. elapsed: the slot start has already passed (same-day only)
//  3. exceeds_closing: start+duration runs past closing, even when the
//     cutoff check passed
//  4. slot_taken: half-open overlap with a confirmed appointment
//  5. partial_closure: half-open overlap with a partial-day closure window
func EvaluateSlot(in ConflictInput) Availability {
	if in.Start.After(in.Hours.LastBooking) {
		return Availability{Reason: ReasonPastCutoff}
	}

	if in.Now != nil && !in.Start.After(*in.Now) {
		return Availability{Reason: ReasonElapsed}
	}

	end, err := in.Start.Add(in.DurationMin)
	if err != nil || end.After(in.Hours.Close) {
		return Availability{Reason: ReasonExceedsClosing}
	}

	candidate := models.Interval{Start: in.Start, End: end}
	for _, iv := range in.Existing {
		if candidate.Overlaps(iv) {
			conflict := iv
			return Availability{Reason: ReasonSlotTaken, Conflict: &conflict}
		}
	}

	for _, iv := range in.PartialClosures {
		if candidate.Overlaps(iv) {
			conflict := iv
			return Availability{Reason: ReasonPartialClosure, Conflict: &conflict}
		}
	}

	return Availability{Available: true}
}
