package service

import (
	"testing"

	"github.com/salonkit/reserve-core/internal/models"
)

func interval(t *testing.T, start, end string) models.Interval {
	t.Helper()
	return models.Interval{Start: tod(t, start), End: tod(t, end)}
}

func TestEvaluateSlotAvailable(t *testing.T) {
	v := EvaluateSlot(ConflictInput{
		Start:       tod(t, "10:00"),
		DurationMin: 60,
		Hours:       hours(t, "10:00", "20:00", "19:00"),
	})
	if !v.Available {
		t.Fatalf("expected available, got reason %q", v.Reason)
	}
}

func TestEvaluateSlotEndAtClosingIsFine(t *testing.T) {
	// 19:00 + 60min ends exactly at 20:00; end == close is allowed
	v := EvaluateSlot(ConflictInput{
		Start:       tod(t, "19:00"),
		DurationMin: 60,
		Hours:       hours(t, "10:00", "20:00", "19:00"),
	})
	if !v.Available {
		t.Fatalf("expected available, got reason %q", v.Reason)
	}
}

func TestEvaluateSlotPastCutoff(t *testing.T) {
	v := EvaluateSlot(ConflictInput{
		Start:       tod(t, "19:30"),
		DurationMin: 15,
		Hours:       hours(t, "10:00", "20:00", "19:00"),
	})
	if v.Available || v.Reason != ReasonPastCutoff {
		t.Fatalf("got %+v, want past_cutoff", v)
	}
}

func TestEvaluateSlotElapsed(t *testing.T) {
	now := tod(t, "12:00")

	v := EvaluateSlot(ConflictInput{
		Start:       tod(t, "11:00"),
		DurationMin: 30,
		Hours:       hours(t, "10:00", "20:00", "19:00"),
		Now:         &now,
	})
	if v.Available || v.Reason != ReasonElapsed {
		t.Fatalf("got %+v, want elapsed", v)
	}

	// a slot starting exactly now has also elapsed
	v = EvaluateSlot(ConflictInput{
		Start:       now,
		DurationMin: 30,
		Hours:       hours(t, "10:00", "20:00", "19:00"),
		Now:         &now,
	})
	if v.Available || v.Reason != ReasonElapsed {
		t.Fatalf("start == now: got %+v, want elapsed", v)
	}

	// nil Now disables the check entirely
	v = EvaluateSlot(ConflictInput{
		Start:       tod(t, "11:00"),
		DurationMin: 30,
		Hours:       hours(t, "10:00", "20:00", "19:00"),
	})
	if !v.Available {
		t.Fatalf("future date: got %+v, want available", v)
	}
}

func TestEvaluateSlotExceedsClosing(t *testing.T) {
	// start is before the cutoff but the service runs past closing
	v := EvaluateSlot(ConflictInput{
		Start:       tod(t, "19:00"),
		DurationMin: 90,
		Hours:       hours(t, "10:00", "20:00", "19:00"),
	})
	if v.Available || v.Reason != ReasonExceedsClosing {
		t.Fatalf("got %+v, want exceeds_closing", v)
	}

	// crossing midnight is the same verdict
	v = EvaluateSlot(ConflictInput{
		Start:       tod(t, "23:00"),
		DurationMin: 120,
		Hours:       hours(t, "10:00", "23:59", "23:30"),
	})
	if v.Available || v.Reason != ReasonExceedsClosing {
		t.Fatalf("midnight: got %+v, want exceeds_closing", v)
	}
}

func TestEvaluateSlotTaken(t *testing.T) {
	existing := []models.Interval{interval(t, "10:00", "11:00")}
	in := ConflictInput{
		DurationMin: 60,
		Hours:       hours(t, "10:00", "20:00", "19:00"),
		Existing:    existing,
	}

	// overlapping request loses and reports the colliding interval
	in.Start = tod(t, "10:30")
	v := EvaluateSlot(in)
	if v.Available || v.Reason != ReasonSlotTaken {
		t.Fatalf("got %+v, want slot_taken", v)
	}
	if v.Conflict == nil || v.Conflict.Start != "10:00" || v.Conflict.End != "11:00" {
		t.Fatalf("conflict interval = %+v, want 10:00-11:00", v.Conflict)
	}

	// back-to-back booking starting at the existing end is fine
	in.Start = tod(t, "11:00")
	if v := EvaluateSlot(in); !v.Available {
		t.Fatalf("back to back: got %+v, want available", v)
	}

	// and one ending exactly at the existing start is fine too
	in.Start = tod(t, "09:00")
	in.Hours = hours(t, "09:00", "20:00", "19:00")
	if v := EvaluateSlot(in); !v.Available {
		t.Fatalf("ends at existing start: got %+v, want available", v)
	}
}

func TestEvaluateSlotPartialClosure(t *testing.T) {
	v := EvaluateSlot(ConflictInput{
		Start:           tod(t, "13:30"),
		DurationMin:     60,
		Hours:           hours(t, "10:00", "20:00", "19:00"),
		PartialClosures: []models.Interval{interval(t, "14:00", "16:00")},
	})
	if v.Available || v.Reason != ReasonPartialClosure {
		t.Fatalf("got %+v, want partial_closure", v)
	}
	if v.Conflict == nil || v.Conflict.Start != "14:00" {
		t.Fatalf("conflict interval = %+v, want the closure window", v.Conflict)
	}
}

func TestEvaluateSlotReasonPrecedence(t *testing.T) {
	now := tod(t, "19:45")

	// a slot that is past cutoff AND elapsed AND overlapping reports cutoff
	v := EvaluateSlot(ConflictInput{
		Start:       tod(t, "19:30"),
		DurationMin: 60,
		Hours:       hours(t, "10:00", "20:00", "19:00"),
		Existing:    []models.Interval{interval(t, "19:00", "20:00")},
		Now:         &now,
	})
	if v.Reason != ReasonPastCutoff {
		t.Fatalf("got reason %q, want past_cutoff first", v.Reason)
	}

	// elapsed outranks the overlap check
	v = EvaluateSlot(ConflictInput{
		Start:       tod(t, "11:00"),
		DurationMin: 60,
		Hours:       hours(t, "10:00", "20:00", "19:00"),
		Existing:    []models.Interval{interval(t, "11:00", "12:00")},
		Now:         &now,
	})
	if v.Reason != ReasonElapsed {
		t.Fatalf("got reason %q, want elapsed before slot_taken", v.Reason)
	}

	// appointment overlap outranks the closure overlap
	v = EvaluateSlot(ConflictInput{
		Start:           tod(t, "14:00"),
		DurationMin:     60,
		Hours:           hours(t, "10:00", "20:00", "19:00"),
		Existing:        []models.Interval{interval(t, "14:00", "15:00")},
		PartialClosures: []models.Interval{interval(t, "14:00", "15:00")},
	})
	if v.Reason != ReasonSlotTaken {
		t.Fatalf("got reason %q, want slot_taken before partial_closure", v.Reason)
	}
}
