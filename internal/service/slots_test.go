package service

import (
	"testing"

	"github.com/salonkit/reserve-core/internal/models"
)

func hours(t *testing.T, open, close, last string) models.BusinessHours {
	t.Helper()
	return models.BusinessHours{
		Open:        tod(t, open),
		Close:       tod(t, close),
		LastBooking: tod(t, last),
	}
}

func tod(t *testing.T, s string) models.TimeOfDay {
	t.Helper()
	v, err := models.NewTimeOfDay(s)
	if err != nil {
		t.Fatalf("NewTimeOfDay(%q): %v", s, err)
	}
	return v
}

func TestGenerateSlots(t *testing.T) {
	slots := GenerateSlots(hours(t, "10:00", "20:00", "19:00"), 30)

	if len(slots) == 0 {
		t.Fatal("expected slots")
	}
	if slots[0] != "10:00" {
		t.Errorf("first slot = %q, want 10:00", slots[0])
	}
	// the cutoff slot itself is included
	if last := slots[len(slots)-1]; last != "19:00" {
		t.Errorf("last slot = %q, want 19:00", last)
	}
	// 10:00 through 19:00 at 30min steps
	if len(slots) != 19 {
		t.Errorf("got %d slots, want 19", len(slots))
	}
	for i := 1; i < len(slots); i++ {
		if slots[i].Minutes()-slots[i-1].Minutes() != 30 {
			t.Fatalf("uneven step between %q and %q", slots[i-1], slots[i])
		}
	}
}

func TestGenerateSlotsUnevenCutoff(t *testing.T) {
	// cutoff not on a slot boundary: stop below it
	slots := GenerateSlots(hours(t, "09:00", "19:00", "18:15"), 30)
	if last := slots[len(slots)-1]; last != "18:00" {
		t.Errorf("last slot = %q, want 18:00", last)
	}
}

func TestGenerateSlotsBadGranularity(t *testing.T) {
	if slots := GenerateSlots(hours(t, "10:00", "20:00", "19:00"), 0); slots != nil {
		t.Errorf("granularity 0: got %v, want nil", slots)
	}
	if slots := GenerateSlots(hours(t, "10:00", "20:00", "19:00"), -15); slots != nil {
		t.Errorf("negative granularity: got %v, want nil", slots)
	}
}
