package models

import "time"

// BusinessHours are the resolved operating hours for one open date.
// LastBooking bounds slot starts; Close bounds service ends.
type BusinessHours struct {
	Open        TimeOfDay `json:"open"`
	Close       TimeOfDay `json:"close"`
	LastBooking TimeOfDay `json:"last_booking"`
}

// Closure blocks a date. AllDay closures win over everything, including
// forced-open days. Partial closures carry a [StartTime, EndTime) window and
// only block overlapping slots.
type Closure struct {
	ID        int64      `db:"id" json:"id"`
	Date      time.Time  `db:"date" json:"date"`
	AllDay    bool       `db:"all_day" json:"all_day"`
	StartTime *TimeOfDay `db:"start_time" json:"start_time,omitempty"`
	EndTime   *TimeOfDay `db:"end_time" json:"end_time,omitempty"`
	Reason    string     `db:"reason" json:"reason,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// ForcedOpenDay overrides the weekly closed weekday for one date.
type ForcedOpenDay struct {
	ID        int64     `db:"id" json:"id"`
	Date      time.Time `db:"date" json:"date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
