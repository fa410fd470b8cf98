package models

// Interval is a half-open [Start, End) time-of-day range.
type Interval struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// Overlaps uses half-open semantics: touching endpoints do not overlap, so
// back-to-back bookings are legal.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start < o.End && i.End > o.Start
}
