package models

import (
	"fmt"
)

// TimeOfDay is a zero-padded 24-hour "HH:MM" wall-clock time.
// The fixed width makes plain string comparison equivalent to chronological
// comparison, and every comparison site in the engine relies on that.
type TimeOfDay string

// NewTimeOfDay validates strict "HH:MM" input.
func NewTimeOfDay(s string) (TimeOfDay, error) {
	if len(s) != 5 || s[2] != ':' {
		return "", fmt.Errorf("invalid time of day %q: want HH:MM", s)
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return "", fmt.Errorf("invalid time of day %q: want HH:MM", s)
		}
	}
	hh := int(s[0]-'0')*10 + int(s[1]-'0')
	mm := int(s[3]-'0')*10 + int(s[4]-'0')
	if hh > 23 || mm > 59 {
		return "", fmt.Errorf("invalid time of day %q: out of range", s)
	}
	return TimeOfDay(s), nil
}

// MinutesToTimeOfDay converts minutes-from-midnight back to "HH:MM".
func MinutesToTimeOfDay(m int) (TimeOfDay, error) {
	if m < 0 || m >= 24*60 {
		return "", fmt.Errorf("minutes %d outside a single day", m)
	}
	return TimeOfDay(fmt.Sprintf("%02d:%02d", m/60, m%60)), nil
}

// Minutes returns minutes from midnight. Valid only on constructed values.
func (t TimeOfDay) Minutes() int {
	s := string(t)
	return (int(s[0]-'0')*10+int(s[1]-'0'))*60 + int(s[3]-'0')*10 + int(s[4]-'0')
}

// Add returns t shifted forward by the given minutes. Crossing midnight is an
// error: the salon never operates past it, so a rolled-over end time always
// means bad input.
func (t TimeOfDay) Add(minutes int) (TimeOfDay, error) {
	return MinutesToTimeOfDay(t.Minutes() + minutes)
}

func (t TimeOfDay) Before(o TimeOfDay) bool { return t < o }

func (t TimeOfDay) After(o TimeOfDay) bool { return t > o }

func (t TimeOfDay) String() string { return string(t) }
