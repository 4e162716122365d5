package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// ClockTime is a time of day in minutes since midnight, parsed from and
// rendered as "HH:MM" (24-hour).
type ClockTime int

func ParseClock(s string) (ClockTime, error) {
	var h, m int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %v", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	return ClockTime(h*60 + m), nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

func (c ClockTime) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *ClockTime) UnmarshalText(b []byte) error {
	v, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func (c ClockTime) Value() (driver.Value, error) {
	return c.String(), nil
}

func (c *ClockTime) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return c.UnmarshalText([]byte(v))
	case []byte:
		return c.UnmarshalText(v)
	default:
		return fmt.Errorf("cannot scan %T into ClockTime", src)
	}
}

// DaySet is a bitmask of weekdays, encoded as a comma-separated list of
// three-letter day names ("Mon,Tue,Wed").
type DaySet uint8

var dayNames = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

const (
	// Weekdays covers Monday through Friday.
	Weekdays DaySet = 1<<time.Monday | 1<<time.Tuesday | 1<<time.Wednesday |
		1<<time.Thursday | 1<<time.Friday
	// AllDays covers the full week.
	AllDays DaySet = Weekdays | 1<<time.Saturday | 1<<time.Sunday
)

func ParseDays(s string) (DaySet, error) {
	var d DaySet
	for _, part := range strings.Split(s, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		found := false
		for i, dn := range dayNames {
			if strings.EqualFold(dn, name) {
				d |= 1 << uint(i)
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("invalid day name %q", name)
		}
	}
	if d == 0 {
		return 0, fmt.Errorf("empty day set %q", s)
	}
	return d, nil
}

func (d DaySet) Contains(wd time.Weekday) bool {
	return d&(1<<uint(wd)) != 0
}

func (d DaySet) String() string {
	var names []string
	for i, name := range dayNames {
		if d&(1<<uint(i)) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, ",")
}

func (d DaySet) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *DaySet) UnmarshalText(b []byte) error {
	v, err := ParseDays(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func (d DaySet) Value() (driver.Value, error) {
	return d.String(), nil
}

func (d *DaySet) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return d.UnmarshalText([]byte(v))
	case []byte:
		return d.UnmarshalText(v)
	default:
		return fmt.Errorf("cannot scan %T into DaySet", src)
	}
}

// ShiftWindow is a recurring availability window: a set of weekdays plus a
// start and end time of day. End earlier than start means the shift spans
// midnight; such a shift also covers the early hours of the day following
// each listed day.
type ShiftWindow struct {
	Start ClockTime
	End   ClockTime
	Days  DaySet
}

// Covers reports whether t falls inside the window.
func (w ShiftWindow) Covers(t time.Time) bool {
	m := ClockTime(t.Hour()*60 + t.Minute())
	if w.Start <= w.End {
		return w.Days.Contains(t.Weekday()) && m >= w.Start && m <= w.End
	}
	// Overnight: the late segment belongs to the listed day, the early
	// segment to the morning after it.
	if w.Days.Contains(t.Weekday()) && m >= w.Start {
		return true
	}
	prev := (t.Weekday() + 6) % 7
	return w.Days.Contains(prev) && m <= w.End
}
