package models

import "time"

// Member is one row of MEMBER_DATA: a support roster member scoped to one
// assignment group. A person on several groups has one row per group; the
// (assignment_group_sys_id, member_sys_id) pair is unique.
type Member struct {
	ID                 int64     `json:"id" db:"id"`
	GroupSysID         string    `json:"assignment_group_sys_id" db:"assignment_group_sys_id"`
	MemberSysID        string    `json:"member_sys_id" db:"member_sys_id"`
	Name               string    `json:"member_name,omitempty" db:"member_name"`
	Role               Role      `json:"role" db:"role"`
	ShiftStart         ClockTime `json:"shift_start_time" db:"shift_start_time"`
	ShiftEnd           ClockTime `json:"shift_end_time" db:"shift_end_time"`
	ShiftDays          DaySet    `json:"shift_days" db:"shift_days"`
	WeekendShiftFlag   bool      `json:"weekend_shift_flag" db:"weekend_shift_flag"`
	Active             bool      `json:"active" db:"active"`
	WeightModifier     float64   `json:"weight_modifier" db:"weight_modifier"`
	LastManualUpdateBy string    `json:"last_manual_update_by,omitempty" db:"last_manual_update_by"`
	LastManualUpdateAt time.Time `json:"last_manual_update_at" db:"last_manual_update_at"`
}

func (m *Member) Window() ShiftWindow {
	return ShiftWindow{Start: m.ShiftStart, End: m.ShiftEnd, Days: m.ShiftDays}
}

// AvailableAt reports whether the member may be assigned work at t: the
// member is active, the shift window covers t, and weekend work requires
// the weekend flag.
func (m *Member) AvailableAt(t time.Time) bool {
	if !m.Active {
		return false
	}
	if wd := t.Weekday(); (wd == time.Saturday || wd == time.Sunday) && !m.WeekendShiftFlag {
		return false
	}
	return m.Window().Covers(t)
}
