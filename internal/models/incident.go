package models

import "time"

// Incident is the unit of work handed to the selector. It is supplied by
// the incident source system (the poller or the API); the engine never
// mutates it.
type Incident struct {
	SysID            string    `json:"sys_id"`
	Number           string    `json:"number"`
	GroupSysID       string    `json:"assignment_group_sys_id"`
	Priority         string    `json:"priority,omitempty"`
	Severity         string    `json:"severity,omitempty"`
	ShortDescription string    `json:"short_description,omitempty"`
	OpenedAt         time.Time `json:"opened_at,omitempty"`
}
