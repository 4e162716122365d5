package models

import "time"

// AssignmentHistory is one row of ASSIGNMENT_HISTORY: the record of a
// single assignment decision. Rows are append-only; the engine never
// updates or deletes them. Incident fields may be empty for retries of
// partially identified incidents, and the assignee is nil for failed
// attempts.
type AssignmentHistory struct {
	ID                    int64              `json:"id"`
	IncidentSysID         string             `json:"incident_sys_id,omitempty"`
	IncidentNumber        string             `json:"incident_number,omitempty"`
	AssignedToMemberSysID *string            `json:"assigned_to_member_sys_id"`
	AssignmentTimestamp   time.Time          `json:"assignment_timestamp"`
	Snapshot              *AlgorithmSnapshot `json:"algorithm_snapshot,omitempty"`
	Success               bool               `json:"success"`
	CreatedBy             string             `json:"created_by,omitempty"`
}
