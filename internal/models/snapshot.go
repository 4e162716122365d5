package models

import "time"

// SnapshotVersion identifies the snapshot schema so audit rows stay
// queryable across ranking changes.
const SnapshotVersion = 1

// Tie-break paths recorded in a snapshot.
const (
	TieBreakNone     = "none"
	TieBreakRecency  = "recency"
	TieBreakMemberID = "member_id"
)

// CandidateScore is one evaluated candidate inside a snapshot.
type CandidateScore struct {
	MemberSysID    string     `json:"member_sys_id"`
	MemberName     string     `json:"member_name,omitempty"`
	Role           Role       `json:"role"`
	WeightModifier float64    `json:"weight_modifier"`
	BaseScore      float64    `json:"base_score"`
	FinalScore     float64    `json:"final_score"`
	LastAssignedAt *time.Time `json:"last_assigned_at,omitempty"`
}

// AlgorithmSnapshot captures the inputs and scores behind one assignment
// decision. It exists for audit and debugging, not for replay.
type AlgorithmSnapshot struct {
	Version             int              `json:"version"`
	GeneratedAt         time.Time        `json:"generated_at"`
	GroupSysID          string           `json:"assignment_group_sys_id"`
	Candidates          []CandidateScore `json:"candidates"`
	TieBreak            string           `json:"tie_break"`
	SelectedMemberSysID string           `json:"selected_member_sys_id,omitempty"`
	Reason              string           `json:"reason"`
}
