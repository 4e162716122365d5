package assignment

import (
	"context"
	"fmt"
	"sort"
	"time"

	"incident-assignment/internal/models"
)

// Engine is the assignment selector: given an incident it picks exactly one
// eligible member of the target group, or records a no-eligible outcome.
// Every call appends exactly one history row. The engine holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	roster    RosterStore
	history   HistoryStore
	policy    Policy
	createdBy string
	now       func() time.Time
}

func NewEngine(roster RosterStore, history HistoryStore, policy Policy, createdBy string) *Engine {
	return &Engine{
		roster:    roster,
		history:   history,
		policy:    policy,
		createdBy: createdBy,
		now:       time.Now,
	}
}

// SetClock overrides the decision clock. Test hook.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Decision is the outcome of one successful selection.
type Decision struct {
	Member    *models.Member
	HistoryID int64
	Snapshot  *models.AlgorithmSnapshot
}

type scoredCandidate struct {
	member       *models.Member
	base         float64
	final        float64
	lastAssigned *time.Time
}

// Assign selects a member for the incident.
//
// Ranking: final score = role base score x weight_modifier, highest first.
// Equal scores fall back to recency (never-assigned first, then oldest last
// assignment), then to ascending member sys_id so identical inputs always
// produce the same choice. Store errors propagate unchanged; an empty
// eligible set appends a success=false row and returns ErrNoEligibleMember.
func (e *Engine) Assign(ctx context.Context, inc *models.Incident) (*Decision, error) {
	if inc == nil {
		return nil, fmt.Errorf("incident cannot be nil")
	}
	if inc.GroupSysID == "" {
		return nil, fmt.Errorf("incident %s has no assignment group", inc.Number)
	}

	now := e.now()
	members, err := e.roster.FindEligible(ctx, inc.GroupSysID, now)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, e.recordNoEligible(ctx, inc, now)
	}

	scored := make([]*scoredCandidate, 0, len(members))
	for _, m := range members {
		base := e.policy.BaseScore(m.Role)
		c := &scoredCandidate{
			member: m,
			base:   base,
			final:  base * m.WeightModifier,
		}
		recent, err := e.history.RecentAssignments(ctx, m.MemberSysID, e.policy.RecencyWindow)
		if err != nil {
			return nil, err
		}
		if len(recent) > 0 {
			ts := recent[0].AssignmentTimestamp
			c.lastAssigned = &ts
		}
		scored = append(scored, c)
	}

	sort.Slice(scored, func(i, j int) bool { return rankBefore(scored[i], scored[j]) })

	selected := scored[0]
	tieBreak := models.TieBreakNone
	if len(scored) > 1 && scored[1].final == selected.final {
		tieBreak = models.TieBreakRecency
		if sameRecency(selected, scored[1]) {
			tieBreak = models.TieBreakMemberID
		}
	}

	snap := &models.AlgorithmSnapshot{
		Version:             models.SnapshotVersion,
		GeneratedAt:         now,
		GroupSysID:          inc.GroupSysID,
		Candidates:          candidateScores(scored),
		TieBreak:            tieBreak,
		SelectedMemberSysID: selected.member.MemberSysID,
		Reason: fmt.Sprintf("selected %s: role %s base %.2f x weight %.3f = %.3f (%d candidates, tie-break %s)",
			selected.member.MemberSysID, selected.member.Role, selected.base,
			selected.member.WeightModifier, selected.final, len(scored), tieBreak),
	}

	assignee := selected.member.MemberSysID
	rec := &models.AssignmentHistory{
		IncidentSysID:         inc.SysID,
		IncidentNumber:        inc.Number,
		AssignedToMemberSysID: &assignee,
		AssignmentTimestamp:   now,
		Snapshot:              snap,
		Success:               true,
		CreatedBy:             e.createdBy,
	}
	id, err := e.history.Append(ctx, rec)
	if err != nil {
		return nil, err
	}

	return &Decision{Member: selected.member, HistoryID: id, Snapshot: snap}, nil
}

// recordNoEligible appends the success=false audit row. A failed append
// takes precedence over the no-eligible outcome: the caller must know the
// decision was not durably recorded.
func (e *Engine) recordNoEligible(ctx context.Context, inc *models.Incident, now time.Time) error {
	snap := &models.AlgorithmSnapshot{
		Version:     models.SnapshotVersion,
		GeneratedAt: now,
		GroupSysID:  inc.GroupSysID,
		TieBreak:    models.TieBreakNone,
		Reason:      fmt.Sprintf("no active member of group %s on shift at %s", inc.GroupSysID, now.Format(time.RFC3339)),
	}
	rec := &models.AssignmentHistory{
		IncidentSysID:       inc.SysID,
		IncidentNumber:      inc.Number,
		AssignmentTimestamp: now,
		Snapshot:            snap,
		Success:             false,
		CreatedBy:           e.createdBy,
	}
	if _, err := e.history.Append(ctx, rec); err != nil {
		return err
	}
	return ErrNoEligibleMember
}

func rankBefore(a, b *scoredCandidate) bool {
	if a.final != b.final {
		return a.final > b.final
	}
	if (a.lastAssigned == nil) != (b.lastAssigned == nil) {
		return a.lastAssigned == nil
	}
	if a.lastAssigned != nil && !a.lastAssigned.Equal(*b.lastAssigned) {
		return a.lastAssigned.Before(*b.lastAssigned)
	}
	return a.member.MemberSysID < b.member.MemberSysID
}

func sameRecency(a, b *scoredCandidate) bool {
	if (a.lastAssigned == nil) != (b.lastAssigned == nil) {
		return false
	}
	return a.lastAssigned == nil || a.lastAssigned.Equal(*b.lastAssigned)
}

func candidateScores(scored []*scoredCandidate) []models.CandidateScore {
	out := make([]models.CandidateScore, len(scored))
	for i, c := range scored {
		out[i] = models.CandidateScore{
			MemberSysID:    c.member.MemberSysID,
			MemberName:     c.member.Name,
			Role:           c.member.Role,
			WeightModifier: c.member.WeightModifier,
			BaseScore:      c.base,
			FinalScore:     c.final,
			LastAssignedAt: c.lastAssigned,
		}
	}
	return out
}
