package processor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"incident-assignment/internal/assignment"
	"incident-assignment/internal/metrics"
	"incident-assignment/internal/models"
)

// Assigner makes the assignment decision and records it.
type Assigner interface {
	Assign(ctx context.Context, incident *models.Incident) (*assignment.Decision, error)
}

// Ticketing is the write-back side of the ticketing system.
type Ticketing interface {
	GroupMembers(ctx context.Context, groupSysID string) (map[string]bool, error)
	AssignIncident(ctx context.Context, incidentSysID, memberSysID string) error
}

// Processor drains the poller queue, runs each incident through the
// engine, and writes successful decisions back to the ticketing system.
type Processor struct {
	assigner  Assigner
	ticketing Ticketing
	logger    *slog.Logger
}

func New(assigner Assigner, ticketing Ticketing, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{assigner: assigner, ticketing: ticketing, logger: logger}
}

// Run consumes incidents until the queue is closed or ctx is cancelled.
func (p *Processor) Run(ctx context.Context, incidents <-chan models.Incident) {
	for {
		select {
		case <-ctx.Done():
			return
		case inc, ok := <-incidents:
			if !ok {
				return
			}
			p.process(ctx, &inc)
		}
	}
}

func (p *Processor) process(ctx context.Context, inc *models.Incident) {
	log := p.logger.With("incident", inc.Number, "group", inc.GroupSysID)
	start := time.Now()

	decision, err := p.assigner.Assign(ctx, inc)
	switch {
	case errors.Is(err, assignment.ErrNoEligibleMember):
		metrics.ObserveAssignment(time.Since(start), metrics.OutcomeNoEligible)
		log.Warn("no eligible member on shift")
		return
	case err != nil:
		metrics.ObserveAssignment(time.Since(start), metrics.OutcomeError)
		log.Error("assignment failed", "error", err)
		return
	}

	member := decision.Member
	if !p.verifyMembership(ctx, inc.GroupSysID, member.MemberSysID, log) {
		metrics.ObserveAssignment(time.Since(start), metrics.OutcomeError)
		return
	}

	if err := p.ticketing.AssignIncident(ctx, inc.SysID, member.MemberSysID); err != nil {
		metrics.ObserveAssignment(time.Since(start), metrics.OutcomeError)
		log.Error("write-back failed", "member", member.MemberSysID, "error", err)
		return
	}

	metrics.ObserveAssignment(time.Since(start), metrics.OutcomeAssigned)
	log.Info("incident assigned",
		"member", member.MemberSysID,
		"role", member.Role,
		"history_id", decision.HistoryID,
		"tie_break", decision.Snapshot.TieBreak,
	)
}

// verifyMembership checks that the selected member is still in the
// upstream group before the write-back. A failed lookup is advisory only;
// the roster is the source of truth and the write-back proceeds.
func (p *Processor) verifyMembership(ctx context.Context, groupSysID, memberSysID string, log *slog.Logger) bool {
	members, err := p.ticketing.GroupMembers(ctx, groupSysID)
	if err != nil {
		log.Warn("membership lookup failed, proceeding on roster data", "error", err)
		return true
	}
	if !members[memberSysID] {
		log.Error("selected member missing from upstream group, skipping write-back", "member", memberSysID)
		return false
	}
	return true
}
