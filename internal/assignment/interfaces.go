package assignment

import (
	"context"
	"time"

	"incident-assignment/internal/models"
)

// RosterStore supplies the members the engine may choose from.
type RosterStore interface {
	FindEligible(ctx context.Context, groupSysID string, at time.Time) ([]*models.Member, error)
}

// HistoryStore records decisions and answers recency queries.
type HistoryStore interface {
	Append(ctx context.Context, rec *models.AssignmentHistory) (int64, error)
	RecentAssignments(ctx context.Context, memberSysID string, window time.Duration) ([]*models.AssignmentHistory, error)
}
