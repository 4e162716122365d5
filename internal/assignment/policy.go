package assignment

import (
	"time"

	"incident-assignment/internal/models"
)

// Policy holds the tunable parts of the ranking: per-role base scores and
// the history window consulted for the recency tie-break. Role order and
// scoring are configuration, not code.
type Policy struct {
	RoleBaseScores map[models.Role]float64
	RecencyWindow  time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		RoleBaseScores: map[models.Role]float64{
			models.RoleSME: 2.0,
			models.RoleL3:  1.5,
			models.RoleL2:  1.2,
			models.RoleL1:  1.0,
		},
		RecencyWindow: 30 * 24 * time.Hour,
	}
}

// BaseScore returns the configured score for a role, falling back to the
// default role's score for roles absent from the map.
func (p Policy) BaseScore(r models.Role) float64 {
	if v, ok := p.RoleBaseScores[r]; ok {
		return v
	}
	return p.RoleBaseScores[models.DefaultRole]
}
