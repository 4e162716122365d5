package assignment

import (
	"context"
	"time"

	"incident-assignment/internal/models"
)

type MockRosterStore struct {
	FindEligibleFunc func(ctx context.Context, groupSysID string, at time.Time) ([]*models.Member, error)
}

func (m *MockRosterStore) FindEligible(ctx context.Context, groupSysID string, at time.Time) ([]*models.Member, error) {
	return m.FindEligibleFunc(ctx, groupSysID, at)
}

type MockHistoryStore struct {
	AppendFunc            func(ctx context.Context, rec *models.AssignmentHistory) (int64, error)
	RecentAssignmentsFunc func(ctx context.Context, memberSysID string, window time.Duration) ([]*models.AssignmentHistory, error)

	Appended []*models.AssignmentHistory
}

func (m *MockHistoryStore) Append(ctx context.Context, rec *models.AssignmentHistory) (int64, error) {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, rec)
	}
	m.Appended = append(m.Appended, rec)
	return int64(len(m.Appended)), nil
}

func (m *MockHistoryStore) RecentAssignments(ctx context.Context, memberSysID string, window time.Duration) ([]*models.AssignmentHistory, error) {
	if m.RecentAssignmentsFunc != nil {
		return m.RecentAssignmentsFunc(ctx, memberSysID, window)
	}
	return nil, nil
}
