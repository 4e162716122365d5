package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"incident-assignment/internal/models"
)

// MemStore is an in-memory implementation of the roster and history
// contracts with the same semantics as the SQL store. It backs tests and
// the offline demo.
type MemStore struct {
	mu           sync.RWMutex
	members      []*models.Member
	history      []*models.AssignmentHistory
	nextMemberID int64
	nextRecordID int64
	now          func() time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{nextMemberID: 1, nextRecordID: 1, now: time.Now}
}

// SetClock overrides the audit/recency clock. Test hook.
func (s *MemStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemStore) Close() error { return nil }

func (s *MemStore) Ping(ctx context.Context) error { return ctx.Err() }

func (s *MemStore) FindEligible(ctx context.Context, groupSysID string, at time.Time) ([]*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var eligible []*models.Member
	for _, m := range s.members {
		if m.GroupSysID == groupSysID && m.AvailableAt(at) {
			c := *m
			eligible = append(eligible, &c)
		}
	}
	sort.Slice(eligible, func(i, j int) bool { return eligible[i].MemberSysID < eligible[j].MemberSysID })
	return eligible, nil
}

func (s *MemStore) ListMembers(ctx context.Context, groupSysID string) ([]*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Member
	for _, m := range s.members {
		if m.GroupSysID == groupSysID {
			c := *m
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MemberSysID < out[j].MemberSysID })
	return out, nil
}

func (s *MemStore) UpsertMember(ctx context.Context, m *models.Member) error {
	if m.WeightModifier <= 0 {
		return ErrInvalidWeight
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.members {
		if existing.ID == m.ID {
			continue
		}
		if existing.GroupSysID == m.GroupSysID && existing.MemberSysID == m.MemberSysID {
			return ErrUniquenessViolation
		}
	}
	m.LastManualUpdateAt = s.now().UTC()

	if m.ID == 0 {
		m.ID = s.nextMemberID
		s.nextMemberID++
		c := *m
		s.members = append(s.members, &c)
		return nil
	}
	for i, existing := range s.members {
		if existing.ID == m.ID {
			c := *m
			s.members[i] = &c
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemStore) DeactivateMember(ctx context.Context, groupSysID, memberSysID, updatedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		if m.GroupSysID == groupSysID && m.MemberSysID == memberSysID {
			m.Active = false
			m.LastManualUpdateBy = updatedBy
			m.LastManualUpdateAt = s.now().UTC()
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemStore) Append(ctx context.Context, rec *models.AssignmentHistory) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = s.nextRecordID
	s.nextRecordID++
	c := *rec
	s.history = append(s.history, &c)
	return rec.ID, nil
}

func (s *MemStore) RecentAssignments(ctx context.Context, memberSysID string, window time.Duration) ([]*models.AssignmentHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cutoff := s.now().UTC().Add(-window)
	var out []*models.AssignmentHistory
	for _, rec := range s.history {
		if rec.AssignedToMemberSysID == nil || *rec.AssignedToMemberSysID != memberSysID {
			continue
		}
		if rec.AssignmentTimestamp.Before(cutoff) {
			continue
		}
		c := *rec
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].AssignmentTimestamp.After(out[j].AssignmentTimestamp)
	})
	return out, nil
}

// HistoryLen reports the total number of appended rows. Test hook.
func (s *MemStore) HistoryLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}
