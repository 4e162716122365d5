package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"incident-assignment/internal/models"
)

func newTestMember(t *testing.T, group, sysID string, role models.Role) *models.Member {
	t.Helper()
	return &models.Member{
		GroupSysID:         group,
		MemberSysID:        sysID,
		Name:               sysID,
		Role:               role,
		ShiftStart:         0,
		ShiftEnd:           23*60 + 59,
		ShiftDays:          models.AllDays,
		WeekendShiftFlag:   true,
		Active:             true,
		WeightModifier:     1.0,
		LastManualUpdateBy: "test",
	}
}

func TestUpsertMemberUniqueness(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	if err := s.UpsertMember(ctx, newTestMember(t, "grp1", "alice", models.RoleL2)); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	err := s.UpsertMember(ctx, newTestMember(t, "grp1", "alice", models.RoleL3))
	if !errors.Is(err, ErrUniquenessViolation) {
		t.Fatalf("duplicate insert: got %v, want ErrUniquenessViolation", err)
	}

	// Same member in another group is a separate row.
	if err := s.UpsertMember(ctx, newTestMember(t, "grp2", "alice", models.RoleL2)); err != nil {
		t.Fatalf("second group upsert: %v", err)
	}
}

func TestUpsertMemberInvalidWeight(t *testing.T) {
	s := NewMemStore()
	for _, w := range []float64{0, -0.5} {
		m := newTestMember(t, "grp1", "bob", models.RoleL2)
		m.WeightModifier = w
		if err := s.UpsertMember(context.Background(), m); !errors.Is(err, ErrInvalidWeight) {
			t.Errorf("weight %v: got %v, want ErrInvalidWeight", w, err)
		}
	}
}

func TestUpsertMemberUpdateStampsAudit(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	fixed := time.Date(2026, 8, 17, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return fixed })

	m := newTestMember(t, "grp1", "carol", models.RoleL2)
	if err := s.UpsertMember(ctx, m); err != nil {
		t.Fatal(err)
	}

	later := fixed.Add(time.Hour)
	s.SetClock(func() time.Time { return later })
	m.Role = models.RoleL3
	m.LastManualUpdateBy = "admin2"
	if err := s.UpsertMember(ctx, m); err != nil {
		t.Fatalf("update: %v", err)
	}

	members, err := s.ListMembers(ctx, "grp1")
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 1 {
		t.Fatalf("expected 1 member, got %d", len(members))
	}
	got := members[0]
	if got.Role != models.RoleL3 {
		t.Errorf("role not updated: %s", got.Role)
	}
	if !got.LastManualUpdateAt.Equal(later) {
		t.Errorf("audit timestamp not restamped: %v", got.LastManualUpdateAt)
	}
	if got.LastManualUpdateBy != "admin2" {
		t.Errorf("audit principal not updated: %s", got.LastManualUpdateBy)
	}
}

func TestFindEligibleFilters(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	inactive := newTestMember(t, "grp1", "inactive", models.RoleL2)
	inactive.Active = false

	offShift := newTestMember(t, "grp1", "offshift", models.RoleL2)
	offShift.ShiftStart = 9 * 60
	offShift.ShiftEnd = 17 * 60

	night := newTestMember(t, "grp1", "night", models.RoleL2)
	night.ShiftStart = 22 * 60
	night.ShiftEnd = 6 * 60
	night.ShiftDays = models.AllDays

	for _, m := range []*models.Member{inactive, offShift, night, newTestMember(t, "grp2", "othergroup", models.RoleL2)} {
		if err := s.UpsertMember(ctx, m); err != nil {
			t.Fatal(err)
		}
	}

	// Tuesday 02:00: inside the night shift's wraparound, outside the day shift.
	at := time.Date(2026, 8, 18, 2, 0, 0, 0, time.UTC)
	eligible, err := s.FindEligible(ctx, "grp1", at)
	if err != nil {
		t.Fatal(err)
	}
	if len(eligible) != 1 || eligible[0].MemberSysID != "night" {
		t.Fatalf("expected only the night-shift member, got %v", memberIDs(eligible))
	}

	// Saturday midday: weekend flag required.
	weekendOff := newTestMember(t, "grp1", "weekendoff", models.RoleL2)
	weekendOff.WeekendShiftFlag = false
	if err := s.UpsertMember(ctx, weekendOff); err != nil {
		t.Fatal(err)
	}
	saturday := time.Date(2026, 8, 22, 12, 0, 0, 0, time.UTC)
	eligible, err = s.FindEligible(ctx, "grp1", saturday)
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range eligible {
		if m.MemberSysID == "weekendoff" {
			t.Error("member without weekend flag returned on Saturday")
		}
		if m.MemberSysID == "inactive" {
			t.Error("inactive member returned")
		}
	}
}

func TestRecentAssignmentsOrderAndWindow(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	now := time.Date(2026, 8, 17, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })

	dave := "dave"
	stamps := []time.Time{
		now.Add(-1 * time.Hour),
		now.Add(-30 * time.Minute),
		now.Add(-48 * time.Hour), // outside a 24h window
	}
	for _, ts := range stamps {
		if _, err := s.Append(ctx, &models.AssignmentHistory{
			AssignedToMemberSysID: &dave,
			AssignmentTimestamp:   ts,
			Success:               true,
		}); err != nil {
			t.Fatal(err)
		}
	}
	// A failed attempt with no assignee must never show up in recency.
	if _, err := s.Append(ctx, &models.AssignmentHistory{
		AssignmentTimestamp: now,
		Success:             false,
	}); err != nil {
		t.Fatal(err)
	}

	recent, err := s.RecentAssignments(ctx, dave, 24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 rows inside window, got %d", len(recent))
	}
	if !recent[0].AssignmentTimestamp.After(recent[1].AssignmentTimestamp) {
		t.Error("rows not ordered newest first")
	}
}

func TestDeactivateMember(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	if err := s.UpsertMember(ctx, newTestMember(t, "grp1", "erin", models.RoleL1)); err != nil {
		t.Fatal(err)
	}
	if err := s.DeactivateMember(ctx, "grp1", "erin", "admin"); err != nil {
		t.Fatal(err)
	}
	eligible, err := s.FindEligible(ctx, "grp1", time.Date(2026, 8, 17, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if len(eligible) != 0 {
		t.Error("deactivated member still eligible")
	}
	if err := s.DeactivateMember(ctx, "grp1", "ghost", "admin"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing member: got %v, want ErrNotFound", err)
	}
}

func memberIDs(members []*models.Member) []string {
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.MemberSysID
	}
	return ids
}
