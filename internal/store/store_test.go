package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"incident-assignment/internal/models"
)

// The sqlite-backed store runs the same contract tests as MemStore, plus
// the pieces only the SQL path has: driver-level uniqueness mapping,
// ClockTime/DaySet column round-trips, and snapshot JSON decoding.

func newSQLStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(DriverSQLite, "file:"+filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLStoreUpsertUniqueness(t *testing.T) {
	s := newSQLStore(t)
	ctx := context.Background()

	if err := s.UpsertMember(ctx, newTestMember(t, "grp1", "alice", models.RoleL2)); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	err := s.UpsertMember(ctx, newTestMember(t, "grp1", "alice", models.RoleL3))
	if !errors.Is(err, ErrUniquenessViolation) {
		t.Fatalf("duplicate insert: got %v, want ErrUniquenessViolation", err)
	}
	if err := s.UpsertMember(ctx, newTestMember(t, "grp2", "alice", models.RoleL2)); err != nil {
		t.Fatalf("second group upsert: %v", err)
	}
}

func TestSQLStoreUpsertInvalidWeight(t *testing.T) {
	s := newSQLStore(t)
	m := newTestMember(t, "grp1", "bob", models.RoleL2)
	m.WeightModifier = -0.5
	if err := s.UpsertMember(context.Background(), m); !errors.Is(err, ErrInvalidWeight) {
		t.Errorf("got %v, want ErrInvalidWeight", err)
	}
}

func TestSQLStoreUpdateStampsAudit(t *testing.T) {
	s := newSQLStore(t)
	ctx := context.Background()
	fixed := time.Date(2026, 8, 17, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return fixed })

	m := newTestMember(t, "grp1", "carol", models.RoleL2)
	if err := s.UpsertMember(ctx, m); err != nil {
		t.Fatal(err)
	}
	if m.ID == 0 {
		t.Fatal("insert did not populate the row id")
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

func TestSQLStoreFindEligibleOvernight(t *testing.T) {
	s := newSQLStore(t)
	ctx := context.Background()

	day := newTestMember(t, "grp1", "day", models.RoleL2)
	day.ShiftStart = 9 * 60
	day.ShiftEnd = 17 * 60

	night := newTestMember(t, "grp1", "night", models.RoleL2)
	night.ShiftStart = 22 * 60
	night.ShiftEnd = 6 * 60

	inactive := newTestMember(t, "grp1", "inactive", models.RoleL2)
	inactive.Active = false

	for _, m := range []*models.Member{day, night, inactive} {
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

	// The shift columns survive the text round-trip intact.
	got := eligible[0]
	if got.ShiftStart != night.ShiftStart || got.ShiftEnd != night.ShiftEnd {
		t.Errorf("shift times mangled: %s-%s", got.ShiftStart, got.ShiftEnd)
	}
	if got.ShiftDays != models.AllDays {
		t.Errorf("shift days mangled: %s", got.ShiftDays)
	}
}

func TestSQLStoreDeactivateMember(t *testing.T) {
	s := newSQLStore(t)
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

func TestSQLStoreHistoryRoundTrip(t *testing.T) {
	s := newSQLStore(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 17, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })

	dave := "dave"
	snap := &models.AlgorithmSnapshot{
		Version:             models.SnapshotVersion,
		GeneratedAt:         now,
		GroupSysID:          "grp1",
		TieBreak:            models.TieBreakNone,
		SelectedMemberSysID: dave,
		Reason:              "selected dave",
	}
	stamps := []time.Time{
		now.Add(-1 * time.Hour),
		now.Add(-30 * time.Minute),
		now.Add(-48 * time.Hour), // outside a 24h window
	}
	for _, ts := range stamps {
		id, err := s.Append(ctx, &models.AssignmentHistory{
			IncidentSysID:         "inc-1",
			IncidentNumber:        "INC0001",
			AssignedToMemberSysID: &dave,
			AssignmentTimestamp:   ts,
			Snapshot:              snap,
			Success:               true,
			CreatedBy:             "test",
		})
		if err != nil {
			t.Fatal(err)
		}
		if id == 0 {
			t.Fatal("append returned no row id")
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

	got := recent[0]
	if got.IncidentNumber != "INC0001" || got.AssignedToMemberSysID == nil || *got.AssignedToMemberSysID != dave {
		t.Errorf("row fields mangled: %+v", got)
	}
	if got.Snapshot == nil {
		t.Fatal("snapshot column did not decode")
	}
	if got.Snapshot.Version != models.SnapshotVersion || got.Snapshot.SelectedMemberSysID != dave {
		t.Errorf("snapshot fields mangled: %+v", got.Snapshot)
	}
}
