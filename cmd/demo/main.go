// Command demo seeds an in-memory roster and walks through the selection
// scenarios: tier ranking, weight overrides, recency tie-breaks, and the
// recorded no-eligible outcome.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"incident-assignment/internal/assignment"
	"incident-assignment/internal/models"
	"incident-assignment/internal/store"
)

// Monday midday, so weekday shifts are in window.
var demoNow = time.Date(2026, 8, 17, 12, 0, 0, 0, time.UTC)

func seedMember(st *store.MemStore, sysID, name string, role models.Role, weight float64) {
	m := &models.Member{
		GroupSysID:         "grp-network-ops",
		MemberSysID:        sysID,
		Name:               name,
		Role:               role,
		ShiftStart:         mustClock("08:00"),
		ShiftEnd:           mustClock("18:00"),
		ShiftDays:          models.Weekdays,
		Active:             true,
		WeightModifier:     weight,
		LastManualUpdateBy: "demo",
	}
	if err := st.UpsertMember(context.Background(), m); err != nil {
		fmt.Fprintln(os.Stderr, "seed:", err)
		os.Exit(1)
	}
}

func deactivate(st *store.MemStore, sysID string) {
	if err := st.DeactivateMember(context.Background(), "grp-network-ops", sysID, "demo"); err != nil {
		fmt.Fprintln(os.Stderr, "deactivate:", err)
		os.Exit(1)
	}
}

func mustClock(s string) models.ClockTime {
	c, err := models.ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func assign(e *assignment.Engine, number, group string) {
	inc := &models.Incident{
		SysID:      "demo-" + number,
		Number:     number,
		GroupSysID: group,
		Priority:   "2",
	}
	d, err := e.Assign(context.Background(), inc)
	if errors.Is(err, assignment.ErrNoEligibleMember) {
		fmt.Printf("%s -> no eligible member (outcome recorded)\n", number)
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "assign:", err)
		os.Exit(1)
	}
	fmt.Printf("%s -> %s (%s)\n", number, d.Member.Name, d.Member.Role)
	fmt.Printf("    %s\n", d.Snapshot.Reason)
}

func main() {
	st := store.NewMemStore()
	st.SetClock(func() time.Time { return demoNow })

	seedMember(st, "alice", "Alice", models.RoleL2, 1.0)
	seedMember(st, "bob", "Bob", models.RoleSME, 1.0)
	seedMember(st, "dave", "Dave", models.RoleL2, 1.0)

	engine := assignment.NewEngine(st, st, assignment.DefaultPolicy(), "demo")
	engine.SetClock(func() time.Time { return demoNow })

	fmt.Println("== tier ranking: the SME outranks everyone at equal weight ==")
	assign(engine, "INC0001", "grp-network-ops")

	fmt.Println("\n== weight override: Carol's 3x lifts her L1 past the SME ==")
	seedMember(st, "carol", "Carol", models.RoleL1, 3.0)
	assign(engine, "INC0002", "grp-network-ops")

	fmt.Println("\n== recency tie-break: Alice and Dave score the same ==")
	deactivate(st, "bob")
	deactivate(st, "carol")
	assign(engine, "INC0003", "grp-network-ops")
	assign(engine, "INC0004", "grp-network-ops")

	fmt.Println("\n== unknown group: the failed attempt is still recorded ==")
	assign(engine, "INC0005", "grp-empty")

	fmt.Printf("\nhistory rows written: %d\n", st.HistoryLen())
}
