package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	_ "modernc.org/sqlite"

	"incident-assignment/internal/models"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Store implements the roster and history contracts over a SQL database.
// The schema is migrated on open. Supported drivers are "postgres" and
// "sqlite".
type Store struct {
	db     *sqlx.DB
	driver string
	now    func() time.Time
}

func Open(driver, dsn string) (*Store, error) {
	var schema []string
	switch driver {
	case DriverPostgres:
		schema = postgresSchema
	case DriverSQLite:
		schema = sqliteSchema
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	s := &Store{db: db, driver: driver, now: time.Now}
	if err := s.migrate(ctx, schema); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context, schema []string) error {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	for i, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("execute schema statement %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}

// SetClock overrides the audit/recency clock. Test hook.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const memberColumns = `id, assignment_group_sys_id, member_sys_id, member_name, role,
	shift_start_time, shift_end_time, shift_days, weekend_shift_flag, active,
	weight_modifier, last_manual_update_by, last_manual_update_at`

// FindEligible returns active members of the group whose shift window
// covers at. The group/active filter runs in SQL; the shift window and
// weekend gate are evaluated on the row, keeping the predicate identical
// across dialects.
func (s *Store) FindEligible(ctx context.Context, groupSysID string, at time.Time) ([]*models.Member, error) {
	members, err := s.selectMembers(ctx,
		`SELECT `+memberColumns+` FROM member_data
		 WHERE assignment_group_sys_id = ? AND active = ?
		 ORDER BY member_sys_id`, groupSysID, true)
	if err != nil {
		return nil, err
	}
	eligible := members[:0]
	for _, m := range members {
		if m.AvailableAt(at) {
			eligible = append(eligible, m)
		}
	}
	return eligible, nil
}

func (s *Store) ListMembers(ctx context.Context, groupSysID string) ([]*models.Member, error) {
	return s.selectMembers(ctx,
		`SELECT `+memberColumns+` FROM member_data
		 WHERE assignment_group_sys_id = ?
		 ORDER BY member_sys_id`, groupSysID)
}

func (s *Store) selectMembers(ctx context.Context, query string, args ...any) ([]*models.Member, error) {
	var members []*models.Member
	if err := s.db.SelectContext(ctx, &members, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select members: %w", err)
	}
	return members, nil
}

// UpsertMember inserts m when m.ID is zero and updates the existing row
// otherwise. Inserting a second row for an existing (group, member) pair
// fails with ErrUniquenessViolation; a non-positive weight_modifier fails
// with ErrInvalidWeight. Every successful write stamps
// last_manual_update_at from m.LastManualUpdateBy and the current time.
func (s *Store) UpsertMember(ctx context.Context, m *models.Member) error {
	if m.WeightModifier <= 0 {
		return ErrInvalidWeight
	}
	if !m.Role.Valid() {
		return fmt.Errorf("invalid role %q", m.Role)
	}
	m.LastManualUpdateAt = s.now().UTC()

	if m.ID == 0 {
		query := s.db.Rebind(`INSERT INTO member_data
			(assignment_group_sys_id, member_sys_id, member_name, role,
			 shift_start_time, shift_end_time, shift_days, weekend_shift_flag,
			 active, weight_modifier, last_manual_update_by, last_manual_update_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		args := []any{
			m.GroupSysID, m.MemberSysID, m.Name, m.Role,
			m.ShiftStart, m.ShiftEnd, m.ShiftDays, m.WeekendShiftFlag,
			m.Active, m.WeightModifier, m.LastManualUpdateBy, m.LastManualUpdateAt,
		}
		if s.driver == DriverPostgres {
			err := s.db.QueryRowContext(ctx, query+" RETURNING id", args...).Scan(&m.ID)
			if err != nil {
				return s.writeErr("insert member", err)
			}
			return nil
		}
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return s.writeErr("insert member", err)
		}
		m.ID, _ = res.LastInsertId()
		return nil
	}

	res, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE member_data SET
			assignment_group_sys_id = ?, member_sys_id = ?, member_name = ?, role = ?,
			shift_start_time = ?, shift_end_time = ?, shift_days = ?, weekend_shift_flag = ?,
			active = ?, weight_modifier = ?, last_manual_update_by = ?, last_manual_update_at = ?
		WHERE id = ?`),
		m.GroupSysID, m.MemberSysID, m.Name, m.Role,
		m.ShiftStart, m.ShiftEnd, m.ShiftDays, m.WeekendShiftFlag,
		m.Active, m.WeightModifier, m.LastManualUpdateBy, m.LastManualUpdateAt, m.ID)
	if err != nil {
		return s.writeErr("update member", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateMember soft-deletes the row: active=false, audit stamped.
// History rows referencing the member's sys_id are untouched.
func (s *Store) DeactivateMember(ctx context.Context, groupSysID, memberSysID, updatedBy string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE member_data
		SET active = ?, last_manual_update_by = ?, last_manual_update_at = ?
		WHERE assignment_group_sys_id = ? AND member_sys_id = ?`),
		false, updatedBy, s.now().UTC(), groupSysID, memberSysID)
	if err != nil {
		return s.writeErr("deactivate member", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type historyRow struct {
	ID                    int64          `db:"id"`
	IncidentSysID         sql.NullString `db:"incident_sys_id"`
	IncidentNumber        sql.NullString `db:"incident_number"`
	AssignedToMemberSysID sql.NullString `db:"assigned_to_member_sys_id"`
	AssignmentTimestamp   time.Time      `db:"assignment_timestamp"`
	AlgorithmSnapshot     []byte         `db:"algorithm_snapshot"`
	Success               bool           `db:"success"`
	CreatedBy             string         `db:"created_by"`
}

func (r *historyRow) toModel() (*models.AssignmentHistory, error) {
	rec := &models.AssignmentHistory{
		ID:                  r.ID,
		IncidentSysID:       r.IncidentSysID.String,
		IncidentNumber:      r.IncidentNumber.String,
		AssignmentTimestamp: r.AssignmentTimestamp,
		Success:             r.Success,
		CreatedBy:           r.CreatedBy,
	}
	if r.AssignedToMemberSysID.Valid {
		v := r.AssignedToMemberSysID.String
		rec.AssignedToMemberSysID = &v
	}
	if len(r.AlgorithmSnapshot) > 0 {
		var snap models.AlgorithmSnapshot
		if err := json.Unmarshal(r.AlgorithmSnapshot, &snap); err != nil {
			return nil, fmt.Errorf("decode snapshot for history row %d: %w", r.ID, err)
		}
		rec.Snapshot = &snap
	}
	return rec, nil
}

// Append writes one history row and returns its id. Any failure surfaces
// as ErrWriteFailure; the store never drops a record silently.
func (s *Store) Append(ctx context.Context, rec *models.AssignmentHistory) (int64, error) {
	snap, err := json.Marshal(rec.Snapshot)
	if err != nil {
		return 0, fmt.Errorf("%w: encode snapshot: %w", ErrWriteFailure, err)
	}
	query := s.db.Rebind(`INSERT INTO assignment_history
		(incident_sys_id, incident_number, assigned_to_member_sys_id,
		 assignment_timestamp, algorithm_snapshot, success, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	args := []any{
		nullString(rec.IncidentSysID), nullString(rec.IncidentNumber),
		nullStringPtr(rec.AssignedToMemberSysID),
		rec.AssignmentTimestamp.UTC(), snap, rec.Success, rec.CreatedBy,
	}
	if s.driver == DriverPostgres {
		var id int64
		if err := s.db.QueryRowContext(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
			return 0, fmt.Errorf("%w: append history: %w", ErrWriteFailure, err)
		}
		rec.ID = id
		return id, nil
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: append history: %w", ErrWriteFailure, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: append history: %w", ErrWriteFailure, err)
	}
	rec.ID = id
	return id, nil
}

// RecentAssignments returns the member's history rows within the window,
// newest first. The (member, timestamp) index backs this query.
func (s *Store) RecentAssignments(ctx context.Context, memberSysID string, window time.Duration) ([]*models.AssignmentHistory, error) {
	cutoff := s.now().UTC().Add(-window)
	var rows []historyRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`SELECT
			id, incident_sys_id, incident_number, assigned_to_member_sys_id,
			assignment_timestamp, algorithm_snapshot, success, created_by
		FROM assignment_history
		WHERE assigned_to_member_sys_id = ? AND assignment_timestamp >= ?
		ORDER BY assignment_timestamp DESC`), memberSysID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}
	out := make([]*models.AssignmentHistory, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Store) writeErr(op string, err error) error {
	if isUniqueViolation(err) {
		return ErrUniquenessViolation
	}
	return fmt.Errorf("%w: %s: %w", ErrWriteFailure, op, err)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
