package store

// Schema statements per dialect. MEMBER_DATA carries the roster with shift
// windows and weighting; ASSIGNMENT_HISTORY is the append-only decision
// log, indexed by (member, timestamp) for recency queries.

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS member_data (
		id BIGSERIAL PRIMARY KEY,
		assignment_group_sys_id VARCHAR(100) NOT NULL,
		member_sys_id VARCHAR(100) NOT NULL,
		member_name VARCHAR(200) NOT NULL DEFAULT '',
		role VARCHAR(10) NOT NULL DEFAULT 'L2',
		shift_start_time VARCHAR(5) NOT NULL,
		shift_end_time VARCHAR(5) NOT NULL,
		shift_days VARCHAR(50) NOT NULL,
		weekend_shift_flag BOOLEAN NOT NULL DEFAULT FALSE,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		weight_modifier NUMERIC(5,3) NOT NULL DEFAULT 1.000,
		last_manual_update_by VARCHAR(100) NOT NULL DEFAULT '',
		last_manual_update_at TIMESTAMP NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_member_data_group_member
		ON member_data (assignment_group_sys_id, member_sys_id)`,
	`CREATE INDEX IF NOT EXISTS idx_member_data_group_active
		ON member_data (assignment_group_sys_id, active)`,
	`CREATE TABLE IF NOT EXISTS assignment_history (
		id BIGSERIAL PRIMARY KEY,
		incident_sys_id VARCHAR(100),
		incident_number VARCHAR(100),
		assigned_to_member_sys_id VARCHAR(100),
		assignment_timestamp TIMESTAMP NOT NULL,
		algorithm_snapshot TEXT NOT NULL,
		success BOOLEAN NOT NULL DEFAULT TRUE,
		created_by VARCHAR(100) NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_assignment_history_member_ts
		ON assignment_history (assigned_to_member_sys_id, assignment_timestamp)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS member_data (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		assignment_group_sys_id TEXT NOT NULL,
		member_sys_id TEXT NOT NULL,
		member_name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'L2',
		shift_start_time TEXT NOT NULL,
		shift_end_time TEXT NOT NULL,
		shift_days TEXT NOT NULL,
		weekend_shift_flag BOOLEAN NOT NULL DEFAULT 0,
		active BOOLEAN NOT NULL DEFAULT 1,
		weight_modifier REAL NOT NULL DEFAULT 1.0,
		last_manual_update_by TEXT NOT NULL DEFAULT '',
		last_manual_update_at TIMESTAMP NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_member_data_group_member
		ON member_data (assignment_group_sys_id, member_sys_id)`,
	`CREATE INDEX IF NOT EXISTS idx_member_data_group_active
		ON member_data (assignment_group_sys_id, active)`,
	`CREATE TABLE IF NOT EXISTS assignment_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		incident_sys_id TEXT,
		incident_number TEXT,
		assigned_to_member_sys_id TEXT,
		assignment_timestamp TIMESTAMP NOT NULL,
		algorithm_snapshot TEXT NOT NULL,
		success BOOLEAN NOT NULL DEFAULT 1,
		created_by TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_assignment_history_member_ts
		ON assignment_history (assigned_to_member_sys_id, assignment_timestamp)`,
}
