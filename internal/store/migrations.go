package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Monitoring sessions, one per run of the monitor loop
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL DEFAULT '',
			started_at DATETIME NOT NULL,
			ended_at DATETIME,
			frames INTEGER NOT NULL DEFAULT 0,
			alerts INTEGER NOT NULL DEFAULT 0
		)`,

		// Fired rubbing alerts
		`CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			session_id TEXT REFERENCES sessions(id) ON DELETE SET NULL,
			occurred_at DATETIME NOT NULL,
			consecutive_frames INTEGER NOT NULL,
			eye TEXT NOT NULL DEFAULT '',
			hand TEXT NOT NULL DEFAULT ''
		)`,

		// Application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_alerts_occurred_at ON alerts(occurred_at)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_session_id ON alerts(session_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
