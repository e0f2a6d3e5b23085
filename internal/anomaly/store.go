package anomaly

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store persists emitted anomaly events to sqlite so field runs can be
// reviewed after the fact.
type Store struct {
	*sql.DB
}

// OpenStore opens (creating if needed) the event database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS anomaly_events (
			id                TEXT PRIMARY KEY,
			source            TEXT NOT NULL,
			severity          TEXT NOT NULL,
			confidence        DOUBLE NOT NULL,
			detail            TEXT,
			timestamp         TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_anomaly_events_timestamp
			ON anomaly_events(timestamp);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db}, nil
}

// RecordEvent inserts one event.
func (s *Store) RecordEvent(ev Event) error {
	_, err := s.Exec(
		`INSERT INTO anomaly_events (id, source, severity, confidence, detail, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID.String(), string(ev.Source), string(ev.Severity),
		ev.Confidence, ev.Detail, ev.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to record anomaly event: %w", err)
	}
	return nil
}

// RecentEvents returns up to limit events, newest first.
func (s *Store) RecentEvents(limit int) ([]Event, error) {
	rows, err := s.Query(
		`SELECT id, source, severity, confidence, detail, timestamp
		 FROM anomaly_events ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query anomaly events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var ev Event
		var id, source, severity, ts string
		if err := rows.Scan(&id, &source, &severity, &ev.Confidence, &ev.Detail, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan anomaly event: %w", err)
		}
		if ev.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("failed to parse event id %q: %w", id, err)
		}
		if ev.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("failed to parse event timestamp %q: %w", ts, err)
		}
		ev.Source = Source(source)
		ev.Severity = Severity(severity)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// CountBySource returns the number of stored events per source.
func (s *Store) CountBySource() (map[Source]int, error) {
	rows, err := s.Query(`SELECT source, COUNT(*) FROM anomaly_events GROUP BY source`)
	if err != nil {
		return nil, fmt.Errorf("failed to count anomaly events: %w", err)
	}
	defer rows.Close()

	out := make(map[Source]int)
	for rows.Next() {
		var source string
		var n int
		if err := rows.Scan(&source, &n); err != nil {
			return nil, err
		}
		out[Source(source)] = n
	}
	return out, rows.Err()
}
