// Package trace is the durable commit ledger: it asynchronously persists
// every committed word and meeting lifecycle event to Postgres, the same
// way this module's ancestry traced LLM pipeline runs — repurposed here to
// record transcript commits instead of spans.
package trace

import (
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const maxMeetings = 500

// Store persists the commit ledger to PostgreSQL.
type Store struct {
	db *sql.DB
}

// Open connects to a PostgreSQL ledger database at connStr and runs any
// pending migrations.
func Open(connStr string) (*Store, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("trace open: %w", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("trace ping: %w", err)
	}
	if err = migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("trace migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`)
	if err != nil {
		return err
	}

	var current int
	row := db.QueryRow(`SELECT COALESCE(MAX(version), -1) FROM schema_version`)
	if err = row.Scan(&current); err != nil {
		return err
	}

	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	for i := current + 1; i < len(entries); i++ {
		data, readErr := migrationFS.ReadFile("migrations/" + entries[i].Name())
		if readErr != nil {
			return fmt.Errorf("read migration %d: %w", i, readErr)
		}
		if _, execErr := db.Exec(string(data)); execErr != nil {
			return fmt.Errorf("migration %d: %w", i, execErr)
		}
		if _, execErr := db.Exec(`INSERT INTO schema_version (version) VALUES ($1)`, i); execErr != nil {
			return fmt.Errorf("migration %d record: %w", i, execErr)
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateMeeting inserts a new meeting and prunes old ones beyond maxMeetings.
func (s *Store) CreateMeeting(id, metadata string) error {
	_, err := s.db.Exec(
		`INSERT INTO meetings (id, metadata, started_at) VALUES ($1, $2, $3)`,
		id, metadata, time.Now().UTC(),
	)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`DELETE FROM meetings WHERE id NOT IN (SELECT id FROM meetings ORDER BY started_at DESC LIMIT $1)`,
		maxMeetings,
	)
	return err
}

// EndMeeting sets the ended_at timestamp.
func (s *Store) EndMeeting(id string) error {
	_, err := s.db.Exec(
		`UPDATE meetings SET ended_at = $1 WHERE id = $2`,
		time.Now().UTC(), id,
	)
	return err
}

// RenameSpeaker records a participant's display name against a meeting.
func (s *Store) RenameSpeaker(meetingID, speakerID, name string) error {
	_, err := s.db.Exec(
		`INSERT INTO speaker_names (meeting_id, speaker_id, name)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (meeting_id, speaker_id) DO UPDATE SET name = EXCLUDED.name`,
		meetingID, speakerID, name,
	)
	return err
}

// RecordCommit inserts one committed word.
func (s *Store) RecordCommit(c Commit) error {
	_, err := s.db.Exec(
		`INSERT INTO commits (id, meeting_id, speaker_id, text, start_sec, end_sec, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.MeetingID, c.SpeakerID, c.Text, c.StartSec, c.EndSec, c.CreatedAt.UTC(),
	)
	return err
}

// ListMeetings returns meetings ordered newest first, with commit counts.
func (s *Store) ListMeetings(limit, offset int) ([]Meeting, int, error) {
	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM meetings`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.Query(`
		SELECT m.id, m.metadata, m.started_at, m.ended_at, COUNT(c.id) as commit_count
		FROM meetings m
		LEFT JOIN commits c ON c.meeting_id = m.id
		GROUP BY m.id
		ORDER BY m.started_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var meetings []Meeting
	for rows.Next() {
		var m Meeting
		var endedAt sql.NullTime
		if err = rows.Scan(&m.ID, &m.Metadata, &m.StartedAt, &endedAt, &m.CommitCount); err != nil {
			return nil, 0, err
		}
		if endedAt.Valid {
			m.EndedAt = &endedAt.Time
		}
		meetings = append(meetings, m)
	}
	return meetings, total, rows.Err()
}

// GetMeeting returns a single meeting with its commits, ordered by start_sec.
func (s *Store) GetMeeting(id string) (*Meeting, []Commit, error) {
	var m Meeting
	var endedAt sql.NullTime
	err := s.db.QueryRow(
		`SELECT id, metadata, started_at, ended_at FROM meetings WHERE id = $1`, id,
	).Scan(&m.ID, &m.Metadata, &m.StartedAt, &endedAt)
	if err != nil {
		return nil, nil, err
	}
	if endedAt.Valid {
		m.EndedAt = &endedAt.Time
	}

	rows, err := s.db.Query(
		`SELECT id, meeting_id, speaker_id, text, start_sec, end_sec, created_at
		 FROM commits WHERE meeting_id = $1 ORDER BY start_sec ASC`,
		id,
	)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var commits []Commit
	for rows.Next() {
		var c Commit
		if err = rows.Scan(&c.ID, &c.MeetingID, &c.SpeakerID, &c.Text, &c.StartSec, &c.EndSec, &c.CreatedAt); err != nil {
			return nil, nil, err
		}
		commits = append(commits, c)
	}
	return &m, commits, rows.Err()
}
