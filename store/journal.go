package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	migrate "github.com/rubenv/sql-migrate"
	_ "modernc.org/sqlite"

	"github.com/polliog/launch-outreach/launch"
)

var journalMigrations = &migrate.MemoryMigrationSource{
	Migrations: []*migrate.Migration{
		{
			Id: "1_create_deliveries",
			Up: []string{
				`CREATE TABLE deliveries (
					id           TEXT PRIMARY KEY,
					record_key   TEXT NOT NULL,
					product      TEXT NOT NULL,
					email        TEXT NOT NULL,
					recipient    TEXT NOT NULL,
					status       TEXT NOT NULL,
					message_id   TEXT NOT NULL DEFAULT '',
					detail       TEXT NOT NULL DEFAULT '',
					attempted_at TIMESTAMP NOT NULL
				)`,
				`CREATE INDEX deliveries_record_key ON deliveries (record_key)`,
			},
			Down: []string{`DROP TABLE deliveries`},
		},
	},
}

// Attempt is one journaled delivery decision. Detail carries the transport
// error for failed sends and the reason for skips.
type Attempt struct {
	ID          string
	Key         string
	Product     string
	Email       string
	Recipient   string
	Status      launch.DeliveryStatus
	MessageID   string
	Detail      string
	AttemptedAt time.Time
}

// Journal is an append-only SQLite log of delivery attempts.
type Journal struct {
	db *sql.DB
}

func OpenJournal(ctx context.Context, path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	db.SetMaxOpenConns(1)

	if _, err := migrate.ExecContext(ctx, db, "sqlite3", journalMigrations, migrate.Up); err != nil {
		db.Close()

		return nil, fmt.Errorf("migrating journal: %w", err)
	}

	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) Record(ctx context.Context, a Attempt) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}

	if a.AttemptedAt.IsZero() {
		a.AttemptedAt = time.Now()
	}

	const q = `INSERT INTO deliveries
		(id, record_key, product, email, recipient, status, message_id, detail, attempted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := j.db.ExecContext(ctx, q,
		a.ID, a.Key, a.Product, a.Email, a.Recipient, string(a.Status),
		a.MessageID, a.Detail, a.AttemptedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording attempt for %s: %w", a.Key, err)
	}

	return nil
}

// Attempts lists the journaled attempts for a record key, oldest first.
func (j *Journal) Attempts(ctx context.Context, key string) ([]Attempt, error) {
	const q = `SELECT id, record_key, product, email, recipient, status, message_id, detail, attempted_at
		FROM deliveries WHERE record_key = ? ORDER BY attempted_at, rowid`

	rows, err := j.db.QueryContext(ctx, q, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []Attempt

	for rows.Next() {
		var (
			a      Attempt
			status string
		)

		if err := rows.Scan(&a.ID, &a.Key, &a.Product, &a.Email, &a.Recipient, &status,
			&a.MessageID, &a.Detail, &a.AttemptedAt); err != nil {
			return nil, err
		}

		a.Status = launch.DeliveryStatus(status)
		attempts = append(attempts, a)
	}

	return attempts, rows.Err()
}
