package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// #region cycle-id
// NewCycleID mints an identifier shared by all rows of one rank-update cycle.
func NewCycleID() string {
	return uuid.New().String()
}

// #endregion cycle-id

// #region log-rating
// LogRating writes one committed rating to the rating_history table.
func LogRating(db *sql.DB, entry Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO rating_history (cycle_id, name, mu, sigma, samples, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.CycleID,
		entry.Name,
		entry.Mu,
		entry.Sigma,
		entry.Samples,
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log rating: %w", err)
	}
	return nil
}

// #endregion log-rating

// #region queries
// ListCycle returns every rating committed under one cycle id, oldest first.
func ListCycle(db *sql.DB, cycleID string) ([]Entry, error) {
	rows, err := db.Query(
		`SELECT cycle_id, name, mu, sigma, samples, created_at
		 FROM rating_history WHERE cycle_id = ? ORDER BY id ASC`, cycleID,
	)
	if err != nil {
		return nil, fmt.Errorf("list cycle: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Recent returns the most recent history rows, newest first.
func Recent(db *sql.DB, limit int) ([]Entry, error) {
	rows, err := db.Query(
		`SELECT cycle_id, name, mu, sigma, samples, created_at
		 FROM rating_history ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdStr string
		if err := rows.Scan(&e.CycleID, &e.Name, &e.Mu, &e.Sigma, &e.Samples, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// #endregion queries
