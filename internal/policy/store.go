package policy

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS policies (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	name             TEXT NOT NULL UNIQUE,
	snapshot_path    TEXT NOT NULL,
	architecture_tag TEXT NOT NULL,
	mu               REAL NOT NULL,
	sigma            REAL NOT NULL,
	episodes         INTEGER NOT NULL DEFAULT 0,
	metadata         TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS rating_history (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	cycle_id   TEXT NOT NULL,
	name       TEXT NOT NULL,
	mu         REAL NOT NULL,
	sigma      REAL NOT NULL,
	samples    INTEGER NOT NULL,
	created_at TEXT NOT NULL
);
`

// #endregion schema

// #region store-struct
// Store is the durable, single-writer repository of policy records,
// keyed by unique name.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStoreWithDB wraps an existing database handle. Used by tests that need
// raw access to the underlying tables.
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by other packages (e.g. history).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion db-accessor

// #region add
// Add inserts a record. If the name is taken and overwrite is false, the
// store is left unchanged and ErrNameConflict is returned; with overwrite
// the prior record is deleted and replaced in the same transaction.
func (s *Store) Add(rec Record, overwrite bool) error {
	metaJSON, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var existingID int64
	err = tx.QueryRow(`SELECT id FROM policies WHERE name = ?`, rec.Name).Scan(&existingID)
	switch {
	case err == nil:
		if !overwrite {
			return fmt.Errorf("add %q: %w", rec.Name, ErrNameConflict)
		}
		if _, err := tx.Exec(`DELETE FROM policies WHERE id = ?`, existingID); err != nil {
			return fmt.Errorf("delete prior %q: %w", rec.Name, err)
		}
	case err != sql.ErrNoRows:
		return fmt.Errorf("check name %q: %w", rec.Name, err)
	}

	_, err = tx.Exec(
		`INSERT INTO policies (name, snapshot_path, architecture_tag, mu, sigma, episodes, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Name, rec.SnapshotPath, rec.ArchitectureTag, rec.Mu, rec.Sigma,
		rec.Episodes, string(metaJSON),
	)
	if err != nil {
		return fmt.Errorf("insert %q: %w", rec.Name, err)
	}

	return tx.Commit()
}

// #endregion add

// #region get-by-name
// GetByName retrieves a policy record by its unique name.
func (s *Store) GetByName(name string) (Record, error) {
	row := s.db.QueryRow(
		`SELECT id, name, snapshot_path, architecture_tag, mu, sigma, episodes, metadata
		 FROM policies WHERE name = ?`, name,
	)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return Record{}, fmt.Errorf("get %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("get %q: %w", name, err)
	}
	return rec, nil
}

// #endregion get-by-name

// #region list-queries
// GetAll returns every stored policy record.
func (s *Store) GetAll() ([]Record, error) {
	return s.list(func(Record) bool { return true })
}

// GetTenured returns records whose metadata coerces tenured to true.
func (s *Store) GetTenured() ([]Record, error) {
	return s.list(func(r Record) bool { return r.Metadata.Tenured() })
}

// GetUntenured returns records whose metadata coerces tenured to false.
func (s *Store) GetUntenured() ([]Record, error) {
	return s.list(func(r Record) bool { return !r.Metadata.Tenured() })
}

func (s *Store) list(keep func(Record) bool) ([]Record, error) {
	rows, err := s.db.Query(
		`SELECT id, name, snapshot_path, architecture_tag, mu, sigma, episodes, metadata
		 FROM policies ORDER BY id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if keep(rec) {
			records = append(records, rec)
		}
	}
	return records, rows.Err()
}

// #endregion list-queries

// #region delete
// Delete removes a policy record by name.
func (s *Store) Delete(name string) error {
	res, err := s.db.Exec(`DELETE FROM policies WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("delete %q: %w", name, ErrNotFound)
	}
	return nil
}

// #endregion delete

// #region update
// Update commits all mutable fields (mu, sigma, episodes, metadata) of an
// existing record. Fails with ErrNotFound if the record no longer exists.
func (s *Store) Update(rec Record) error {
	metaJSON, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	res, err := s.db.Exec(
		`UPDATE policies SET mu = ?, sigma = ?, episodes = ?, metadata = ? WHERE name = ?`,
		rec.Mu, rec.Sigma, rec.Episodes, string(metaJSON), rec.Name,
	)
	if err != nil {
		return fmt.Errorf("update %q: %w", rec.Name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %q: %w", rec.Name, err)
	}
	if n == 0 {
		return fmt.Errorf("update %q: %w", rec.Name, ErrNotFound)
	}
	return nil
}

// #endregion update

// #region scan
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var metaJSON string
	err := row.Scan(
		&rec.ID, &rec.Name, &rec.SnapshotPath, &rec.ArchitectureTag,
		&rec.Mu, &rec.Sigma, &rec.Episodes, &metaJSON,
	)
	if err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal([]byte(metaJSON), &rec.Metadata); err != nil {
		return Record{}, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return rec, nil
}

// #endregion scan
