// Package registry persists named port reservations so repeated suggestions
// do not hand out the same port twice.
package registry

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when no reservation exists for a name
var ErrNotFound = errors.New("reservation not found")

// Registry manages port reservations
type Registry struct {
	db  *sql.DB
	now func() time.Time
}

// DefaultPath returns ~/.crossport/registry.db
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".crossport", "registry.db"), nil
}

// New opens the registry at the default location
func New() (*Registry, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return Open(path)
}

// Open creates or opens a registry database at path
func Open(path string) (*Registry, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create registry directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	r := &Registry{db: db, now: time.Now}

	if err := r.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return r, nil
}

// Close closes the database connection
func (r *Registry) Close() error {
	return r.db.Close()
}

func (r *Registry) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reservations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		port INTEGER NOT NULL UNIQUE,
		created_at TEXT NOT NULL,
		expires_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_expires ON reservations(expires_at);
	`

	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Reserve records name -> port for ttlDays. Reserving an existing name moves
// it to the new port and refreshes its expiry. A port still held by another
// unexpired name is rejected; an expired holder is evicted.
func (r *Registry) Reserve(name string, port, ttlDays int) (*Reservation, error) {
	now := r.now().UTC()
	createdAt := now.Format(time.RFC3339)
	expiresAt := now.AddDate(0, 0, ttlDays).Format(time.RFC3339)

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var holder, holderExpires string
	err = tx.QueryRow(
		"SELECT name, expires_at FROM reservations WHERE port = ?", port,
	).Scan(&holder, &holderExpires)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return nil, fmt.Errorf("failed to check port holder: %w", err)
	case holder != name:
		if holderExpires > now.Format(time.RFC3339) {
			return nil, fmt.Errorf("port %d is already reserved by %s", port, holder)
		}
		if _, err := tx.Exec("DELETE FROM reservations WHERE port = ?", port); err != nil {
			return nil, fmt.Errorf("failed to evict expired reservation: %w", err)
		}
	}

	_, err = tx.Exec(`
		INSERT INTO reservations (name, port, created_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET port = excluded.port, expires_at = excluded.expires_at
	`, name, port, createdAt, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save reservation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit reservation: %w", err)
	}

	return r.Get(name)
}

// Get returns the reservation for name
func (r *Registry) Get(name string) (*Reservation, error) {
	var res Reservation
	var createdAt, expiresAt string

	err := r.db.QueryRow(`
		SELECT id, name, port, created_at, expires_at
		FROM reservations
		WHERE name = ?
	`, name).Scan(&res.ID, &res.Name, &res.Port, &createdAt, &expiresAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}

	res.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	res.ExpiresAt, _ = time.Parse(time.RFC3339, expiresAt)

	return &res, nil
}

// Release removes the reservation for name
func (r *Registry) Release(name string) error {
	result, err := r.db.Exec("DELETE FROM reservations WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("failed to release reservation: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// List returns every reservation ordered by port
func (r *Registry) List() ([]Reservation, error) {
	rows, err := r.db.Query(`
		SELECT id, name, port, created_at, expires_at
		FROM reservations
		ORDER BY port ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var reservations []Reservation
	for rows.Next() {
		var res Reservation
		var createdAt, expiresAt string

		if err := rows.Scan(&res.ID, &res.Name, &res.Port, &createdAt, &expiresAt); err != nil {
			return nil, err
		}

		res.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		res.ExpiresAt, _ = time.Parse(time.RFC3339, expiresAt)

		reservations = append(reservations, res)
	}

	return reservations, rows.Err()
}

// ReservedPorts returns the set of ports held by unexpired reservations
func (r *Registry) ReservedPorts() (map[int]bool, error) {
	now := r.now().UTC().Format(time.RFC3339)

	rows, err := r.db.Query("SELECT port FROM reservations WHERE expires_at > ?", now)
	if err != nil {
		return nil, fmt.Errorf("failed to query ports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ports := make(map[int]bool)
	for rows.Next() {
		var port int
		if err := rows.Scan(&port); err != nil {
			return nil, err
		}
		ports[port] = true
	}

	return ports, rows.Err()
}

// PurgeExpired deletes expired reservations and returns them
func (r *Registry) PurgeExpired() ([]Reservation, error) {
	all, err := r.List()
	if err != nil {
		return nil, err
	}

	now := r.now()
	var expired []Reservation
	for _, res := range all {
		if res.Expired(now) {
			expired = append(expired, res)
		}
	}

	for _, res := range expired {
		if _, err := r.db.Exec("DELETE FROM reservations WHERE id = ?", res.ID); err != nil {
			return nil, fmt.Errorf("failed to purge reservation %s: %w", res.Name, err)
		}
	}

	return expired, nil
}
