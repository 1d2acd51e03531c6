package db

import (
	"database/sql"

	"github.com/tgienger/taskflow/internal/models"
)

// SaveUser replaces the cached user shown before the session check returns
func (db *DB) SaveUser(u models.User) error {
	_, err := db.Exec(`
		INSERT INTO cached_user (slot, user_id, name, email) VALUES (1, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			user_id = excluded.user_id,
			name = excluded.name,
			email = excluded.email,
			updated_at = CURRENT_TIMESTAMP
	`, u.ID, u.Name, u.Email)
	return err
}

// CachedUser returns the cached user, or nil when there is none
func (db *DB) CachedUser() (*models.User, error) {
	u := &models.User{}
	err := db.QueryRow("SELECT user_id, name, email FROM cached_user WHERE slot = 1").
		Scan(&u.ID, &u.Name, &u.Email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// ClearUser drops the cached user
func (db *DB) ClearUser() error {
	_, err := db.Exec("DELETE FROM cached_user")
	return err
}
