package db

import (
	"database/sql"
	"net/http"
	"time"
)

// SaveCookies replaces the stored cookies for host. Cookies with a
// negative MaxAge or an expiry in the past are dropped.
func (db *DB) SaveCookies(host string, cookies []*http.Cookie) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM cookies WHERE host = ?", host); err != nil {
		return err
	}

	now := time.Now()
	for _, c := range cookies {
		if c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(now)) {
			continue
		}
		var expires sql.NullTime
		if !c.Expires.IsZero() {
			expires = sql.NullTime{Time: c.Expires.UTC(), Valid: true}
		}
		path := c.Path
		if path == "" {
			path = "/"
		}
		_, err := tx.Exec(`
			INSERT INTO cookies (host, name, value, path, expires_at, secure, http_only)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, host, c.Name, c.Value, path, expires, c.Secure, c.HttpOnly)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadCookies returns the unexpired cookies stored for host
func (db *DB) LoadCookies(host string) ([]*http.Cookie, error) {
	rows, err := db.Query(`
		SELECT name, value, path, expires_at, secure, http_only
		FROM cookies WHERE host = ?
		ORDER BY name
	`, host)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	now := time.Now()
	var cookies []*http.Cookie
	for rows.Next() {
		var (
			c       http.Cookie
			expires sql.NullTime
		)
		if err := rows.Scan(&c.Name, &c.Value, &c.Path, &expires, &c.Secure, &c.HttpOnly); err != nil {
			return nil, err
		}
		if expires.Valid {
			if expires.Time.Before(now) {
				continue
			}
			c.Expires = expires.Time
		}
		cookies = append(cookies, &c)
	}
	return cookies, rows.Err()
}

// ClearCookies removes every stored cookie
func (db *DB) ClearCookies() error {
	_, err := db.Exec("DELETE FROM cookies")
	return err
}
