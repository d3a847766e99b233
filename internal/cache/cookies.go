package cache

import (
	"database/sql"
	"net/http"
	"time"
)

// LoadCookies returns the persisted session cookies for host.
func (d *DB) LoadCookies(host string) ([]*http.Cookie, error) {
	rows, err := d.db.Query(`SELECT name, value, path, domain, expires, secure, http_only
		FROM host_cookies WHERE host = ?`, host)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cookies []*http.Cookie
	for rows.Next() {
		var c http.Cookie
		var path, domain sql.NullString
		var expires sql.NullInt64
		var secure, httpOnly int
		if err := rows.Scan(&c.Name, &c.Value, &path, &domain, &expires, &secure, &httpOnly); err != nil {
			return nil, err
		}
		c.Path = path.String
		c.Domain = domain.String
		if expires.Valid {
			c.Expires = time.Unix(expires.Int64, 0)
		}
		c.Secure = secure != 0
		c.HttpOnly = httpOnly != 0
		cookies = append(cookies, &c)
	}
	return cookies, rows.Err()
}

// SaveCookies replaces the persisted session cookies for host. Other hosts'
// cookies are left alone.
func (d *DB) SaveCookies(host string, cookies []*http.Cookie) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM host_cookies WHERE host = ?`, host); err != nil {
		return err
	}
	for _, c := range cookies {
		var expires sql.NullInt64
		if !c.Expires.IsZero() {
			expires = sql.NullInt64{Int64: c.Expires.Unix(), Valid: true}
		}
		if _, err := tx.Exec(`INSERT OR REPLACE INTO host_cookies
			(host, name, value, path, domain, expires, secure, http_only)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			host, c.Name, c.Value, nullStr(c.Path), nullStr(c.Domain), expires,
			boolInt(c.Secure), boolInt(c.HttpOnly)); err != nil {
			return err
		}
	}
	return tx.Commit()
}
