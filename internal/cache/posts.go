package cache

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/fragmede/postdesk/internal/api"
)

// GetPosts returns the last stored post list in server order.
// Returns (posts, isFresh, error); posts is nil when nothing is stored.
func (d *DB) GetPosts(ttl time.Duration) ([]api.Post, bool, error) {
	rows, err := d.db.Query(`SELECT id, title, body, is_published, fetched_at
		FROM posts ORDER BY position ASC`)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	var posts []api.Post
	var oldest int64
	for rows.Next() {
		var p api.Post
		var body sql.NullString
		var published int
		var fetchedAt int64
		if err := rows.Scan(&p.ID, &p.Title, &body, &published, &fetchedAt); err != nil {
			return nil, false, err
		}
		p.Body = body.String
		p.IsPublished = published != 0
		if oldest == 0 || fetchedAt < oldest {
			oldest = fetchedAt
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	if posts == nil {
		return nil, false, nil
	}

	isFresh := time.Since(time.Unix(oldest, 0)) < ttl
	return posts, isFresh, nil
}

// PutPosts replaces the stored post list.
func (d *DB) PutPosts(posts []api.Post) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM posts`); err != nil {
		return err
	}
	now := time.Now().Unix()
	for i, p := range posts {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO posts
			(id, title, body, is_published, position, fetched_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			p.ID, p.Title, nullStr(p.Body), boolInt(p.IsPublished), i, now); err != nil {
			return fmt.Errorf("storing post %d: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

// PutPost updates a single stored post, keeping its position. Posts that
// are not in the stored list are ignored.
func (d *DB) PutPost(p api.Post) error {
	_, err := d.db.Exec(`UPDATE posts SET title = ?, body = ?, is_published = ? WHERE id = ?`,
		p.Title, nullStr(p.Body), boolInt(p.IsPublished), p.ID)
	return err
}

// DeletePost drops a post from the stored list.
func (d *DB) DeletePost(id int) error {
	_, err := d.db.Exec(`DELETE FROM posts WHERE id = ?`, id)
	return err
}
