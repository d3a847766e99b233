package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// UserID is the server's user id kept as the JSON it arrived as, so UUID
// strings and integers both round-trip unchanged.
type UserID string

// UserIDFromUUID encodes u the way a UUID-keyed server sends it.
func UserIDFromUUID(u uuid.UUID) UserID {
	return UserID(`"` + u.String() + `"`)
}

// MarshalJSON implements json.Marshaler.
func (id UserID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	return []byte(id), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *UserID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if !json.Valid(b) {
		return fmt.Errorf("invalid user id %q", b)
	}
	*id = UserID(b)
	return nil
}

// String returns the id without JSON quoting.
func (id UserID) String() string {
	var s string
	if err := json.Unmarshal([]byte(id), &s); err == nil {
		return s
	}
	return string(id)
}

// User is the account record returned by /auth/users/me and /auth/register.
type User struct {
	ID          UserID `json:"id"`
	Email       string `json:"email"`
	IsActive    bool   `json:"is_active"`
	IsSuperuser bool   `json:"is_superuser"`
	IsVerified  bool   `json:"is_verified"`
}

// UserCreate is the registration payload.
type UserCreate struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	IsActive    bool   `json:"is_active"`
	IsSuperuser bool   `json:"is_superuser"`
	IsVerified  bool   `json:"is_verified"`
}

// Post is a blog post as served by /api/v1/posts.
type Post struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	IsPublished bool   `json:"is_published"`
}

// StatusError is returned when the server answers with a non-2xx status.
// Detail holds the server's "detail" message when the body carried one.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}
