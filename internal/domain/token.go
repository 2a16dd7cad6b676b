package domain

import "time"

// DefaultTokenName is the label given to tokens issued by register, login and refresh.
const DefaultTokenName = "authToken"

// AccessToken is the persisted half of a bearer token.
// A presented token is only honored while its row exists, so revoking
// means deleting the row.
type AccessToken struct {
	ID         string
	UserID     int64
	Name       string
	CreatedAt  time.Time
	LastUsedAt *time.Time
	ExpiresAt  *time.Time
}

// IsExpired reports whether the token has passed its expiry at now.
// Tokens without an expiry never expire.
func (t *AccessToken) IsExpired(now time.Time) bool {
	return t.ExpiresAt != nil && !now.Before(*t.ExpiresAt)
}
