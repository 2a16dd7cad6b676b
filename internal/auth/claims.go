package auth

import (
	"fmt"
	"strconv"
	"time"
)

// Claims are the decrypted contents of a bearer token.
// v4.local tokens are encrypted, so none of this is visible to clients.
type Claims struct {
	Issuer    string     `json:"iss"`
	Subject   string     `json:"sub"`
	Audience  string     `json:"aud"`
	IssuedAt  time.Time  `json:"iat"`
	ExpiresAt *time.Time `json:"exp,omitempty"`
	TokenID   string     `json:"jti"`
}

// UserID returns the numeric user id carried in the subject claim.
func (c *Claims) UserID() (int64, error) {
	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, fmt.Errorf("invalid subject %q", c.Subject)
	}
	return userID, nil
}
