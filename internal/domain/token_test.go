package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccessToken_IsExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	assert.False(t, (&AccessToken{}).IsExpired(now), "no expiry never expires")
	assert.True(t, (&AccessToken{ExpiresAt: &past}).IsExpired(now))
	assert.True(t, (&AccessToken{ExpiresAt: &now}).IsExpired(now))
	assert.False(t, (&AccessToken{ExpiresAt: &future}).IsExpired(now))
}

func TestBook_IsOwnedBy(t *testing.T) {
	b := &Book{UserID: 7}
	assert.True(t, b.IsOwnedBy(7))
	assert.False(t, b.IsOwnedBy(8))
}
