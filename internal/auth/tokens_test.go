package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(t *testing.T, ttl time.Duration) *TokenService {
	t.Helper()
	key, err := LoadOrGenerateKey(t.TempDir())
	require.NoError(t, err)
	svc, err := NewTokenService(key, ttl)
	require.NoError(t, err)
	return svc
}

func TestNewTokenService_RejectsBadKeys(t *testing.T) {
	_, err := NewTokenService(make([]byte, 16), time.Hour)
	assert.Error(t, err)

	_, err = NewTokenService(make([]byte, keyLength), -time.Second)
	assert.Error(t, err)
}

func TestTokenService_IssueAndParse(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)

	issued, err := svc.Issue(42)
	require.NoError(t, err)
	require.NotNil(t, issued.ExpiresAt)
	assert.Equal(t, int64(42), issued.UserID)
	assert.Contains(t, issued.Token, "v4.local.")
	assert.NotContains(t, issued.Token, issued.ID, "token id must not be readable without the key")

	claims, err := svc.Parse(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, issued.ID, claims.TokenID)

	userID, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestTokenService_EveryIssueIsDistinct(t *testing.T) {
	svc := newTestTokenService(t, 0)

	a, err := svc.Issue(1)
	require.NoError(t, err)
	b, err := svc.Issue(1)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, a.Token, b.Token)
}

func TestTokenService_NoTTL(t *testing.T) {
	svc := newTestTokenService(t, 0)

	issued, err := svc.Issue(1)
	require.NoError(t, err)
	assert.Nil(t, issued.ExpiresAt)

	// Far in the future the token still parses.
	svc.now = func() time.Time { return time.Now().Add(10 * 365 * 24 * time.Hour) }
	_, err = svc.Parse(issued.Token)
	assert.NoError(t, err)
}

func TestTokenService_Expired(t *testing.T) {
	svc := newTestTokenService(t, time.Minute)

	issued, err := svc.Issue(1)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = svc.Parse(issued.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_RejectsForeignAndGarbageTokens(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)
	other := newTestTokenService(t, time.Hour)

	issued, err := other.Issue(1)
	require.NoError(t, err)

	_, err = svc.Parse(issued.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Parse("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLoadOrGenerateKey(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")

	first, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Len(t, first, keyLength)

	info, err := os.Stat(filepath.Join(dir, KeyFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Equal(t, first, second, "existing key must be reused")
}

func TestLoadOrGenerateKey_RejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, KeyFileName), []byte("short"), 0o600))

	_, err := LoadOrGenerateKey(dir)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, KeyFileName), []byte(string(make([]byte, keyHexLength))), 0o600))
	_, err = LoadOrGenerateKey(dir)
	assert.Error(t, err)
}
