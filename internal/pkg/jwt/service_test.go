package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(now time.Time) *HMACService {
	s := NewHMACService("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
	s.now = func() time.Time { return now }
	return s
}

func TestIssueAndParse(t *testing.T) {
	s := newService(time.Now())
	uid := uuid.New()

	pair, err := s.IssuePair(uid, "dev@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(900), pair.ExpiresIn)

	c, err := s.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uid, c.UserID)
	assert.Equal(t, "dev@example.com", c.Email)

	c, err = s.ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, uid, c.UserID)
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	s := newService(time.Now())
	pair, err := s.IssuePair(uuid.New(), "")
	require.NoError(t, err)

	_, err = s.ParseAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	_, err = s.ParseRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestExpired(t *testing.T) {
	issued := time.Now().Add(-time.Hour)
	pair, err := newService(issued).IssuePair(uuid.New(), "")
	require.NoError(t, err)

	_, err = newService(time.Now()).ParseAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestGarbageAndWrongSecret(t *testing.T) {
	s := newService(time.Now())
	_, err := s.ParseAccess("not-a-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	other := NewHMACService("different", "different", time.Minute, time.Minute)
	pair, err := other.IssuePair(uuid.New(), "")
	require.NoError(t, err)
	_, err = s.ParseAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestMissingSecret(t *testing.T) {
	s := NewHMACService("", "r", time.Minute, time.Minute)
	_, err := s.IssuePair(uuid.New(), "")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
