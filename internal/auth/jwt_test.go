package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyRoundTrip(t *testing.T) {
	v := NewVerifier("test-secret", "test")

	token, err := v.Sign(Identity{ID: "u1", Username: "alice", Role: "user"}, time.Minute)
	require.NoError(t, err)

	identity, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", identity.ID)
	assert.Equal(t, "alice", identity.Username)
	assert.Equal(t, "user", identity.Role)
}

func TestVerifyMissingToken(t *testing.T) {
	v := NewVerifier("test-secret", "test")

	_, err := v.Verify("")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestVerifyExpiredToken(t *testing.T) {
	v := NewVerifier("test-secret", "test")

	token, err := v.Sign(Identity{ID: "u1", Username: "alice", Role: "user"}, -time.Minute)
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyBadSignature(t *testing.T) {
	v := NewVerifier("test-secret", "test")
	other := NewVerifier("other-secret", "test")

	token, err := other.Sign(Identity{ID: "u1", Username: "alice", Role: "user"}, time.Minute)
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyMalformedToken(t *testing.T) {
	v := NewVerifier("test-secret", "test")

	_, err := v.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsEmptySubject(t *testing.T) {
	v := NewVerifier("test-secret", "test")

	token, err := v.Sign(Identity{Username: "ghost", Role: "user"}, time.Minute)
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
