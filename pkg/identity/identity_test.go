package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talentpivot/talentpivot/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher(t *testing.T) {
	hasher := &Hasher{Cost: bcrypt.MinCost}

	hash, err := hasher.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	require.NoError(t, hasher.Compare(hash, "correct horse"))
	assert.ErrorIs(t, hasher.Compare(hash, "wrong horse"), ErrUnauthorized)
	assert.ErrorIs(t, hasher.Compare("", "anything"), ErrUnauthorized)
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer("secret", 0)
	require.NoError(t, err)

	token, expiresAt, err := issuer.Issue(Identity{Email: "HR@Example.com", Role: models.RoleHR})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(DefaultTokenTTL), expiresAt, time.Minute)

	for _, credential := range []string{token, "Bearer " + token, "bearer " + token} {
		id, err := issuer.Authenticate(context.Background(), credential)
		require.NoError(t, err)
		assert.Equal(t, Identity{Email: "hr@example.com", Role: models.RoleHR}, id)
	}
}

func TestTokenIssuer_Rejects(t *testing.T) {
	issuer, err := NewTokenIssuer("secret", time.Hour)
	require.NoError(t, err)

	other, err := NewTokenIssuer("other-secret", time.Hour)
	require.NoError(t, err)

	forged, _, err := other.Issue(Identity{Email: "hr@example.com", Role: models.RoleHR})
	require.NoError(t, err)

	expiredIssuer, err := NewTokenIssuer("secret", time.Hour)
	require.NoError(t, err)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	expired, _, err := expiredIssuer.Issue(Identity{Email: "hr@example.com", Role: models.RoleHR})
	require.NoError(t, err)

	badRole, _, err := issuer.Issue(Identity{Email: "hr@example.com", Role: models.Role("CEO")})
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "hr@example.com", "role": "HR"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"empty":          "",
		"garbage":        "not-a-token",
		"wrong secret":   forged,
		"expired":        expired,
		"unknown role":   badRole,
		"unsigned token": none,
	}

	for name, credential := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := issuer.Authenticate(context.Background(), credential)
			assert.ErrorIs(t, err, ErrUnauthorized)
		})
	}
}

func TestNewTokenIssuer_RequiresSecret(t *testing.T) {
	_, err := NewTokenIssuer("  ", time.Hour)
	assert.Error(t, err)
}

func TestContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), Identity{Email: "l1@example.com", Role: models.RoleL1})
	id, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, models.RoleL1, id.Role)
}
