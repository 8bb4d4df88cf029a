package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Enabled:               true,
		Secret:                "test-secret-that-is-long-enough-for-hs256",
		Issuer:                "loja",
		AccessTokenExpiration: 15 * time.Minute,
	})
}

func TestJWTService_IssueAndValidate(t *testing.T) {
	svc := newTestService()
	id := Identity{TenantID: uuid.New(), UserID: uuid.New(), Username: "ana", Roles: []string{"cashier"}}

	token, expiresAt, err := svc.Issue(id)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, time.Minute)

	claims, err := svc.Validate(token)
	require.NoError(t, err)

	tenantID, err := claims.TenantUUID()
	require.NoError(t, err)
	assert.Equal(t, id.TenantID, tenantID)
	userID, err := claims.UserUUID()
	require.NoError(t, err)
	assert.Equal(t, id.UserID, userID)
	assert.True(t, claims.HasRole("cashier"))
	assert.False(t, claims.HasRole("admin"))
}

func TestJWTService_Validate(t *testing.T) {
	svc := newTestService()
	id := Identity{TenantID: uuid.New(), UserID: uuid.New()}

	t.Run("expired", func(t *testing.T) {
		token, _, err := svc.Issue(id)
		require.NoError(t, err)
		later := *svc
		later.now = func() time.Time { return time.Now().Add(time.Hour) }
		_, err = later.Validate(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, _, err := svc.Issue(id)
		require.NoError(t, err)
		other := *svc
		other.secret = []byte("another-secret-another-secret-12")
		_, err = other.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		token, _, err := svc.Issue(id)
		require.NoError(t, err)
		other := *svc
		other.issuer = "someone-else"
		_, err = other.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Validate("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other signing method", func(t *testing.T) {
		claims := &Claims{TenantID: id.TenantID.String(), UserID: id.UserID.String()}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(svc.secret)
		require.NoError(t, err)
		_, err = svc.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing tenant", func(t *testing.T) {
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{Issuer: "loja"},
			UserID:           uuid.NewString(),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.secret)
		require.NoError(t, err)
		_, err = svc.Validate(token)
		assert.ErrorIs(t, err, ErrMissingTenantID)
	})

	t.Run("missing user", func(t *testing.T) {
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{Issuer: "loja"},
			TenantID:         uuid.NewString(),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.secret)
		require.NoError(t, err)
		_, err = svc.Validate(token)
		assert.ErrorIs(t, err, ErrMissingUserID)
	})
}
