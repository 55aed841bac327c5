package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/pkg/config"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
)

func signToken(t *testing.T, secret string, claims models.JWTClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestValidateTokenRoundTrip(t *testing.T) {
	svc := NewTokenService(config.JWTConfig{Secret: "test-secret"})

	signed := signToken(t, "test-secret", models.JWTClaims{
		UserID:   "7",
		Role:     models.RoleStudent,
		Email:    "student@example.com",
		FullName: "Test Student",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := svc.ValidateToken(signed)
	require.NoError(t, err)
	require.Equal(t, "7", claims.UserID)
	require.Equal(t, models.RoleStudent, claims.Role)
	require.Equal(t, "student@example.com", claims.Email)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	svc := NewTokenService(config.JWTConfig{Secret: "test-secret"})

	signed := signToken(t, "other-secret", models.JWTClaims{UserID: "7", Role: models.RoleStudent})

	_, err := svc.ValidateToken(signed)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrUnauthenticated.Code, appErr.Code)
}

func TestValidateTokenExpired(t *testing.T) {
	svc := NewTokenService(config.JWTConfig{Secret: "test-secret"})

	signed := signToken(t, "test-secret", models.JWTClaims{
		UserID: "7",
		Role:   models.RoleStudent,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})

	_, err := svc.ValidateToken(signed)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrUnauthenticated.Code, appErr.Code)
}

func TestValidateTokenGarbage(t *testing.T) {
	svc := NewTokenService(config.JWTConfig{Secret: "test-secret"})

	_, err := svc.ValidateToken("not.a.token")
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrUnauthenticated.Code, appErr.Code)
}
