package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func TestSignJWT_RoundTrip(t *testing.T) {
	tokenString, err := SignJWT("secret", "user-1", "client", []string{"client", "fundi"}, 60)

	assert.NoError(t, err)
	assert.NotEmpty(t, tokenString)

	claims, err := ParseJWT("secret", tokenString)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "client", claims.Role)
	assert.Equal(t, []string{"client", "fundi"}, claims.Roles)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestParseJWT_InvalidToken(t *testing.T) {
	_, err := ParseJWT("secret", "invalid.token.string")
	assert.Error(t, err)
}

func TestParseJWT_Missing(t *testing.T) {
	_, err := ParseJWT("secret", "")
	assert.Error(t, err)
}

func TestParseJWT_Expired(t *testing.T) {
	tokenString, _ := SignJWT("secret", "user-1", "client", nil, -1)

	_, err := ParseJWT("secret", tokenString)
	assert.Error(t, err)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseJWT_WrongSecret(t *testing.T) {
	tokenString, _ := SignJWT("secret1", "user-1", "client", nil, 60)

	_, err := ParseJWT("secret2", tokenString)
	assert.Error(t, err)
}

func TestParseJWT_RejectsOtherSigningMethod(t *testing.T) {
	claims := &Claims{
		UserID: "user-1",
		Role:   "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	assert.NoError(t, err)

	_, err = ParseJWT("secret", tokenString)
	assert.Error(t, err)
}
