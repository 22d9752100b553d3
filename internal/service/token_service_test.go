package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-records-api/internal/models"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
)

func validClaims() models.JWTClaims {
	now := time.Now()
	return models.JWTClaims{
		UserID:   "user-1",
		SchoolID: testSchoolID,
		Role:     models.RoleSecretary,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
}

func TestTokenServiceRoundTrip(t *testing.T) {
	svc := NewTokenService("secret")
	token, err := svc.Sign(validClaims())
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, testSchoolID, claims.SchoolID)
	assert.Equal(t, models.RoleSecretary, claims.Role)
}

func TestTokenServiceRejects(t *testing.T) {
	svc := NewTokenService("secret")

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	expiredToken, err := svc.Sign(expired)
	require.NoError(t, err)

	noSchool := validClaims()
	noSchool.SchoolID = ""
	noSchoolToken, err := svc.Sign(noSchool)
	require.NoError(t, err)

	foreign, err := NewTokenService("other").Sign(validClaims())
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, validClaims()).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":     expiredToken,
		"no school":   noSchoolToken,
		"wrong key":   foreign,
		"alg none":    none,
		"not a token": "abc.def",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
		})
	}
}
