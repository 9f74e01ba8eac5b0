package service

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "unit-test-secret"
	testIssuer = "account-service"
)

func TestGenerateToken_AndParse_OK(t *testing.T) {
	t.Parallel()

	uid := uuid.New()
	now := time.Now().UTC()

	token, err := GenerateToken(uid, testSecret, 15*time.Minute, testIssuer, now)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := ParseToken(token, testSecret, testIssuer)
	require.NoError(t, err)
	require.Equal(t, uid, parsed)
}

func TestParseToken_WrongSecret(t *testing.T) {
	t.Parallel()

	uid := uuid.New()
	token, err := GenerateToken(uid, testSecret, 15*time.Minute, testIssuer, time.Now().UTC())
	require.NoError(t, err)

	_, err = ParseToken(token, "other-secret", testIssuer)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_WrongIssuer(t *testing.T) {
	t.Parallel()

	uid := uuid.New()
	token, err := GenerateToken(uid, testSecret, 15*time.Minute, "another-service", time.Now().UTC())
	require.NoError(t, err)

	_, err = ParseToken(token, testSecret, testIssuer)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_Expired(t *testing.T) {
	t.Parallel()

	uid := uuid.New()
	// Токен выпущен два часа назад со сроком жизни в час: leeway в 5 секунд
	// его не спасает.
	past := time.Now().UTC().Add(-2 * time.Hour)
	token, err := GenerateToken(uid, testSecret, time.Hour, testIssuer, past)
	require.NoError(t, err)

	_, err = ParseToken(token, testSecret, testIssuer)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseToken_WrongAlg(t *testing.T) {
	t.Parallel()

	uid := uuid.New()
	now := time.Now().UTC()

	claims := tokenClaims{
		UserID: uid.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    testIssuer,
			Subject:   uid.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = ParseToken(signed, testSecret, testIssuer)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_Garbage(t *testing.T) {
	t.Parallel()

	_, err := ParseToken("not-a-jwt-at-all", testSecret, testIssuer)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_BadUID(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	claims := tokenClaims{
		UserID: "not-a-uuid",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    testIssuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = ParseToken(signed, testSecret, testIssuer)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestHashToken(t *testing.T) {
	t.Parallel()

	sum := sha256.Sum256([]byte("some-token"))
	want := base64.RawURLEncoding.EncodeToString(sum[:])

	require.Equal(t, want, HashToken("some-token"))
	require.Equal(t, HashToken("some-token"), HashToken("some-token"))
	require.NotEqual(t, HashToken("some-token"), HashToken("other-token"))
}
