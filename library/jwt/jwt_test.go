package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestSignAndParse(t *testing.T) {
	now := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
	j, err := New([]byte("secret"), WithClock(fixedClock(now)))
	require.NoError(t, err)

	token, err := j.Sign(42, "laisky")
	require.NoError(t, err)

	claims, err := j.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "laisky", claims.Username)
	id, err := claims.UserID()
	require.NoError(t, err)
	require.EqualValues(t, 42, id)
	require.Equal(t, now.Add(DefaultTTL).Unix(), claims.ExpiresAt.Unix())
}

func TestParseRejects(t *testing.T) {
	now := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
	j, err := New([]byte("secret"), WithClock(fixedClock(now)), WithTTL(time.Hour))
	require.NoError(t, err)
	token, err := j.Sign(1, "laisky")
	require.NoError(t, err)

	other, err := New([]byte("other"), WithClock(fixedClock(now)))
	require.NoError(t, err)
	later, err := New([]byte("secret"), WithClock(fixedClock(now.Add(2*time.Hour))))
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, &UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	for name, tc := range map[string]struct {
		j     *JWT
		token string
	}{
		"garbage":    {j, "not-a-token"},
		"wrong key":  {other, token},
		"expired":    {later, token},
		"alg none":   {j, noneToken},
		"no subject": {j, noSubject},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := tc.j.Parse(tc.token)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	_, err = New([]byte("s"), WithTTL(0))
	require.Error(t, err)
	_, err = New([]byte("s"), WithClock(nil))
	require.Error(t, err)
}
