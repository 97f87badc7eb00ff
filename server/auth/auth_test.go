package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestGenerateAndParse(t *testing.T) {
	token, err := GenerateAccessToken(42, testSecret)
	require.NoError(t, err)

	claims, err := Parse(token, testSecret)
	require.NoError(t, err)
	require.Equal(t, int32(42), claims.UserID)
	require.WithinDuration(t, time.Now().Add(AccessTokenDuration), claims.ExpiresAt, time.Minute)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(42, testSecret)
	require.NoError(t, err)

	_, err = Parse(token, "other-secret")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsEmptyToken(t *testing.T) {
	_, err := Parse("  ", testSecret)
	require.ErrorIs(t, err, ErrMissingToken)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    Issuer,
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	signed, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = Parse(signed, testSecret)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsForeignIssuer(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "somebody-else",
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = Parse(signed, testSecret)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsNonNumericSubject(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    Issuer,
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = Parse(signed, testSecret)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestFromAuthorizationHeader(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{name: "bearer token", header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "case insensitive scheme", header: "bearer abc", want: "abc"},
		{name: "empty header", header: "", wantErr: ErrMissingToken},
		{name: "wrong scheme", header: "Basic abc", wantErr: ErrInvalidToken},
		{name: "scheme only", header: "Bearer ", wantErr: ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := FromAuthorizationHeader(tt.header)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, token)
		})
	}
}
