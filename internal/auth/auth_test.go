package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/wellness-admin-console/pkg/errors"
)

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("upstream-secret"))
	require.NoError(t, err)
	return token
}

func TestStaticTokenSource(t *testing.T) {
	ctx := context.Background()

	token, err := NewStaticTokenSource("").Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	token, err = NewStaticTokenSource(" opaque-token ").Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", token)

	valid := signed(t, time.Now().Add(time.Hour))
	token, err = NewStaticTokenSource(valid).Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, valid, token)

	_, err = NewStaticTokenSource(signed(t, time.Now().Add(-time.Minute))).Token(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
	assert.Contains(t, err.Error(), "access token expired")
}

func TestFileTokenSourceReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	src := NewFileTokenSource(path)

	_, err := src.Token(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	require.NoError(t, os.WriteFile(path, []byte("first\n"), 0o600))
	token, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", token)

	require.NoError(t, os.WriteFile(path, []byte("second"), 0o600))
	later := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, later, later))
	token, err = src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second", token)

	require.NoError(t, os.WriteFile(path, []byte("  "), 0o600))
	evenLater := later.Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, evenLater, evenLater))
	_, err = src.Token(context.Background())
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestVerifier(t *testing.T) {
	assert.Nil(t, NewVerifier(" ", "console"))

	v := NewVerifier("console-secret", "wellness-console")
	token, err := v.Issue("op-1", "ops@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := v.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "op-1", claims.Subject)
	assert.Equal(t, "ops@example.com", claims.Email)

	other := NewVerifier("other-secret", "wellness-console")
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	wrongIssuer := NewVerifier("console-secret", "someone-else")
	_, err = wrongIssuer.ValidateToken(token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	expired, err := v.Issue("op-1", "", -time.Minute)
	require.NoError(t, err)
	_, err = v.ValidateToken(expired)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
