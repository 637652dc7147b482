package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/assistant-api/internal/config"
)

var testSecret = []byte("test-secret")

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v := newValidator(&config.Config{
		AuthEnabled:    true,
		AuthIssuer:     "https://issuer.test",
		AuthAudience:   "assistant",
		AuthGroupClaim: "groups",
		AdminGroup:     "admin",
	}, zerolog.Nop())
	v.methods = []string{"HS256"}
	v.keyfunc = func(token *jwt.Token) (any, error) {
		return testSecret, nil
	}
	return v
}

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return token
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"iss":                "https://issuer.test",
		"aud":                "assistant",
		"sub":                "user-1",
		"exp":                time.Now().Add(time.Hour).Unix(),
		"preferred_username": "jane",
		"email":              "jane@example.com",
		"groups":             []any{"/staff", "admin"},
	}
}

func TestValidator_AuthenticateValidToken(t *testing.T) {
	v := newTestValidator(t)

	u, err := v.Authenticate(context.Background(), "Bearer "+sign(t, validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "user-1", u.ID)
	assert.Equal(t, "jane", u.Name)
	assert.Equal(t, "jane@example.com", u.Email)
	assert.Equal(t, []string{"staff", "admin"}, u.Groups)
	assert.Equal(t, "staff", u.UserGroupID)
	assert.True(t, u.IsAdmin())
}

func TestValidator_RejectsBadTokens(t *testing.T) {
	v := newTestValidator(t)
	ctx := context.Background()

	_, err := v.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrMissingToken)

	wrongIssuer := validClaims()
	wrongIssuer["iss"] = "https://other.test"
	_, err = v.Authenticate(ctx, "Bearer "+sign(t, wrongIssuer))
	assert.Error(t, err)

	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Hour).Unix()
	_, err = v.Authenticate(ctx, "Bearer "+sign(t, expired))
	assert.Error(t, err)

	noSubject := validClaims()
	delete(noSubject, "sub")
	_, err = v.Authenticate(ctx, "Bearer "+sign(t, noSubject))
	assert.Error(t, err)
}

func TestValidator_DisabledUsesDevUser(t *testing.T) {
	v, err := NewValidator(context.Background(), &config.Config{
		DevUserID:    "dev",
		DevUserGroup: "admin",
		AdminGroup:   "admin",
	}, zerolog.Nop())
	require.NoError(t, err)
	assert.True(t, v.Ready())

	u, err := v.Authenticate(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "dev", u.ID)
	assert.True(t, u.IsAdmin())
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer  abc "))
	assert.Equal(t, "", BearerToken("Basic abc"))
	assert.Equal(t, "", BearerToken(""))
}
