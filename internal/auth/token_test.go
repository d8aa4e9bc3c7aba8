package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	issuer := NewIssuer("secret")
	raw, err := issuer.Issue("u1", "admin")
	require.NoError(t, err)

	claims, err := issuer.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.ID)
	assert.Equal(t, "admin", claims.Role)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	raw, err := NewIssuer("one").Issue("u1", "user")
	require.NoError(t, err)

	_, err = NewIssuer("two").Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsOtherAlgorithms(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{ID: "u1", Role: "admin"})
	raw, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewIssuer("secret").Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsMissingID(t *testing.T) {
	raw, err := NewIssuer("secret").Issue("", "admin")
	require.NoError(t, err)

	_, err = NewIssuer("secret").Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	tok, ok := BearerToken("Bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	tok, ok = BearerToken("  bearer xyz ")
	assert.True(t, ok)
	assert.Equal(t, "xyz", tok)

	_, ok = BearerToken("")
	assert.False(t, ok)
	_, ok = BearerToken("Token abc")
	assert.False(t, ok)
	_, ok = BearerToken("Bearer a b")
	assert.False(t, ok)
}
