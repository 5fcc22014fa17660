package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/kristalball/internal/model"
)

func testUser() *model.User {
	baseID := int64(3)
	return &model.User{ID: 7, Username: "cmdr", Role: model.RoleBaseCommander, BaseID: &baseID}
}

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret-key"

	token, err := GenerateToken(secret, time.Hour, testUser())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(secret, token)
	require.NoError(t, err)

	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "cmdr", claims.Username)
	assert.Equal(t, model.RoleBaseCommander, claims.Role)
	require.NotNil(t, claims.BaseID)
	assert.Equal(t, int64(3), *claims.BaseID)
	assert.NotEmpty(t, claims.ID)

	p := claims.Principal()
	assert.True(t, p.HasBase(3))
	assert.Equal(t, model.RoleBaseCommander, p.Role)
}

func TestTokensHaveUniqueIDs(t *testing.T) {
	a, err := GenerateToken("s", time.Hour, testUser())
	require.NoError(t, err)
	b, err := GenerateToken("s", time.Hour, testUser())
	require.NoError(t, err)

	ca, err := ValidateToken("s", a)
	require.NoError(t, err)
	cb, err := ValidateToken("s", b)
	require.NoError(t, err)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret1", time.Hour, testUser())
	require.NoError(t, err)

	_, err = ValidateToken("secret2", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenInvalid(t *testing.T) {
	_, err := ValidateToken("secret", "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenExpired(t *testing.T) {
	token, err := GenerateToken("secret", -time.Minute, testUser())
	require.NoError(t, err)

	_, err = ValidateToken("secret", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{
		UserID: 1,
		Role:   model.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = ValidateToken("secret", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsUnknownRole(t *testing.T) {
	claims := Claims{
		UserID: 1,
		Role:   model.Role("manager"),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = ValidateToken("secret", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenExpiry(t *testing.T) {
	token, err := GenerateToken("test", 2*time.Hour, testUser())
	require.NoError(t, err)
	claims, err := ValidateToken("test", token)
	require.NoError(t, err)

	assert.WithinDuration(t, time.Now().Add(2*time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}
