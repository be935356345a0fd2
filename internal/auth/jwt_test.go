package auth_test

import (
	"testing"
	"time"

	"progressboard/internal/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

var secret = []byte("test-secret-key")

func TestGenerateAndParseToken(t *testing.T) {
	// Генерируем токен
	token, err := auth.GenerateToken(secret, "board-ui", 24*time.Hour)

	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	// Парсим токен
	subject, err := auth.ParseToken(secret, token)

	assert.NoError(t, err)
	assert.Equal(t, "board-ui", subject)
}

func TestParseToken_InvalidToken(t *testing.T) {
	_, err := auth.ParseToken(secret, "invalid-token")

	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := auth.GenerateToken([]byte("other-secret"), "board-ui", time.Hour)
	assert.NoError(t, err)

	_, err = auth.ParseToken(secret, token)

	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestParseToken_ExpiredToken(t *testing.T) {
	// Токен истек 1 час назад
	token, err := auth.GenerateToken(secret, "board-ui", -time.Hour)
	assert.NoError(t, err)

	_, err = auth.ParseToken(secret, token)

	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestParseToken_WithoutExpiry(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "board-ui"})
	signed, _ := token.SignedString(secret)

	_, err := auth.ParseToken(secret, signed)

	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestParseToken_MissingSubject(t *testing.T) {
	// Создаем токен без subject
	claims := jwt.MapClaims{
		"exp": time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, _ := token.SignedString(secret)

	_, err := auth.ParseToken(secret, signed)

	assert.ErrorIs(t, err, auth.ErrInvalidClaims)
}
