package service

import (
	"alcyxob/workout-tracker/internal/domain"
	"alcyxob/workout-tracker/internal/repository/memory"
	"context"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestAuthService_RegisterAndLogin(t *testing.T) {
	svc := NewAuthService(memory.NewUserRepository(), testSecret, time.Hour)
	ctx := context.Background()

	email := gofakeit.Email()
	password := gofakeit.Password(true, true, true, false, false, 12)

	user, err := svc.Register(ctx, "Ana", "  "+email+" ", password)
	require.NoError(t, err)
	assert.Empty(t, user.PasswordHash)
	assert.Equal(t, domain.DefaultSettings(), user.Settings)

	token, loggedIn, err := svc.Login(ctx, email, password)
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.Empty(t, loggedIn.PasswordHash)

	claims, err := ParseToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.UserID)

	_, err = ParseToken(token, "other-secret")
	assert.Error(t, err)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	svc := NewAuthService(memory.NewUserRepository(), testSecret, time.Hour)
	ctx := context.Background()

	_, err := svc.Register(ctx, "", "a@b.c", "long-enough")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Register(ctx, "Ana", "a@b.c", "short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	_, err = svc.Register(ctx, "Ana", "a@b.c", "long-enough")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "Other", "A@B.C", "long-enough")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestAuthService_LoginFailures(t *testing.T) {
	svc := NewAuthService(memory.NewUserRepository(), testSecret, time.Hour)
	ctx := context.Background()
	_, err := svc.Register(ctx, "Ana", "ana@example.com", "correct-horse")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "ana@example.com", "wrong-horse")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	_, _, err = svc.Login(ctx, "nobody@example.com", "correct-horse")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	_, _, err = svc.Login(ctx, "", "")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestParseToken_Expired(t *testing.T) {
	claims := &Claims{
		UserID: "abc",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = ParseToken(signed, testSecret)
	assert.Error(t, err)
}

func TestNewAuthService_PanicsWithoutSecret(t *testing.T) {
	assert.Panics(t, func() {
		NewAuthService(memory.NewUserRepository(), "", time.Hour)
	})
}
