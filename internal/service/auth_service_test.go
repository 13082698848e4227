package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/qpflow-api/internal/dto"
	"github.com/noah-isme/qpflow-api/internal/models"
)

const testSecret = "unit-test-secret"

func newAuthFixture(t *testing.T) (*fakeUserRepo, AuthService) {
	t.Helper()

	users := newFakeUserRepo()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	user := models.User{
		Name:         "Jane",
		Email:        "jane@example.edu",
		PasswordHash: string(hash),
		Privileges:   []models.UserPrivilege{{Privilege: models.PrivilegeCoordinator, Active: true}},
	}
	require.NoError(t, users.Create(context.Background(), &user))

	svc := NewAuthService(users, testSecret, time.Hour, validator.New(validator.WithRequiredStructEnabled()), testLogger())
	return users, svc
}

func TestAuthServiceLogin(t *testing.T) {
	_, svc := newAuthFixture(t)

	response, err := svc.Login(context.Background(), dto.LoginRequest{Email: "jane@example.edu", Password: "correct-horse"})
	require.NoError(t, err)
	require.Equal(t, "jane@example.edu", response.User.Email)
	require.Contains(t, response.User.Privileges, models.PrivilegeCoordinator)

	token, err := jwt.Parse(response.Token, func(t *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	require.Equal(t, float64(1), claims["sub"])
}

func TestAuthServiceLoginNormalizesEmail(t *testing.T) {
	_, svc := newAuthFixture(t)

	_, err := svc.Login(context.Background(), dto.LoginRequest{Email: "  JANE@Example.EDU ", Password: "correct-horse"})
	require.NoError(t, err)
}

func TestAuthServiceLoginInvalidCredentials(t *testing.T) {
	_, svc := newAuthFixture(t)

	_, err := svc.Login(context.Background(), dto.LoginRequest{Email: "jane@example.edu", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	// an unknown account answers identically to a wrong password
	_, err = svc.Login(context.Background(), dto.LoginRequest{Email: "nobody@example.edu", Password: "correct-horse"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthServiceMe(t *testing.T) {
	_, svc := newAuthFixture(t)

	me, err := svc.Me(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "Jane", me.Name)

	_, err = svc.Me(context.Background(), 404)
	require.ErrorIs(t, err, ErrUserNotFound)
}
