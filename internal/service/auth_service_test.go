package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/orion-app/orion-api/internal/dto"
	"github.com/orion-app/orion-api/internal/models"
)

type fakeUserRepo struct {
	nextID uint
	users  map[string]models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: make(map[string]models.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = f.nextID
	f.nextID++
	f.users[user.Email] = *user
	return nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (models.User, error) {
	user, ok := f.users[email]
	if !ok {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uint) (models.User, error) {
	for _, user := range f.users {
		if user.ID == id {
			return user, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

const testJWTSecret = "test-secret"

func newAuthServiceForTest(t *testing.T, users *fakeUserRepo, counters *recordingCounters, allowedDomain string) AuthService {
	t.Helper()
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewAuthService(users, counters, validate, testJWTSecret, allowedDomain, testLogger())
}

func TestRegisterIssuesTokenAndCountsSignup(t *testing.T) {
	users := newFakeUserRepo()
	counters := &recordingCounters{}
	svc := newAuthServiceForTest(t, users, counters, "")

	resp, err := svc.Register(context.Background(), dto.RegisterRequest{
		Username: "ada",
		Email:    "Ada@Example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)
	require.Equal(t, "ada", resp.User.Username)
	require.Equal(t, "ada@example.com", resp.User.Email)
	require.Equal(t, models.RoleUser, resp.User.Role)
	require.Equal(t, 1, counters.signups)

	stored := users.users["ada@example.com"]
	require.NotEqual(t, "correct horse", stored.PasswordHash)

	token, err := jwt.Parse(resp.Token, func(token *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	require.Equal(t, "1", claims["sub"])
	require.Equal(t, models.RoleUser, claims["role"])
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc := newAuthServiceForTest(t, newFakeUserRepo(), &recordingCounters{}, "")

	req := dto.RegisterRequest{Username: "ada", Email: "ada@example.com", Password: "correct horse"}
	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), req)
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterEnforcesEmailDomainAllowlist(t *testing.T) {
	counters := &recordingCounters{}
	svc := newAuthServiceForTest(t, newFakeUserRepo(), counters, "example.com")

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Username: "mallory",
		Email:    "mallory@evil.io",
		Password: "correct horse",
	})
	require.ErrorIs(t, err, ErrEmailDomainNotAllowed)
	require.Zero(t, counters.signups)

	_, err = svc.Register(context.Background(), dto.RegisterRequest{
		Username: "ada",
		Email:    "ada@EXAMPLE.COM",
		Password: "correct horse",
	})
	require.NoError(t, err)
}

func TestRegisterValidatesInput(t *testing.T) {
	svc := newAuthServiceForTest(t, newFakeUserRepo(), &recordingCounters{}, "")

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Username: "ada",
		Email:    "not-an-email",
		Password: "correct horse",
	})
	require.Error(t, err)

	_, err = svc.Register(context.Background(), dto.RegisterRequest{
		Username: "ada",
		Email:    "ada@example.com",
		Password: "short",
	})
	require.Error(t, err)
}

func TestLogin(t *testing.T) {
	users := newFakeUserRepo()
	svc := newAuthServiceForTest(t, users, &recordingCounters{}, "")

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Username: "ada",
		Email:    "ada@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)

	resp, err := svc.Login(context.Background(), dto.LoginRequest{
		Email:    "ada@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.Equal(t, "ada", resp.User.Username)

	_, err = svc.Login(context.Background(), dto.LoginRequest{
		Email:    "ada@example.com",
		Password: "wrong password",
	})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), dto.LoginRequest{
		Email:    "nobody@example.com",
		Password: "correct horse",
	})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestProfile(t *testing.T) {
	users := newFakeUserRepo()
	svc := newAuthServiceForTest(t, users, &recordingCounters{}, "")

	resp, err := svc.Register(context.Background(), dto.RegisterRequest{
		Username: "ada",
		Email:    "ada@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)

	profile, err := svc.Profile(context.Background(), resp.User.ID)
	require.NoError(t, err)
	require.Equal(t, resp.User, profile)
}
