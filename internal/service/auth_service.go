package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/orion-app/orion-api/internal/dto"
	"github.com/orion-app/orion-api/internal/models"
	"github.com/orion-app/orion-api/internal/repository"
)

const tokenLifetime = 24 * time.Hour

// Auth errors surfaced to handlers.
var (
	ErrEmailTaken            = errors.New("email already registered")
	ErrEmailDomainNotAllowed = errors.New("email domain not allowed")
	ErrInvalidCredentials    = errors.New("invalid email or password")
)

// AuthService registers accounts and issues signed tokens.
type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (dto.AuthResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (dto.AuthResponse, error)
	Profile(ctx context.Context, userID uint) (dto.UserResponse, error)
}

type authService struct {
	users         repository.UserRepository
	counters      CounterService
	validator     *validator.Validate
	jwtSecret     []byte
	allowedDomain string
	logger        zerolog.Logger
	now           func() time.Time
}

// NewAuthService constructs the auth service. An empty allowedDomain admits
// every email domain.
func NewAuthService(users repository.UserRepository, counters CounterService, validate *validator.Validate, jwtSecret, allowedDomain string, logger zerolog.Logger) AuthService {
	return &authService{
		users:         users,
		counters:      counters,
		validator:     validate,
		jwtSecret:     []byte(jwtSecret),
		allowedDomain: strings.ToLower(strings.TrimSpace(allowedDomain)),
		logger:        logger.With().Str("component", "auth_service").Logger(),
		now:           time.Now,
	}
}

func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AuthResponse{}, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !s.domainAllowed(email) {
		return dto.AuthResponse{}, ErrEmailDomainNotAllowed
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return dto.AuthResponse{}, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.AuthResponse{}, fmt.Errorf("check existing email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return dto.AuthResponse{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Username:     strings.TrimSpace(req.Username),
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return dto.AuthResponse{}, fmt.Errorf("create user: %w", err)
	}

	// Signup analytics are best-effort and never block registration.
	s.counters.RecordSignup(ctx)

	return s.issueToken(user)
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AuthResponse{}, err
	}

	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AuthResponse{}, ErrInvalidCredentials
		}
		return dto.AuthResponse{}, fmt.Errorf("find user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return dto.AuthResponse{}, ErrInvalidCredentials
	}

	return s.issueToken(user)
}

func (s *authService) Profile(ctx context.Context, userID uint) (dto.UserResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return dto.UserResponse{}, fmt.Errorf("find user: %w", err)
	}
	return dto.NewUserResponse(user), nil
}

func (s *authService) domainAllowed(email string) bool {
	if s.allowedDomain == "" {
		return true
	}
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	return email[at+1:] == s.allowedDomain
}

func (s *authService) issueToken(user models.User) (dto.AuthResponse, error) {
	now := s.now().UTC()
	claims := jwt.MapClaims{
		"sub":      fmt.Sprintf("%d", user.ID),
		"role":     user.Role,
		"username": user.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(tokenLifetime).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return dto.AuthResponse{}, fmt.Errorf("sign token: %w", err)
	}

	return dto.AuthResponse{Token: signed, User: dto.NewUserResponse(user)}, nil
}
