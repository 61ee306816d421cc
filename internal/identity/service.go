package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"drawboard/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/segmentio/ksuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrUnauthorized means the presented token is missing, malformed,
	// expired, or names an unknown user. Connections failing this check are
	// refused before any session state exists.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidCredentials covers both unknown email and wrong password,
	// deliberately indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailTaken means registration reused an existing email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrMissingFields means a register/login request left a field blank.
	ErrMissingFields = errors.New("all fields are required")
)

// UserStore is the persistence the service needs. The GORM implementation
// lives in store.go; tests substitute an in-memory one.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// Service is the identity provider: account registration, login, and the
// token gate the hub consults before admitting a connection.
type Service struct {
	store    UserStore
	secret   []byte
	tokenTTL time.Duration
}

func NewService(store UserStore, secret string, tokenTTL time.Duration) *Service {
	return &Service{
		store:    store,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

// Register creates an account, derives its cursor color from the email and
// returns a signed token plus the stored user.
func (s *Service) Register(ctx context.Context, name, email, password string) (string, *models.User, error) {
	if name == "" || email == "" || password == "" {
		return "", nil, ErrMissingFields
	}

	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return "", nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return "", nil, fmt.Errorf("checking email: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &models.User{
		ID:       ksuid.New().String(),
		Name:     name,
		Email:    email,
		Password: string(hashed),
		Color:    colorFromEmail(email),
	}
	if err := s.store.Create(ctx, user); err != nil {
		return "", nil, fmt.Errorf("creating user: %w", err)
	}

	token, err := s.signToken(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Login checks the credentials and returns a fresh token plus the user.
func (s *Service) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	if email == "" || password == "" {
		return "", nil, ErrMissingFields
	}

	user, err := s.store.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	} else if err != nil {
		return "", nil, fmt.Errorf("looking up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.signToken(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// VerifyToken resolves a raw token to the identity it names. This is the
// whole contract the connection gate depends on: everything JWT- or
// storage-specific stays behind it.
func (s *Service) VerifyToken(ctx context.Context, rawToken string) (models.Identity, error) {
	if rawToken == "" {
		return models.Identity{}, ErrUnauthorized
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(rawToken, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return models.Identity{}, ErrUnauthorized
	}

	user, err := s.store.FindByID(ctx, claims.Subject)
	if err != nil {
		return models.Identity{}, ErrUnauthorized
	}
	return user.Identity(), nil
}

func (s *Service) signToken(userID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// colorFromEmail derives a stable hex color from the byte sum of the email,
// so an account keeps the same cursor color across sessions.
func colorFromEmail(email string) string {
	sum := 0
	for _, b := range []byte(email) {
		sum += int(b)
	}
	return fmt.Sprintf("#%06x", sum%0x1000000)
}
