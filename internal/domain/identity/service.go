package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/smartmed/smartmed/internal/platform/auth"
)

var (
	ErrMissingFields      = errors.New("please fill in all required fields")
	ErrInvalidAccessCode  = errors.New("invalid access code")
	ErrInvalidEmail       = errors.New("invalid email: only gmail, yahoo, outlook, hotmail or icloud allowed")
	ErrWeakPassword       = errors.New("password too weak: 8+ chars with a letter and a number required")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidRole        = errors.New("only doctor registration is allowed")
)

// Service implements registration, login and password changes.
type Service struct {
	repo       Repository
	secret     []byte
	accessCode string
}

func NewService(repo Repository, secret []byte, accessCode string) *Service {
	return &Service{repo: repo, secret: secret, accessCode: accessCode}
}

// RegisterInput is the payload for doctor self-registration.
type RegisterInput struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	Role           string `json:"role"`
	Specialization string `json:"specialization"`
	AccessCode     string `json:"accessCode"`
}

// AuthResult is returned from Register and Login.
type AuthResult struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Role  string    `json:"role"`
	Token string    `json:"token"`
}

// Register creates a doctor account. Patient accounts are provisioned by
// doctors through the patient registry, never self-registered.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if in.Name == "" || in.Email == "" || in.Password == "" || in.Role == "" {
		return nil, ErrMissingFields
	}
	if in.Role != auth.RoleDoctor {
		return nil, ErrInvalidRole
	}
	if in.AccessCode != s.accessCode {
		return nil, ErrInvalidAccessCode
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !ValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if !ValidPassword(in.Password) {
		return nil, ErrWeakPassword
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &User{
		Name:         in.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         auth.RoleDoctor,
	}
	if in.Specialization != "" {
		user.Specialization = &in.Specialization
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.authResult(user)
}

// Login verifies credentials and issues a token. Unknown email and wrong
// password produce the same error, and the unknown-email path still burns a
// bcrypt comparison so both take comparable time.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			auth.CheckDummy(password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return s.authResult(user)
}

// UpdatePassword changes the caller's password after verifying the current
// one.
func (s *Service) UpdatePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if !auth.CheckPassword(user.PasswordHash, currentPassword) {
		return ErrInvalidCredentials
	}
	if !ValidPassword(newPassword) {
		return ErrWeakPassword
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.repo.UpdatePasswordHash(ctx, userID, hash)
}

func (s *Service) authResult(user *User) (*AuthResult, error) {
	token, err := auth.IssueToken(s.secret, user.ID.String(), user.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		ID:    user.ID,
		Name:  user.Name,
		Role:  user.Role,
		Token: token,
	}, nil
}
