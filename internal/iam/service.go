// Package iam registers users, logs them in and resolves sessions to identities.
package iam

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/shestoi/railbook/internal/authctx"
	"github.com/shestoi/railbook/internal/repository"
)

var (
	// ErrSessionNotFoundOrExpired is returned for a missing, unknown or expired session.
	ErrSessionNotFoundOrExpired = errors.New("session not found or expired")
	ErrInvalidCredentials       = errors.New("invalid email or password")
	ErrEmailTaken               = errors.New("email already registered")
	ErrUserNotFound             = errors.New("user not found")
	// ErrInvalidInput wraps every input validation failure.
	ErrInvalidInput = errors.New("invalid input")
)

const minPasswordLength = 6

// Service manages accounts and sessions.
type Service struct {
	logger      *zap.Logger
	repo        repository.UserRepository
	sessionRepo repository.SessionRepository
	sessionTTL  time.Duration
	now         func() time.Time
}

func NewService(logger *zap.Logger, repo repository.UserRepository, sessionRepo repository.SessionRepository, sessionTTL time.Duration) *Service {
	return &Service{
		logger:      logger,
		repo:        repo,
		sessionRepo: sessionRepo,
		sessionTTL:  sessionTTL,
		now:         time.Now,
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

type RegisterOutput struct {
	UserID string
}

// Register creates a regular user account.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*RegisterOutput, error) {
	user, err := s.createUser(ctx, input, repository.RoleUser)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered successfully",
		zap.String("user_id", user.ID),
		zap.String("email", user.Email),
	)
	return &RegisterOutput{UserID: user.ID}, nil
}

func (s *Service) createUser(ctx context.Context, input RegisterInput, role repository.Role) (repository.User, error) {
	email := normalizeEmail(input.Email)
	if email == "" {
		return repository.User{}, invalid("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return repository.User{}, invalid("email is not valid")
	}
	if strings.TrimSpace(input.Name) == "" {
		return repository.User{}, invalid("name is required")
	}
	if len(input.Password) < minPasswordLength {
		return repository.User{}, invalid("password must be at least %d characters", minPasswordLength)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", zap.Error(err))
		return repository.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := repository.User{
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		PasswordHash: string(passwordHash),
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return repository.User{}, ErrEmailTaken
		}
		s.logger.Error("failed to create user", zap.Error(err))
		return repository.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	created, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Error("failed to get created user", zap.Error(err))
		return repository.User{}, fmt.Errorf("failed to get created user: %w", err)
	}
	return created, nil
}

type LoginInput struct {
	Email    string
	Password string
}

type LoginOutput struct {
	UserID    string
	SessionID string
}

// Login checks the password and opens a session.
func (s *Service) Login(ctx context.Context, input LoginInput) (*LoginOutput, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, invalid("email and password are required")
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("failed to get user by email", zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		s.logger.Warn("invalid password attempt", zap.String("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	sessionID, err := s.sessionRepo.CreateSession(ctx, user.ID, s.sessionTTL)
	if err != nil {
		s.logger.Error("failed to create session", zap.Error(err), zap.String("user_id", user.ID))
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("user logged in successfully", zap.String("user_id", user.ID))
	return &LoginOutput{UserID: user.ID, SessionID: sessionID}, nil
}

// Logout ends a session. Unknown sessions are ignored.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return invalid("session_id is required")
	}
	if err := s.sessionRepo.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// ValidateSession resolves a session to the identity of its user and extends the session TTL.
func (s *Service) ValidateSession(ctx context.Context, sessionID string) (authctx.Identity, error) {
	if sessionID == "" {
		return authctx.Identity{}, ErrSessionNotFoundOrExpired
	}

	userID, err := s.sessionRepo.GetUserIDBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return authctx.Identity{}, ErrSessionNotFoundOrExpired
		}
		s.logger.Error("failed to validate session", zap.Error(err))
		return authctx.Identity{}, fmt.Errorf("failed to validate session: %w", err)
	}

	if err := s.sessionRepo.RefreshSession(ctx, sessionID, s.sessionTTL); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return authctx.Identity{}, ErrSessionNotFoundOrExpired
		}
		s.logger.Error("failed to refresh session TTL", zap.Error(err))
		return authctx.Identity{}, fmt.Errorf("failed to refresh session: %w", err)
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return authctx.Identity{}, ErrSessionNotFoundOrExpired
		}
		return authctx.Identity{}, fmt.Errorf("failed to get user: %w", err)
	}

	return authctx.Identity{
		UserID:  user.ID,
		Email:   user.Email,
		Name:    user.Name,
		IsAdmin: user.Role == repository.RoleAdmin,
	}, nil
}

func (s *Service) GetUser(ctx context.Context, userID string) (repository.User, error) {
	if userID == "" {
		return repository.User{}, invalid("user_id is required")
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.User{}, ErrUserNotFound
		}
		s.logger.Error("failed to get user by id", zap.Error(err))
		return repository.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ProfileUpdate carries the profile fields to change. Nil fields stay as they are.
type ProfileUpdate struct {
	Name        *string
	Email       *string
	PhoneNumber *string
}

// UpdateProfile changes the caller's name, email or phone number. An email that belongs to
// another account fails with ErrEmailTaken.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (repository.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return repository.User{}, err
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return repository.User{}, invalid("name must not be empty")
		}
		user.Name = name
	}
	if upd.Email != nil {
		email := normalizeEmail(*upd.Email)
		if _, err := mail.ParseAddress(email); err != nil {
			return repository.User{}, invalid("email is not valid")
		}
		user.Email = email
	}
	if upd.PhoneNumber != nil {
		user.PhoneNumber = strings.TrimSpace(*upd.PhoneNumber)
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyExists):
			return repository.User{}, ErrEmailTaken
		case errors.Is(err, repository.ErrNotFound):
			return repository.User{}, ErrUserNotFound
		}
		s.logger.Error("failed to update user", zap.Error(err), zap.String("user_id", userID))
		return repository.User{}, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.Info("user profile updated", zap.String("user_id", userID))
	return user, nil
}

// EnsureAdmin creates the bootstrap admin account when it does not exist yet.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	existing, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	switch {
	case err == nil:
		if existing.Role != repository.RoleAdmin {
			s.logger.Warn("bootstrap admin email belongs to a regular user", zap.String("user_id", existing.ID))
		}
		return nil
	case !errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("failed to look up admin: %w", err)
	}

	admin, err := s.createUser(ctx, RegisterInput{Email: email, Name: "Administrator", Password: password}, repository.RoleAdmin)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil
		}
		return fmt.Errorf("failed to create admin: %w", err)
	}
	s.logger.Info("bootstrap admin created", zap.String("user_id", admin.ID))
	return nil
}
