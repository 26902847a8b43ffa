package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/recipebox/internal/db"
	"github.com/raphaelgruber/recipebox/internal/metrics"
	"github.com/raphaelgruber/recipebox/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository persists accounts. *db.Client implements it.
type UserRepository interface {
	CreateUser(ctx context.Context, email, passwordHash, displayName string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, displayName, bio, passwordHash *string) (*models.User, error)
}

var _ UserRepository = (*db.Client)(nil)

// Mailer delivers password reset tokens.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// LogMailer stands in for a mail transport in development setups. The token
// is only logged at debug level.
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) SendPasswordReset(ctx context.Context, email, token string) error {
	log := m.Logger
	if log == nil {
		log = slog.Default()
	}
	log.InfoContext(ctx, "password reset requested", "email", email)
	log.DebugContext(ctx, "password reset token", "email", email, "token", token)
	return nil
}

// AuthResult is a session token with its user.
type AuthResult struct {
	Token string
	User  *models.User
}

// UserConfig wires a UserService.
type UserConfig struct {
	Tokens   *TokenIssuer
	Resets   ResetTokenStore
	Mailer   Mailer
	ResetTTL time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost; tests lower it.
	BcryptCost int
	Metrics    *metrics.Collector
	Logger     *slog.Logger
}

// UserService handles accounts, sessions and password resets.
type UserService struct {
	repo     UserRepository
	tokens   *TokenIssuer
	resets   ResetTokenStore
	mailer   Mailer
	resetTTL time.Duration
	cost     int
	metrics  *metrics.Collector
	logger   *slog.Logger

	// dummyHash equalizes login timing for unknown emails.
	dummyHash []byte
}

// NewUserService creates a user service.
func NewUserService(repo UserRepository, cfg UserConfig) (*UserService, error) {
	if cfg.Tokens == nil {
		return nil, errors.New("user service: token issuer is required")
	}
	if cfg.Resets == nil {
		cfg.Resets = NewMemoryResetStore()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Mailer == nil {
		cfg.Logger.Warn("no mailer configured, password reset tokens are only written to the debug log")
		cfg.Mailer = LogMailer{Logger: cfg.Logger}
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = DefaultResetTTL
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("recipebox-timing-guard"), cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("user service: %w", err)
	}

	return &UserService{
		repo:      repo,
		tokens:    cfg.Tokens,
		resets:    cfg.Resets,
		mailer:    cfg.Mailer,
		resetTTL:  cfg.ResetTTL,
		cost:      cfg.BcryptCost,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger.With("component", "users"),
		dummyHash: dummy,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) hash(password string) (_ string, err error) {
	defer s.metrics.Track(metrics.OpPasswordHash)(&err)

	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func (s *UserService) session(u *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: u}, nil
}

// Register creates an account and signs the user in.
func (s *UserService) Register(ctx context.Context, in models.RegisterInput) (*AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}
	u, err := s.repo.CreateUser(ctx, in.Email, hash, in.DisplayName)
	if err != nil {
		if errors.Is(err, db.ErrAlreadyExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	s.logger.Info("user registered", "user_id", u.ID)
	return s.session(u)
}

// Login checks credentials and issues a session token.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, db.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.session(u)
}

// Authenticate resolves a session token to a user id.
func (s *UserService) Authenticate(token string) (uuid.UUID, error) {
	return s.tokens.Verify(token)
}

// Me returns the signed-in user.
func (s *UserService) Me(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// UpdateProfile applies the non-nil fields. A new password requires the current one.
func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, upd models.ProfileUpdate) (*models.User, error) {
	if upd.DisplayName != nil {
		name := strings.TrimSpace(*upd.DisplayName)
		upd.DisplayName = &name
	}
	if err := validateStruct(upd); err != nil {
		return nil, err
	}

	var hash *string
	if upd.Password != nil {
		if upd.CurrentPassword == nil {
			return nil, fieldError("currentPassword", "failed required")
		}
		u, err := s.repo.GetUserByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(*upd.CurrentPassword)); err != nil {
			return nil, ErrInvalidCredentials
		}
		h, err := s.hash(*upd.Password)
		if err != nil {
			return nil, err
		}
		hash = &h
	}

	return s.repo.UpdateUser(ctx, id, upd.DisplayName, upd.Bio, hash)
}

// RequestPasswordReset mails a single-use token. Unknown emails succeed
// silently so the endpoint does not reveal which accounts exist.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	u, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, db.ErrNotFound) {
		s.logger.Debug("password reset for unknown email")
		return nil
	}
	if err != nil {
		return fmt.Errorf("request password reset: %w", err)
	}

	token, err := newResetToken()
	if err != nil {
		return err
	}
	if err := s.resets.Save(ctx, token, u.ID, s.resetTTL); err != nil {
		return err
	}
	if err := s.mailer.SendPasswordReset(ctx, u.Email, token); err != nil {
		return fmt.Errorf("send password reset: %w", err)
	}
	return nil
}

// ResetPassword consumes token and sets a new password.
func (s *UserService) ResetPassword(ctx context.Context, token, password string) error {
	if err := validateStruct(struct {
		Password string `json:"password" validate:"required,min=8,max=72"`
	}{password}); err != nil {
		return err
	}

	userID, err := s.resets.Consume(ctx, token)
	if err != nil {
		return err
	}
	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	if _, err := s.repo.UpdateUser(ctx, userID, nil, nil, &hash); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	s.logger.Info("password reset", "user_id", userID)
	return nil
}
