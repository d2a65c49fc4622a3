package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"

	"github.com/AtRiskMedia/cmi-charts/internal/domain/user"
	"github.com/AtRiskMedia/cmi-charts/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/cmi-charts/internal/infrastructure/security"
)

// AuthConfig configures session handling.
type AuthConfig struct {
	Secret     string
	Lifetime   time.Duration
	Location   *time.Location
	Clock      clockwork.Clock
	BcryptCost int
}

// AuthService handles authentication workflows and JWT operations
type AuthService struct {
	users   user.UserRepository
	actions user.ActionRepository
	cfg     AuthConfig
	logger  *logging.ChanneledLogger
}

// LoginResult holds the session issued by a successful login.
type LoginResult struct {
	Token     string
	User      *user.User
	ExpiresAt time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(users user.UserRepository, actions user.ActionRepository, cfg AuthConfig, logger *logging.ChanneledLogger) *AuthService {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = 2 * time.Hour
	}
	return &AuthService{
		users:   users,
		actions: actions,
		cfg:     cfg,
		logger:  logger,
	}
}

// Lifetime returns how long issued sessions stay valid.
func (a *AuthService) Lifetime() time.Duration {
	return a.cfg.Lifetime
}

// NormalizeMail lowercases and trims a mail address.
func NormalizeMail(mail string) string {
	return strings.ToLower(strings.TrimSpace(mail))
}

// Login checks the credentials, records the login and issues a session token.
func (a *AuthService) Login(mail, password, remoteAddr, userAgent string) (*LoginResult, error) {
	mail = NormalizeMail(mail)
	password = strings.TrimSpace(password)
	if mail == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := a.users.FindByMail(mail)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		a.logger.LogAuthOperation("login", mail, false, map[string]any{"remoteAddr": remoteAddr})
		return nil, ErrInvalidCredentials
	}

	now := a.cfg.Clock.Now()
	token, err := security.GenerateSessionToken(u.ID, u.Mail, a.cfg.Secret, now, a.cfg.Lifetime)
	if err != nil {
		return nil, err
	}
	if err := a.record(u.ID, user.ActionLogin, remoteAddr, userAgent); err != nil {
		return nil, err
	}

	a.logger.LogAuthOperation("login", u.ID, true, map[string]any{"remoteAddr": remoteAddr})
	return &LoginResult{Token: token, User: u, ExpiresAt: now.Add(a.cfg.Lifetime)}, nil
}

// Logout records the logout of the session owner.
func (a *AuthService) Logout(session *security.Session, remoteAddr, userAgent string) error {
	if session == nil {
		return ErrRestricted
	}
	if err := a.record(session.UserID, user.ActionLogout, remoteAddr, userAgent); err != nil {
		return err
	}
	a.logger.LogAuthOperation("logout", session.UserID, true, map[string]any{"remoteAddr": remoteAddr})
	return nil
}

// Resolve validates a session token. Any failure means anonymous.
func (a *AuthService) Resolve(token string) (*security.Session, bool) {
	if token == "" {
		return nil, false
	}
	session, err := security.ParseSessionToken(token, a.cfg.Secret)
	if err != nil {
		a.logger.Auth().Debug("Ignoring invalid session token", "error", err.Error())
		return nil, false
	}
	return session, true
}

// AddUser hashes password and stores a new user.
func (a *AuthService) AddUser(mail, password string) (*user.User, error) {
	mail = NormalizeMail(mail)
	if mail == "" || !strings.Contains(mail, "@") {
		return nil, fmt.Errorf("%w: mail %q", ErrInvalidInput, mail)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: empty password", ErrInvalidInput)
	}

	existing, err := a.users.FindByMail(mail)
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrUserExists, mail)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: password too long", ErrInvalidInput)
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &user.User{ID: security.GenerateULID(), Mail: mail, PasswordHash: string(hash)}
	if err := a.users.Store(u); err != nil {
		return nil, fmt.Errorf("failed to store user: %w", err)
	}
	a.logger.LogAuthOperation("add-user", u.ID, true, nil)
	return u, nil
}

func (a *AuthService) record(userID string, actionID int, remoteAddr, userAgent string) error {
	action := &user.UserAction{
		ID:            security.GenerateULID(),
		UserID:        userID,
		ActionID:      actionID,
		RemoteAddr:    remoteAddr,
		HTTPUserAgent: userAgent,
		Datetime:      a.cfg.Clock.Now().In(a.cfg.Location).Truncate(time.Second),
	}
	if err := a.actions.Record(action); err != nil {
		return fmt.Errorf("failed to record user action: %w", err)
	}
	return nil
}
