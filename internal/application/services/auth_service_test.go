package services

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/AtRiskMedia/cmi-charts/internal/domain/user"
	"github.com/AtRiskMedia/cmi-charts/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/cmi-charts/internal/infrastructure/security"
)

type memoryUsers struct {
	byMail map[string]*user.User
	err    error
}

func (m *memoryUsers) FindByID(id string) (*user.User, error) {
	for _, u := range m.byMail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memoryUsers) FindByMail(mail string) (*user.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.byMail[mail], nil
}

func (m *memoryUsers) Store(u *user.User) error {
	m.byMail[u.Mail] = u
	return nil
}

type memoryActions struct {
	actions []*user.UserAction
}

func (m *memoryActions) Record(a *user.UserAction) error {
	m.actions = append(m.actions, a)
	return nil
}

func (m *memoryActions) ListByUser(userID string) ([]*user.UserAction, error) {
	var out []*user.UserAction
	for _, a := range m.actions {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func newTestAuth(t *testing.T) (*AuthService, *memoryUsers, *memoryActions, *clockwork.FakeClock) {
	t.Helper()
	users := &memoryUsers{byMail: map[string]*user.User{}}
	actions := &memoryActions{}
	clock := clockwork.NewFakeClockAt(time.Now().Truncate(time.Second))
	svc := NewAuthService(users, actions, AuthConfig{
		Secret:     "test-secret",
		Lifetime:   time.Hour,
		Location:   time.UTC,
		Clock:      clock,
		BcryptCost: bcrypt.MinCost,
	}, logging.NewDiscardLogger())
	return svc, users, actions, clock
}

func TestAuthService_AddUser(t *testing.T) {
	svc, users, _, _ := newTestAuth(t)

	u, err := svc.AddUser("  Mario.Rossi@Example.IT ", "segreta")
	require.NoError(t, err)
	assert.Equal(t, "mario.rossi@example.it", u.Mail)
	assert.Len(t, u.ID, 26)
	assert.NotEqual(t, "segreta", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("segreta")))
	assert.Same(t, u, users.byMail["mario.rossi@example.it"])

	_, err = svc.AddUser("MARIO.ROSSI@example.it", "altra")
	assert.ErrorIs(t, err, ErrUserExists)

	_, err = svc.AddUser("not-a-mail", "x")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.AddUser("a@b.it", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAuthService_LoginAndLogout(t *testing.T) {
	svc, _, actions, clock := newTestAuth(t)
	_, err := svc.AddUser("mario@example.it", "segreta")
	require.NoError(t, err)

	result, err := svc.Login("Mario@Example.it", "segreta", "10.0.0.1", "curl/8.0")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, clock.Now().Add(time.Hour), result.ExpiresAt)

	session, ok := svc.Resolve(result.Token)
	require.True(t, ok)
	assert.Equal(t, result.User.ID, session.UserID)
	assert.Equal(t, "mario@example.it", session.Mail)

	require.NoError(t, svc.Logout(session, "10.0.0.1", "curl/8.0"))

	listed, err := actions.ListByUser(result.User.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, user.ActionLogin, listed[0].ActionID)
	assert.Equal(t, user.ActionLogout, listed[1].ActionID)
	assert.Equal(t, "10.0.0.1", listed[0].RemoteAddr)
	assert.Equal(t, "curl/8.0", listed[0].HTTPUserAgent)
	assert.Equal(t, clock.Now().UTC(), listed[0].Datetime)
}

func TestAuthService_InvalidCredentials(t *testing.T) {
	svc, _, actions, _ := newTestAuth(t)
	_, err := svc.AddUser("mario@example.it", "segreta")
	require.NoError(t, err)

	tests := map[string]struct{ mail, password string }{
		"wrong password": {mail: "mario@example.it", password: "sbagliata"},
		"unknown mail":   {mail: "luigi@example.it", password: "segreta"},
		"empty mail":     {mail: "", password: "segreta"},
		"empty password": {mail: "mario@example.it", password: "  "},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Login(tc.mail, tc.password, "", "")
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
	assert.Empty(t, actions.actions)
}

func TestAuthService_RepositoryFailure(t *testing.T) {
	svc, users, _, _ := newTestAuth(t)
	users.err = errors.New("database is locked")

	_, err := svc.Login("mario@example.it", "segreta", "", "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Resolve(t *testing.T) {
	svc, _, _, clock := newTestAuth(t)

	_, ok := svc.Resolve("")
	assert.False(t, ok)
	_, ok = svc.Resolve("garbage")
	assert.False(t, ok)

	foreign, err := security.GenerateSessionToken("01ABC", "a@b.it", "other-secret", clock.Now(), time.Hour)
	require.NoError(t, err)
	_, ok = svc.Resolve(foreign)
	assert.False(t, ok)

	expired, err := security.GenerateSessionToken("01ABC", "a@b.it", "test-secret", clock.Now().Add(-2*time.Hour), time.Hour)
	require.NoError(t, err)
	_, ok = svc.Resolve(expired)
	assert.False(t, ok)
}

func TestAuthService_LogoutRequiresSession(t *testing.T) {
	svc, _, _, _ := newTestAuth(t)
	assert.ErrorIs(t, svc.Logout(nil, "", ""), ErrRestricted)
}
