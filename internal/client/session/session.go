// Package session holds the authentication state machine of the client:
// Anonymous → Authenticating → Authenticated, plus the login/register forms
// and the single Feedback message shown next to them.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/studywithme/internal/client/client"
	"github.com/dmitrijs2005/studywithme/internal/client/models"
	"github.com/dmitrijs2005/studywithme/internal/common"
	"github.com/dmitrijs2005/studywithme/internal/logging"
	"github.com/golang-jwt/jwt/v5"
)

type Mode string

const (
	ModeLogin    Mode = "login"
	ModeRegister Mode = "register"
)

type State int

const (
	StateAnonymous State = iota
	StateAuthenticating
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

type LoginForm struct {
	Identifier string
	Password   string
}

type RegisterForm struct {
	Username string
	FullName string
	Email    string
	Password string
}

// Session is the credential pair handed to the caller on login.
type Session struct {
	Token string
	User  models.User
}

// Manager owns the token and user. It is safe for concurrent use; Submit is
// single-flight.
type Manager struct {
	api    client.AuthAPI
	logger logging.Logger
	onAuth func(Session)

	submitting atomic.Bool

	mu       sync.Mutex
	mode     Mode
	state    State
	login    LoginForm
	register RegisterForm
	feedback *models.Feedback
	token    string
	user     *models.User
	epoch    uint64
}

type Option func(*Manager)

// WithOnAuthenticated registers a callback run after every successful login,
// outside the manager's lock.
func WithOnAuthenticated(fn func(Session)) Option {
	return func(m *Manager) { m.onAuth = fn }
}

func NewManager(api client.AuthAPI, logger logging.Logger, opts ...Option) *Manager {
	m := &Manager{
		api:    api,
		logger: logger.With("component", "session"),
		mode:   ModeLogin,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Feedback returns a copy of the outstanding message, or nil.
func (m *Manager) Feedback() *models.Feedback {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.feedback == nil {
		return nil
	}
	fb := *m.feedback
	return &fb
}

func (m *Manager) IsSubmitting() bool {
	return m.submitting.Load()
}

// Token returns the bearer token, or "" when not authenticated.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// User returns a copy of the logged-in user.
func (m *Manager) User() (models.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return models.User{}, false
	}
	return *m.user, true
}

func (m *Manager) LoginForm() LoginForm {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.login
}

func (m *Manager) RegisterForm() RegisterForm {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.register
}

func (m *Manager) SetLoginForm(f LoginForm) {
	m.mu.Lock()
	m.login = f
	m.mu.Unlock()
}

func (m *Manager) SetRegisterForm(f RegisterForm) {
	m.mu.Lock()
	m.register = f
	m.mu.Unlock()
}

// ForgetPasswords blanks the password of both forms and keeps the other
// fields. Callers that prompt for the password on every attempt use it once
// Submit has returned.
func (m *Manager) ForgetPasswords() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.login.Password = ""
	m.register.Password = ""
}

// SwitchMode changes the active form. Feedback is cleared unless
// preserveFeedback is set.
func (m *Manager) SwitchMode(target Mode, preserveFeedback bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.switchModeLocked(target, preserveFeedback)
}

func (m *Manager) switchModeLocked(target Mode, preserveFeedback bool) {
	m.mode = target
	if !preserveFeedback {
		m.feedback = nil
	}
}

// Logout drops the token and user. Responses to requests started before
// the call are discarded when they arrive.
func (m *Manager) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.user = nil
	m.state = StateAnonymous
	m.epoch++
	m.logger.Info(context.Background(), "logged out")
}

// ExpiresAt reads the exp claim when the token is a JWT. The signature is
// not verified; the server remains the authority.
func (m *Manager) ExpiresAt() (time.Time, bool) {
	token := m.Token()
	if token == "" {
		return time.Time{}, false
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Expired reports whether the token carries an exp claim in the past.
func (m *Manager) Expired(now time.Time) bool {
	exp, ok := m.ExpiresAt()
	return ok && !now.Before(exp)
}

// Submit sends the form of the current mode. Exactly one request is issued.
// A call made while another is in flight returns common.ErrBusy without
// touching any state.
//
// Failures never escape as a broken state: the manager returns to the state
// it had before the attempt and Feedback carries the user-facing text. The
// returned error is informational for Go callers.
func (m *Manager) Submit(ctx context.Context) error {
	if !m.submitting.CompareAndSwap(false, true) {
		return common.ErrBusy
	}
	defer m.submitting.Store(false)

	m.mu.Lock()
	m.feedback = nil
	mode := m.mode
	prev := m.state
	epoch := m.epoch
	loginForm, registerForm := m.login, m.register
	m.state = StateAuthenticating
	m.mu.Unlock()

	if mode == ModeRegister {
		return m.submitRegister(ctx, registerForm, prev, epoch)
	}
	return m.submitLogin(ctx, loginForm, prev, epoch)
}

func (m *Manager) submitLogin(ctx context.Context, form LoginForm, prev State, epoch uint64) error {
	req := client.LoginRequest{
		Username: strings.TrimSpace(form.Identifier),
		Password: form.Password,
	}

	resp, err := m.api.Login(ctx, req)
	if err == nil && (resp == nil || resp.Token == "" || resp.User == nil) {
		err = client.ErrMalformedResponse
	}

	m.mu.Lock()
	if m.epoch != epoch {
		m.restoreLocked(prev)
		m.mu.Unlock()
		m.logger.Debug(ctx, "login response discarded", "username", req.Username)
		return common.ErrStaleResponse
	}
	if err != nil {
		m.failLocked(err, prev)
		m.mu.Unlock()
		m.logger.Warn(ctx, "login failed", "username", req.Username, "error", err)
		return err
	}

	user := *resp.User
	m.token = resp.Token
	m.user = &user
	m.state = StateAuthenticated
	m.feedback = nil
	m.login = LoginForm{}
	onAuth := m.onAuth
	m.mu.Unlock()

	m.logger.Info(ctx, "logged in", "username", user.Username)
	if onAuth != nil {
		onAuth(Session{Token: resp.Token, User: user})
	}
	return nil
}

func (m *Manager) submitRegister(ctx context.Context, form RegisterForm, prev State, epoch uint64) error {
	req := client.RegisterRequest{
		Username: strings.TrimSpace(form.Username),
		Email:    strings.TrimSpace(form.Email),
		Password: form.Password,
		FullName: strings.TrimSpace(form.FullName),
	}

	resp, err := m.api.Register(ctx, req)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.epoch != epoch {
		m.restoreLocked(prev)
		return common.ErrStaleResponse
	}
	if err != nil {
		m.failLocked(err, prev)
		m.logger.Warn(ctx, "registration failed", "username", req.Username, "error", err)
		return err
	}

	text := common.MsgRegisterSuccess
	if resp != nil && strings.TrimSpace(resp.Message) != "" {
		text = resp.Message
	}
	m.state = prev
	m.register = RegisterForm{}
	m.feedback = models.SuccessFeedback(text)
	m.switchModeLocked(ModeLogin, true)
	m.logger.Info(ctx, "registered", "username", req.Username)
	return nil
}

// failLocked rolls back to prev and records the error Feedback.
func (m *Manager) failLocked(err error, prev State) {
	m.state = prev
	m.feedback = models.ErrorFeedback(feedbackText(err))
}

func (m *Manager) restoreLocked(prev State) {
	if m.state == StateAuthenticating {
		m.state = prev
	}
}

// feedbackText maps a failure onto the message catalog: server rejections
// show the server's text (or the generic one), everything else is treated
// as a connectivity problem.
func feedbackText(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return client.MessageOr(apiErr, common.MsgGenericError)
	}
	return common.MsgAuthConnectivity
}
