package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/studywithme/internal/client/client"
	"github.com/dmitrijs2005/studywithme/internal/client/models"
	"github.com/dmitrijs2005/studywithme/internal/common"
	"github.com/dmitrijs2005/studywithme/internal/logging"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAuth records requests and replays canned answers. When gate is set,
// calls signal on entered and block until gate is closed.
type fakeAuth struct {
	mu sync.Mutex

	loginResp *client.LoginResponse
	loginErr  error
	regResp   *client.RegisterResponse
	regErr    error

	loginCalls []client.LoginRequest
	regCalls   []client.RegisterRequest

	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeAuth) wait() {
	if f.gate == nil {
		return
	}
	f.entered <- struct{}{}
	<-f.gate
}

func (f *fakeAuth) Login(_ context.Context, req client.LoginRequest) (*client.LoginResponse, error) {
	f.mu.Lock()
	f.loginCalls = append(f.loginCalls, req)
	f.mu.Unlock()
	f.wait()
	return f.loginResp, f.loginErr
}

func (f *fakeAuth) Register(_ context.Context, req client.RegisterRequest) (*client.RegisterResponse, error) {
	f.mu.Lock()
	f.regCalls = append(f.regCalls, req)
	f.mu.Unlock()
	f.wait()
	return f.regResp, f.regErr
}

func (f *fakeAuth) loginCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.loginCalls)
}

var alice = models.User{ID: "u1", Username: "alice", FullName: "Alice Nguyen", Email: "alice@example.org"}

func newManager(f *fakeAuth, opts ...Option) *Manager {
	return NewManager(f, logging.Discard(), opts...)
}

func TestSubmit_LoginSuccess(t *testing.T) {
	f := &fakeAuth{loginResp: &client.LoginResponse{Token: "tok-1", User: &alice}}

	var got []Session
	m := newManager(f, WithOnAuthenticated(func(s Session) { got = append(got, s) }))
	m.SetLoginForm(LoginForm{Identifier: "  alice  ", Password: " pw "})

	require.NoError(t, m.Submit(context.Background()))

	assert.Equal(t, StateAuthenticated, m.State())
	assert.Equal(t, "tok-1", m.Token())
	u, ok := m.User()
	require.True(t, ok)
	assert.Equal(t, alice, u)
	assert.Nil(t, m.Feedback())
	assert.Equal(t, []Session{{Token: "tok-1", User: alice}}, got)

	require.Len(t, f.loginCalls, 1)
	assert.Equal(t, client.LoginRequest{Username: "alice", Password: " pw "}, f.loginCalls[0])
}

func TestSubmit_LoginFailureFeedback(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "server error field", err: &client.APIError{StatusCode: http.StatusUnauthorized, Message: "X"}, want: "X"},
		{name: "no message in body", err: &client.APIError{StatusCode: http.StatusInternalServerError}, want: common.MsgGenericError},
		{name: "connectivity", err: client.ErrUnavailable, want: common.MsgAuthConnectivity},
		{name: "malformed body", err: client.ErrMalformedResponse, want: common.MsgAuthConnectivity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeAuth{loginErr: tt.err}
			m := newManager(f)

			err := m.Submit(context.Background())
			require.Error(t, err)

			assert.Equal(t, StateAnonymous, m.State())
			assert.Empty(t, m.Token())
			_, ok := m.User()
			assert.False(t, ok)
			assert.Equal(t, &models.Feedback{Kind: models.FeedbackError, Text: tt.want}, m.Feedback())
		})
	}
}

func TestSubmit_LoginResponseWithoutTokenIsConnectivityError(t *testing.T) {
	f := &fakeAuth{loginResp: &client.LoginResponse{User: &alice}}
	m := newManager(f)

	err := m.Submit(context.Background())
	assert.ErrorIs(t, err, client.ErrMalformedResponse)
	assert.Equal(t, StateAnonymous, m.State())
	assert.Equal(t, common.MsgAuthConnectivity, m.Feedback().Text)
}

func TestSubmit_RegisterSuccessPreservesFeedbackAcrossModeSwitch(t *testing.T) {
	tests := []struct {
		name string
		resp *client.RegisterResponse
		want string
	}{
		{name: "server message", resp: &client.RegisterResponse{Message: "Welcome aboard"}, want: "Welcome aboard"},
		{name: "default message", resp: &client.RegisterResponse{}, want: common.MsgRegisterSuccess},
		{name: "nil response", resp: nil, want: common.MsgRegisterSuccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeAuth{regResp: tt.resp}
			m := newManager(f)
			m.SwitchMode(ModeRegister, false)
			m.SetRegisterForm(RegisterForm{Username: " bob ", FullName: "   ", Email: " bob@example.org ", Password: "pw"})

			require.NoError(t, m.Submit(context.Background()))

			assert.Equal(t, ModeLogin, m.Mode())
			assert.Equal(t, StateAnonymous, m.State())
			assert.Equal(t, RegisterForm{}, m.RegisterForm())
			assert.Equal(t, &models.Feedback{Kind: models.FeedbackSuccess, Text: tt.want}, m.Feedback())
			assert.Empty(t, m.Token())

			require.Len(t, f.regCalls, 1)
			assert.Equal(t, client.RegisterRequest{Username: "bob", Email: "bob@example.org", Password: "pw"}, f.regCalls[0])
		})
	}
}

func TestSubmit_RegisterFailureKeepsForm(t *testing.T) {
	f := &fakeAuth{regErr: &client.APIError{StatusCode: http.StatusConflict, Message: "Username already exists"}}
	m := newManager(f)
	m.SwitchMode(ModeRegister, false)
	form := RegisterForm{Username: "bob", FullName: "Bob", Email: "b@example.org", Password: "pw"}
	m.SetRegisterForm(form)

	require.Error(t, m.Submit(context.Background()))

	assert.Equal(t, ModeRegister, m.Mode())
	assert.Equal(t, form, m.RegisterForm())
	assert.Equal(t, "Username already exists", m.Feedback().Text)
	assert.Equal(t, "Bob", f.regCalls[0].FullName)
}

func TestSubmit_SingleFlight(t *testing.T) {
	f := &fakeAuth{
		loginResp: &client.LoginResponse{Token: "tok", User: &alice},
		gate:      make(chan struct{}),
		entered:   make(chan struct{}, 1),
	}
	m := newManager(f)

	done := make(chan error, 1)
	go func() { done <- m.Submit(context.Background()) }()

	<-f.entered
	assert.True(t, m.IsSubmitting())
	assert.Equal(t, StateAuthenticating, m.State())
	assert.ErrorIs(t, m.Submit(context.Background()), common.ErrBusy)

	close(f.gate)
	require.NoError(t, <-done)

	assert.Equal(t, 1, f.loginCount())
	assert.False(t, m.IsSubmitting())
	assert.Equal(t, StateAuthenticated, m.State())
}

func TestSubmit_ResponseAfterLogoutIsDiscarded(t *testing.T) {
	f := &fakeAuth{
		loginResp: &client.LoginResponse{Token: "late", User: &alice},
		gate:      make(chan struct{}),
		entered:   make(chan struct{}, 1),
	}
	called := false
	m := newManager(f, WithOnAuthenticated(func(Session) { called = true }))

	done := make(chan error, 1)
	go func() { done <- m.Submit(context.Background()) }()

	<-f.entered
	m.Logout()
	close(f.gate)

	assert.ErrorIs(t, <-done, common.ErrStaleResponse)
	assert.Equal(t, StateAnonymous, m.State())
	assert.Empty(t, m.Token())
	assert.False(t, called)
}

func TestSwitchMode(t *testing.T) {
	f := &fakeAuth{loginErr: errors.New("dial tcp: refused")}
	m := newManager(f)
	_ = m.Submit(context.Background())
	require.NotNil(t, m.Feedback())

	m.SwitchMode(ModeRegister, true)
	assert.Equal(t, ModeRegister, m.Mode())
	assert.NotNil(t, m.Feedback())

	m.SwitchMode(ModeLogin, false)
	assert.Equal(t, ModeLogin, m.Mode())
	assert.Nil(t, m.Feedback())
}

func TestLogout(t *testing.T) {
	f := &fakeAuth{loginResp: &client.LoginResponse{Token: "tok", User: &alice}}
	m := newManager(f)
	require.NoError(t, m.Submit(context.Background()))

	m.Logout()

	assert.Equal(t, StateAnonymous, m.State())
	assert.Empty(t, m.Token())
	_, ok := m.User()
	assert.False(t, ok)
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: "u1", ExpiresAt: jwt.NewNumericDate(exp)}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)
	return s
}

func TestExpiresAt(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)

	t.Run("jwt", func(t *testing.T) {
		f := &fakeAuth{loginResp: &client.LoginResponse{Token: signedToken(t, exp), User: &alice}}
		m := newManager(f)
		require.NoError(t, m.Submit(context.Background()))

		got, ok := m.ExpiresAt()
		require.True(t, ok)
		assert.True(t, exp.Equal(got))
		assert.False(t, m.Expired(time.Now()))
		assert.True(t, m.Expired(exp.Add(time.Second)))
	})

	t.Run("opaque token", func(t *testing.T) {
		f := &fakeAuth{loginResp: &client.LoginResponse{Token: "opaque", User: &alice}}
		m := newManager(f)
		require.NoError(t, m.Submit(context.Background()))

		_, ok := m.ExpiresAt()
		assert.False(t, ok)
		assert.False(t, m.Expired(time.Now()))
	})

	t.Run("anonymous", func(t *testing.T) {
		_, ok := newManager(&fakeAuth{}).ExpiresAt()
		assert.False(t, ok)
	})
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "anonymous", StateAnonymous.String())
	assert.Equal(t, "authenticating", StateAuthenticating.String())
	assert.Equal(t, "authenticated", StateAuthenticated.String())
}

func TestForgetPasswords_AfterFailedSubmit(t *testing.T) {
	f := &fakeAuth{loginErr: &client.APIError{StatusCode: http.StatusUnauthorized, Message: "Invalid credentials"}}
	m := newManager(f)
	m.SetLoginForm(LoginForm{Identifier: "alice", Password: "pw"})
	m.SetRegisterForm(RegisterForm{Username: "bob", Email: "b@example.org", Password: "pw2"})

	require.Error(t, m.Submit(context.Background()))
	assert.Equal(t, "pw", m.LoginForm().Password)

	m.ForgetPasswords()

	assert.Equal(t, LoginForm{Identifier: "alice"}, m.LoginForm())
	assert.Equal(t, RegisterForm{Username: "bob", Email: "b@example.org"}, m.RegisterForm())
}
