package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/studywithme/internal/client/apitest"
	"github.com/dmitrijs2005/studywithme/internal/client/models"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*HTTPClient, *apitest.Server) {
	t.Helper()
	srv := apitest.NewServer(t)
	return NewHTTPClient(srv.URL+"/", WithTimeout(2*time.Second)), srv
}

func TestHTTPClient_Login(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestClient(t)
	srv.AddUser("secret", models.User{ID: "u1", Username: "alice", Email: "alice@example.org", FullName: "Alice"})

	t.Run("success", func(t *testing.T) {
		resp, err := c.Login(ctx, LoginRequest{Username: "alice", Password: "secret"})
		require.NoError(t, err)
		require.NotEmpty(t, resp.Token)
		require.NotNil(t, resp.User)
		assert.Empty(t, cmp.Diff(models.User{ID: "u1", Username: "alice", Email: "alice@example.org", FullName: "Alice"}, *resp.User))
	})

	t.Run("login by email", func(t *testing.T) {
		resp, err := c.Login(ctx, LoginRequest{Username: "alice@example.org", Password: "secret"})
		require.NoError(t, err)
		assert.Equal(t, "alice", resp.User.Username)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := c.Login(ctx, LoginRequest{Username: "alice", Password: "nope"})
		require.Error(t, err)

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		assert.Equal(t, "Invalid credentials", apiErr.Message)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("success body not json", func(t *testing.T) {
		srv.FailNext(http.MethodPost, "/auth/login", http.StatusOK, "<html>")
		_, err := c.Login(ctx, LoginRequest{Username: "alice", Password: "secret"})
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})
}

func TestHTTPClient_Register(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestClient(t)

	resp, err := c.Register(ctx, RegisterRequest{Username: "bob", Email: "bob@example.org", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "Account created", resp.Message)

	_, err = c.Register(ctx, RegisterRequest{Username: "bob", Email: "bob@example.org", Password: "pw"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "Username already exists", MessageOr(err, "fallback"))

	srv.FailNext(http.MethodPost, "/auth/register", http.StatusCreated, "")
	resp, err = c.Register(ctx, RegisterRequest{Username: "carol", Email: "c@example.org", Password: "pw"})
	require.NoError(t, err)
	assert.Empty(t, resp.Message)

	srv.FailNext(http.MethodPost, "/auth/register", http.StatusCreated, "<html>created</html>")
	_, err = c.Register(ctx, RegisterRequest{Username: "dave", Email: "d@example.org", Password: "pw"})
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestHTTPClient_RegisterOmitsBlankFullName(t *testing.T) {
	var body string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	c := NewHTTPClient(ts.URL)
	_, err := c.Register(context.Background(), RegisterRequest{Username: "u", Email: "e", Password: "p"})
	require.NoError(t, err)
	assert.NotContains(t, body, "fullName")
}

func TestHTTPClient_Rooms(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestClient(t)
	srv.AddRoom("Math", "calc")
	srv.AddRoom("Physics", "waves")

	rooms, err := c.ListRooms(ctx, "")
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "Math", rooms[0].Name)
	assert.NotEmpty(t, rooms[0].ID)
	assert.Empty(t, srv.LastHeader(http.MethodGet, "/rooms", "Authorization"))

	srv.AddUser("pw", models.User{Username: "dan"})
	login, err := c.Login(ctx, LoginRequest{Username: "dan", Password: "pw"})
	require.NoError(t, err)

	room, err := c.CreateRoom(ctx, login.Token, CreateRoomRequest{Name: "Chem", Description: "d"})
	require.NoError(t, err)
	require.NotNil(t, room)
	assert.Equal(t, "Chem", room.Name)
	assert.Equal(t, "Bearer "+login.Token, srv.LastHeader(http.MethodPost, "/rooms", "Authorization"))

	_, err = c.CreateRoom(ctx, login.Token, CreateRoomRequest{Name: "Chem", Description: "d"})
	assert.ErrorIs(t, err, ErrRejected)
	assert.Equal(t, "Room already exists", MessageOr(err, "fallback"))
}

func TestHTTPClient_RequestIDIsUUID(t *testing.T) {
	c, srv := newTestClient(t)
	_, err := c.ListRooms(context.Background(), "")
	require.NoError(t, err)

	id := srv.LastHeader(http.MethodGet, "/rooms", "X-Request-ID")
	_, err = uuid.Parse(id)
	assert.NoError(t, err, "request id %q", id)
}

func TestHTTPClient_Unavailable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close()

	c := NewHTTPClient(ts.URL)
	_, err := c.ListRooms(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestHTTPClient_RateLimitHonorsContext(t *testing.T) {
	c, _ := newTestClient(t)
	WithRateLimit(0.001, 1)(c)

	_, err := c.ListRooms(context.Background(), "")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.ListRooms(ctx, "")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNewAPIError_MessageExtraction(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "error field", body: `{"error":"X"}`, want: "X"},
		{name: "message fallback", body: `{"message":"Y"}`, want: "Y"},
		{name: "error wins", body: `{"error":"X","message":"Y"}`, want: "X"},
		{name: "blank error falls to message", body: `{"error":"  ","message":"Y"}`, want: "Y"},
		{name: "not json", body: `Internal Server Error`, want: ""},
		{name: "empty object", body: `{}`, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newAPIError(http.StatusBadRequest, []byte(tt.body))
			assert.Equal(t, tt.want, e.Message)

			want := tt.want
			if want == "" {
				want = "generic"
			}
			assert.Equal(t, want, MessageOr(e, "generic"))
		})
	}
}
