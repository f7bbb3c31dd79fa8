// Package apitest runs an in-memory stand-in for the study-room REST API.
// It is meant for tests: accounts and rooms live in maps, tokens are HS256
// JWTs, and individual routes can be made to fail or to block.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/studywithme/internal/client/models"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type account struct {
	password string
	user     models.User
}

type failure struct {
	status int
	body   string
}

type Server struct {
	*httptest.Server

	// TokenTTL is the lifetime of issued tokens. Negative values issue
	// already-expired tokens.
	TokenTTL time.Duration

	signingKey []byte

	mu       sync.Mutex
	accounts map[string]account
	tokens   map[string]string
	rooms    []models.Room
	calls    map[string]int
	headers  map[string]http.Header
	failures map[string]failure
	gate     chan struct{}
	arrived  chan struct{}
}

// NewServer starts a server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		TokenTTL:   time.Hour,
		signingKey: []byte(uuid.NewString()),
		accounts:   make(map[string]account),
		tokens:     make(map[string]string),
		calls:      make(map[string]int),
		headers:    make(map[string]http.Header),
		failures:   make(map[string]failure),
	}

	r := chi.NewRouter()
	r.Use(s.record, s.hold, s.injectFailure)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/register", s.handleRegister)
	r.Get("/rooms", s.handleListRooms)
	r.Post("/rooms", s.handleCreateRoom)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// AddUser registers an account directly, bypassing the API.
func (s *Server) AddUser(password string, u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	s.accounts[u.Username] = account{password: password, user: u}
}

// AddRoom appends a room to the listing and returns it.
func (s *Server) AddRoom(name, description string) models.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	room := models.Room{ID: uuid.NewString(), Name: name, Description: description}
	s.rooms = append(s.rooms, room)
	return room
}

func (s *Server) Rooms() []models.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Room(nil), s.rooms...)
}

// FailNext makes the next request to method+path answer status with the
// raw body, without reaching the handler.
func (s *Server) FailNext(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, body: body}
}

// Hold blocks every following request until release is called. A value is
// sent on arrived each time a request starts waiting.
func (s *Server) Hold() (arrived <-chan struct{}, release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gate := make(chan struct{})
	s.gate = gate
	s.arrived = make(chan struct{}, 16)
	var once sync.Once
	return s.arrived, func() {
		once.Do(func() {
			s.mu.Lock()
			s.gate = nil
			s.mu.Unlock()
			close(gate)
		})
	}
}

// Calls reports how many requests method+path has received.
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

// LastHeader returns header key of the latest request to method+path.
func (s *Server) LastHeader(method, path, key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.headers[method+" "+path]
	if !ok {
		return ""
	}
	return h.Get(key)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.calls[key]++
		s.headers[key] = r.Header.Clone()
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) hold(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		gate, arrived := s.gate, s.arrived
		s.mu.Unlock()
		if gate != nil {
			select {
			case arrived <- struct{}{}:
			default:
			}
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		f, ok := s.failures[key]
		delete(s.failures, key)
		s.mu.Unlock()
		if ok {
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(f.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	s.mu.Lock()
	acc, ok := s.findAccount(req.Username)
	s.mu.Unlock()
	if !ok || acc.password != req.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		return
	}

	token, err := s.issueToken(acc.user)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "token error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": acc.user})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	str := func(k string) string { v, _ := raw[k].(string); return v }

	username, email, password := str("username"), str("email"), str("password")
	if username == "" || email == "" || password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Username, email and password are required"})
		return
	}
	if v, present := raw["fullName"]; present && v == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "fullName must not be empty"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[username]; exists {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "Username already exists"})
		return
	}
	s.accounts[username] = account{
		password: password,
		user:     models.User{ID: uuid.NewString(), Username: username, Email: email, FullName: str("fullName")},
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Account created"})
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
		return
	}
	s.mu.Lock()
	out := make([]map[string]string, 0, len(s.rooms))
	for _, room := range s.rooms {
		out = append(out, map[string]string{"_id": room.ID, "name": room.Name, "description": room.Description})
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
		return
	}
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Room name is required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, room := range s.rooms {
		if room.Name == req.Name {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Room already exists"})
			return
		}
	}
	room := models.Room{ID: uuid.NewString(), Name: req.Name, Description: req.Description}
	s.rooms = append(s.rooms, room)
	writeJSON(w, http.StatusCreated, map[string]string{"_id": room.ID, "name": room.Name, "description": room.Description})
}

// findAccount matches identifier against usernames and emails.
// Caller must hold s.mu.
func (s *Server) findAccount(identifier string) (account, bool) {
	if acc, ok := s.accounts[identifier]; ok {
		return acc, true
	}
	for _, acc := range s.accounts {
		if acc.user.Email != "" && acc.user.Email == identifier {
			return acc, true
		}
	}
	return account{}, false
}

func (s *Server) issueToken(u models.User) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   u.ID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.TokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.tokens[token] = u.Username
	s.mu.Unlock()
	return token, nil
}

// authorized accepts anonymous requests and requests carrying a token this
// server issued.
func (s *Server) authorized(r *http.Request) bool {
	h := r.Header.Get("Authorization")
	if h == "" {
		return true
	}
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, known := s.tokens[token]
	return known
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
