package client

import (
	"context"

	"github.com/dmitrijs2005/studywithme/internal/client/models"
)

// AuthAPI covers the unauthenticated account endpoints.
type AuthAPI interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
}

// RoomsAPI covers the lobby endpoints. An empty token sends the request
// anonymously.
type RoomsAPI interface {
	ListRooms(ctx context.Context, token string) ([]models.Room, error)
	CreateRoom(ctx context.Context, token string, req CreateRoomRequest) (*models.Room, error)
}

type Client interface {
	AuthAPI
	RoomsAPI
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// RegisterRequest omits FullName from the wire when it is blank.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName,omitempty"`
}

type RegisterResponse struct {
	Message string `json:"message,omitempty"`
}

type CreateRoomRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
