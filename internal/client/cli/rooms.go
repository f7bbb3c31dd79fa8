package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/studywithme/internal/common"
)

// Rooms refreshes the room list and prints it. A failed refresh keeps
// showing the last list received.
func (a *App) Rooms(ctx context.Context) error {
	a.warnIfExpired(ctx)

	err := a.lobby.Refresh(ctx)
	if err != nil && !errors.Is(err, common.ErrStaleResponse) {
		a.printf("Could not refresh the room list.\n")
	}
	a.printRooms()
	return err
}

// Create creates a room named name. With no name it retries the name left
// over from a failed attempt.
func (a *App) Create(ctx context.Context, name string) error {
	a.warnIfExpired(ctx)

	if name == "" {
		name = a.lobby.DraftName()
	}
	a.lobby.SetDraftName(name)

	if err := a.lobby.CreateRoom(ctx); err != nil {
		if errors.Is(err, common.ErrBusy) {
			a.printf("A room is already being created.\n")
		}
		return err
	}

	a.printf("Room %q created.\n", strings.TrimSpace(name))
	a.printRooms()
	return nil
}

// SetName sets the display name used when joining rooms. A blank name
// clears it.
func (a *App) SetName(_ context.Context, name string) error {
	a.mu.Lock()
	a.displayName = name
	a.mu.Unlock()

	if strings.TrimSpace(name) == "" {
		a.printf("Display name cleared.\n")
	} else {
		a.printf("Display name: %s\n", name)
	}
	return nil
}

// Join enters a room given by name or by its number in the last listing.
func (a *App) Join(ctx context.Context, ref string) error {
	if ref == "" {
		a.printf("Usage: join <room name|#>\n")
		return fmt.Errorf("%w: room is required", common.ErrValidation)
	}

	roomName := ref
	if n, err := strconv.Atoi(ref); err == nil {
		rooms := a.lobby.Rooms()
		if n >= 1 && n <= len(rooms) {
			roomName = rooms[n-1].Name
		}
	}

	a.mu.Lock()
	name := a.displayName
	a.mu.Unlock()

	return a.lobby.RequestJoin(ctx, roomName, name)
}

func (a *App) Leave(ctx context.Context) error {
	a.mu.Lock()
	room := a.room
	a.room = ""
	a.mu.Unlock()

	if room == "" {
		a.printf("You are not in a room.\n")
		return nil
	}
	a.logger.Info(ctx, "left room", "room", room)
	a.printf("Left room %q.\n", room)
	return nil
}

func (a *App) printRooms() {
	rooms := a.lobby.Rooms()
	if len(rooms) == 0 {
		a.printf("No rooms yet. Create one with 'create <name>'.\n")
		return
	}
	for i, r := range rooms {
		if r.Description != "" {
			a.printf("%d. %s: %s\n", i+1, r.Name, r.Description)
		} else {
			a.printf("%d. %s\n", i+1, r.Name)
		}
	}
}
