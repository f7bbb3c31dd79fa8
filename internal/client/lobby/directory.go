// Package lobby implements the room directory: the room snapshot, room
// creation, and the join gate that hands a room name to the in-room
// subsystem.
package lobby

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/studywithme/internal/client/client"
	"github.com/dmitrijs2005/studywithme/internal/client/models"
	"github.com/dmitrijs2005/studywithme/internal/client/notify"
	"github.com/dmitrijs2005/studywithme/internal/common"
	"github.com/dmitrijs2005/studywithme/internal/logging"
)

// TokenSource yields the current bearer token; "" means anonymous.
type TokenSource interface {
	Token() string
}

// Handoff receives the room name once a join passes its checks.
type Handoff interface {
	EnterRoom(roomName string)
}

type HandoffFunc func(roomName string)

func (f HandoffFunc) EnterRoom(roomName string) { f(roomName) }

type Directory struct {
	api     client.RoomsAPI
	tokens  TokenSource
	alerts  notify.Alerter
	handoff Handoff
	logger  logging.Logger

	creating atomic.Bool

	mu      sync.Mutex
	rooms   []models.Room
	draft   string
	epoch   uint64
	seq     uint64
	applied uint64
}

func NewDirectory(api client.RoomsAPI, tokens TokenSource, alerts notify.Alerter, handoff Handoff, logger logging.Logger) *Directory {
	return &Directory{
		api:     api,
		tokens:  tokens,
		alerts:  alerts,
		handoff: handoff,
		logger:  logger.With("component", "lobby"),
	}
}

// Rooms returns a copy of the snapshot in server order.
func (d *Directory) Rooms() []models.Room {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.Room(nil), d.rooms...)
}

// Refresh replaces the snapshot with the server's list. On failure the
// error is logged and returned, and the previous snapshot stays as it was.
// When refreshes overlap, a response older than the one already applied is
// dropped.
func (d *Directory) Refresh(ctx context.Context) error {
	d.mu.Lock()
	d.seq++
	seq, epoch := d.seq, d.epoch
	d.mu.Unlock()

	rooms, err := d.api.ListRooms(ctx, d.tokens.Token())
	if err != nil {
		d.logger.Warn(ctx, "list rooms failed", "error", err)
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if epoch != d.epoch || seq < d.applied {
		d.logger.Debug(ctx, "room list discarded", "seq", seq)
		return common.ErrStaleResponse
	}
	d.applied = seq
	d.rooms = append([]models.Room(nil), rooms...)
	d.logger.Debug(ctx, "rooms refreshed", "count", len(rooms))
	return nil
}

func (d *Directory) SetDraftName(name string) {
	d.mu.Lock()
	d.draft = name
	d.mu.Unlock()
}

func (d *Directory) DraftName() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.draft
}

func (d *Directory) IsCreating() bool {
	return d.creating.Load()
}

// CanCreate mirrors the create button: enabled when idle with a non-blank draft.
func (d *Directory) CanCreate() bool {
	return !d.IsCreating() && strings.TrimSpace(d.DraftName()) != ""
}

// CreateRoom posts the trimmed draft name. Only one creation runs at a
// time; overlapping calls return common.ErrBusy and send nothing. On
// success the draft is cleared and the snapshot refreshed before the call
// returns. On failure the user is warned and the draft is kept for retry.
func (d *Directory) CreateRoom(ctx context.Context) error {
	if !d.creating.CompareAndSwap(false, true) {
		return common.ErrBusy
	}
	defer d.creating.Store(false)

	d.mu.Lock()
	name := strings.TrimSpace(d.draft)
	epoch := d.epoch
	d.mu.Unlock()

	if name == "" {
		d.alerts.Alert(ctx, common.MsgRoomNameRequired)
		return fmt.Errorf("%w: room name is blank", common.ErrValidation)
	}

	req := client.CreateRoomRequest{Name: name, Description: common.DefaultRoomDescription}
	if _, err := d.api.CreateRoom(ctx, d.tokens.Token(), req); err != nil {
		d.logger.Warn(ctx, "create room failed", "name", name, "error", err)
		if errors.Is(err, client.ErrUnavailable) {
			d.alerts.Alert(ctx, common.MsgRoomConnectivity)
		} else {
			d.alerts.Alert(ctx, common.MsgRoomCreateFailed)
		}
		return err
	}

	d.mu.Lock()
	stale := epoch != d.epoch
	if !stale {
		d.draft = ""
	}
	d.mu.Unlock()
	if stale {
		return common.ErrStaleResponse
	}

	d.logger.Info(ctx, "room created", "name", name)
	_ = d.Refresh(ctx)
	return nil
}

// RequestJoin hands roomName over when displayName is not blank. It does
// no I/O of its own.
func (d *Directory) RequestJoin(ctx context.Context, roomName, displayName string) error {
	if strings.TrimSpace(displayName) == "" {
		d.alerts.Alert(ctx, common.MsgDisplayNameMissing)
		return fmt.Errorf("%w: display name is blank", common.ErrValidation)
	}
	d.logger.Info(ctx, "joining room", "room", roomName, "as", displayName)
	d.handoff.EnterRoom(roomName)
	return nil
}

// Invalidate empties the directory and makes responses to requests already
// in flight inapplicable. Called on logout.
func (d *Directory) Invalidate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.epoch++
	d.rooms = nil
	d.draft = ""
}
