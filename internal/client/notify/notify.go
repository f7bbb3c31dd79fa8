// Package notify is the capability boundary for user-facing notices.
//
// Components depend on the Notifier and Alerter interfaces only. Two
// backends exist: a desktop notification (System) and a terminal notice
// (Terminal). Preferred picks between them on every call using a
// permission query.
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/studywithme/internal/logging"
	"github.com/gen2brain/beeep"
)

// Notifier delivers a titled notification.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// Alerter shows a short warning to the user.
type Alerter interface {
	Alert(ctx context.Context, text string)
}

// Terminal writes notices to a terminal. It is the fallback backend and
// also the shell's Alerter.
type Terminal struct {
	mu sync.Mutex
	w  io.Writer
}

func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

// Notify rings the bell and prints the notice on its own line.
func (t *Terminal) Notify(_ context.Context, title, body string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintf(t.w, "\a[%s] %s\n", title, body)
	return err
}

func (t *Terminal) Alert(_ context.Context, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, "! %s\n", text)
}

// System sends desktop notifications through the OS notification service.
type System struct {
	send func(title, message string) error
}

func NewSystem() *System {
	return &System{send: func(title, message string) error {
		return beeep.Notify(title, message, "")
	}}
}

func (s *System) Notify(_ context.Context, title, body string) error {
	return s.send(title, body)
}

// Preferred sends through System when Granted reports permission, and
// through Fallback otherwise or when the system backend fails.
type Preferred struct {
	System   Notifier
	Fallback Notifier
	Granted  func() bool
	Logger   logging.Logger
}

func (p *Preferred) Notify(ctx context.Context, title, body string) error {
	if p.System != nil && p.Granted != nil && p.Granted() {
		err := p.System.Notify(ctx, title, body)
		if err == nil {
			return nil
		}
		if p.Logger != nil {
			p.Logger.Warn(ctx, "system notification failed, using fallback", "error", err)
		}
	}
	return p.Fallback.Notify(ctx, title, body)
}

// Static returns a permission query with a fixed answer.
func Static(granted bool) func() bool {
	return func() bool { return granted }
}
