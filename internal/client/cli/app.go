package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/studywithme/internal/client/client"
	"github.com/dmitrijs2005/studywithme/internal/client/config"
	"github.com/dmitrijs2005/studywithme/internal/client/lobby"
	"github.com/dmitrijs2005/studywithme/internal/client/models"
	"github.com/dmitrijs2005/studywithme/internal/client/notify"
	"github.com/dmitrijs2005/studywithme/internal/client/player"
	"github.com/dmitrijs2005/studywithme/internal/client/pomodoro"
	"github.com/dmitrijs2005/studywithme/internal/client/session"
	"github.com/dmitrijs2005/studywithme/internal/logging"
)

// sessionCheckInterval is how often the watcher looks at token expiry.
const sessionCheckInterval = 30 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	session *session.Manager
	lobby   *lobby.Directory
	timer   *pomodoro.Timer
	player  *player.Player
	reader  *bufio.Reader
	out     io.Writer
	now     func() time.Time

	mu            sync.Mutex
	displayName   string
	room          string
	expiryWarned  bool
	checkInterval time.Duration
}

// deps are the collaborators NewApp builds for production; tests supply
// their own.
type deps struct {
	api    client.Client
	clock  pomodoro.Clock
	system notify.Notifier
	in     io.Reader
	out    io.Writer
	logger logging.Logger
}

func NewApp(c *config.Config) (*App, error) {
	logger, err := logging.New(os.Stderr, c.LogLevel)
	if err != nil {
		return nil, err
	}

	burst := int(math.Ceil(c.RateLimit))
	if burst < 1 {
		burst = 1
	}
	api := client.NewHTTPClient(c.APIBaseURL,
		client.WithTimeout(c.RequestTimeout),
		client.WithRateLimit(c.RateLimit, burst),
		client.WithLogger(logger),
	)

	return newApp(c, deps{
		api:    api,
		clock:  pomodoro.RealClock(),
		system: notify.NewSystem(),
		in:     os.Stdin,
		out:    os.Stdout,
		logger: logger,
	})
}

func newApp(c *config.Config, d deps) (*App, error) {
	a := &App{
		config:        c,
		logger:        d.logger.With("component", "cli"),
		reader:        bufio.NewReader(d.in),
		out:           d.out,
		now:           time.Now,
		checkInterval: sessionCheckInterval,
	}

	terminal := notify.NewTerminal(d.out)

	a.session = session.NewManager(d.api, d.logger, session.WithOnAuthenticated(a.onAuthenticated))
	a.lobby = lobby.NewDirectory(d.api, a.session, terminal, lobby.HandoffFunc(a.enterRoom), d.logger)
	a.timer = pomodoro.New(d.clock, &notify.Preferred{
		System:   d.system,
		Fallback: terminal,
		Granted:  notify.Static(c.NotificationsGranted),
		Logger:   d.logger.With("component", "notify"),
	}, d.logger)

	p, err := player.New(player.DefaultPlaylist, player.SinkFunc(a.applyPlayback))
	if err != nil {
		return nil, err
	}
	a.player = p

	return a, nil
}

// Run starts the REPL and the session watcher and blocks until the user
// exits, input ends or ctx is cancelled. The timer is stopped on return.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.timer.Close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		printlnFn("Welcome to StudyWithMe (type 'help' for commands)")
		runREPL(gctx, a, a.status, a.reader)
		return nil
	})

	g.Go(func() error {
		a.watchSession(gctx)
		return nil
	})

	return g.Wait()
}

func (a *App) isLoggedIn() bool {
	return a.session.State() == session.StateAuthenticated
}

// watchSession warns once per login when the bearer token has expired.
func (a *App) watchSession(ctx context.Context) {
	ticker := time.NewTicker(a.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.warnIfExpired(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// warnIfExpired prints the expiry notice the first time an expired token
// is seen. It reports whether the token is expired.
func (a *App) warnIfExpired(ctx context.Context) bool {
	if !a.isLoggedIn() || !a.session.Expired(a.now()) {
		return false
	}

	a.mu.Lock()
	warned := a.expiryWarned
	a.expiryWarned = true
	a.mu.Unlock()

	if !warned {
		a.logger.Warn(ctx, "session token expired")
		a.printf("Your session has expired, please log in again.\n")
	}
	return true
}

func (a *App) onAuthenticated(s session.Session) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.displayName = s.User.DisplayName()
	a.expiryWarned = false
}

func (a *App) enterRoom(roomName string) {
	a.mu.Lock()
	a.room = roomName
	a.mu.Unlock()
	a.printf("Joined room %q.\n", roomName)
}

func (a *App) applyPlayback(ctx context.Context, p models.Playback) {
	a.logger.Info(ctx, "playback intent",
		"track", p.TrackURL,
		"playing", p.Playing,
		"volume", p.Volume,
	)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// status renders the prompt's state: who is logged in, the joined room
// and the timer.
func (a *App) status() string {
	a.mu.Lock()
	name, room := a.displayName, a.room
	a.mu.Unlock()

	s := ""
	if a.isLoggedIn() && name != "" {
		s = name + " "
	}
	if room != "" {
		s += "@" + room + " "
	}

	ts := a.timer.State()
	s += ts.String()
	if ts.Running {
		s += " running"
	}
	return fmt.Sprintf("(%s)", s)
}
