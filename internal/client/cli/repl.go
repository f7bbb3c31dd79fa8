package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	SwitchMode(ctx context.Context, target string) error
	Login(ctx context.Context) error
	Register(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Rooms(ctx context.Context) error
	Create(ctx context.Context, name string) error
	SetName(ctx context.Context, name string) error
	Join(ctx context.Context, room string) error
	Leave(ctx context.Context) error
	Timer(ctx context.Context, args []string) error
	Music(ctx context.Context, args []string) error
}

const (
	helpAnonymous = "Available commands: login, register, mode login|register, timer, music, exit"
	helpLoggedIn  = "Available commands: whoami, rooms, create <name>, name <display name>, join <room|#>, leave, " +
		"timer [start|pause|toggle|reset], music [list|select <#>|play|pause|toggle|volume <0-100>], logout, exit"
)

type lineResult struct {
	line string
	err  error
}

// nextLine reads one line from reader, giving up when ctx is done. Only one
// read is outstanding at a time, so command prompts can use reader between
// calls. A read abandoned on cancellation finishes in the background.
func nextLine(ctx context.Context, reader *bufio.Reader) (string, error) {
	ch := make(chan lineResult, 1)
	go func() {
		line, err := reader.ReadString('\n')
		ch <- lineResult{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.line, r.err
	}
}

// runREPL starts a simple read–eval–print loop for the StudyWithMe CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. The remainder of the line is passed on as
// the argument, so room and display names may contain spaces. The loop
// exits on EOF, when ctx is cancelled while waiting for input, or when the
// user types "exit" or "quit".
//
// Room commands (rooms, create, name, join, leave) require a logged-in
// session; the timer and music player work anonymously.
//
// Errors returned by command handlers are ignored here; handlers report
// them to the user themselves.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("swm %s> ", statusFn()))

		line, err := nextLine(ctx, reader)
		if err != nil && (!errors.Is(err, io.EOF) || strings.TrimSpace(line) == "") {
			return
		}

		line = strings.TrimSpace(line)
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]
		rest := strings.TrimSpace(strings.TrimPrefix(line, cmd))

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpAnonymous)
			}

		case "mode":
			_ = a.SwitchMode(ctx, rest)

		case "login":
			_ = a.Login(ctx)

		case "register":
			_ = a.Register(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "timer":
			_ = a.Timer(ctx, args)

		case "music":
			_ = a.Music(ctx, args)

		case "whoami", "rooms", "create", "name", "join", "leave":
			if !a.isLoggedIn() {
				printlnFn("Please log in first.")
				continue
			}
			switch cmd {
			case "whoami":
				_ = a.WhoAmI(ctx)
			case "rooms":
				_ = a.Rooms(ctx)
			case "create":
				_ = a.Create(ctx, rest)
			case "name":
				_ = a.SetName(ctx, rest)
			case "join":
				_ = a.Join(ctx, rest)
			case "leave":
				_ = a.Leave(ctx)
			}

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			return
		}
	}
}
