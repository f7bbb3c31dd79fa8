package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/studywithme/internal/client/models"
	"github.com/dmitrijs2005/studywithme/internal/client/session"
	"github.com/dmitrijs2005/studywithme/internal/common"
)

// getSimpleText, getRequiredText and getPassword are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var (
	getSimpleText   = GetSimpleText
	getRequiredText = GetRequiredText
	getPassword     = GetPassword
)

// SwitchMode selects which form the next submit uses. Without a target it
// prints the current mode.
func (a *App) SwitchMode(_ context.Context, target string) error {
	switch session.Mode(target) {
	case "":
		a.printf("Current mode: %s\n", a.session.Mode())
		return nil
	case session.ModeLogin, session.ModeRegister:
		a.session.SwitchMode(session.Mode(target), false)
		a.printf("Mode: %s\n", target)
		return nil
	default:
		a.printf("Usage: mode login|register\n")
		return fmt.Errorf("%w: unknown mode %q", common.ErrValidation, target)
	}
}

// Login prompts for a username (or email) and password and submits them
// through the session manager. On success the room list is fetched once.
//
// The password is wiped before returning. Server and connectivity failures
// are shown as feedback and returned.
func (a *App) Login(ctx context.Context) error {
	if a.session.Mode() != session.ModeLogin {
		a.session.SwitchMode(session.ModeLogin, false)
	}

	identifier, err := getRequiredText(a.reader, "Enter username or email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	if len(password) == 0 {
		a.printf("A password is required.\n")
		return fmt.Errorf("%w: password is required", common.ErrValidation)
	}

	a.session.SetLoginForm(session.LoginForm{Identifier: identifier, Password: string(password)})
	err = a.session.Submit(ctx)
	a.session.ForgetPasswords()
	a.printFeedback()
	if err != nil {
		if errors.Is(err, common.ErrBusy) {
			a.printf("A request is already in progress.\n")
		}
		return err
	}

	a.mu.Lock()
	name := a.displayName
	a.mu.Unlock()
	a.printf("Logged in. Welcome, %s!\n", name)

	return a.Rooms(ctx)
}

// Register prompts for the registration form and submits it. Full name is
// optional. On success the session switches to login mode and the success
// message is shown.
func (a *App) Register(ctx context.Context) error {
	if a.session.Mode() != session.ModeRegister {
		a.session.SwitchMode(session.ModeRegister, false)
	}

	username, err := getRequiredText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	fullName, err := getSimpleText(a.reader, "Enter full name (optional)", a.out)
	if err != nil {
		return err
	}
	email, err := getRequiredText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	if len(password) == 0 {
		a.printf("A password is required.\n")
		return fmt.Errorf("%w: password is required", common.ErrValidation)
	}

	a.session.SetRegisterForm(session.RegisterForm{
		Username: username,
		FullName: fullName,
		Email:    email,
		Password: string(password),
	})
	err = a.session.Submit(ctx)
	a.session.ForgetPasswords()
	a.printFeedback()
	return err
}

// Logout drops the session, the room list and the joined room. It is local
// only; the server is not contacted.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.printf("You are not logged in.\n")
		return common.ErrNotAuthenticated
	}

	a.session.Logout()
	a.lobby.Invalidate()

	a.mu.Lock()
	a.room = ""
	a.displayName = ""
	a.expiryWarned = false
	a.mu.Unlock()

	a.logger.Info(ctx, "logged out")
	a.printf("Logged out.\n")
	return nil
}

// WhoAmI prints the current user, the display name used for rooms and the
// token expiry when the token carries one.
func (a *App) WhoAmI(_ context.Context) error {
	u, ok := a.session.User()
	if !ok {
		a.printf("You are not logged in.\n")
		return common.ErrNotAuthenticated
	}

	a.mu.Lock()
	name := a.displayName
	a.mu.Unlock()

	a.printf("[%s] %s (@%s)\n", u.Initial(), u.DisplayName(), u.Username)
	if u.Email != "" {
		a.printf("Email: %s\n", u.Email)
	}
	if u.Bio != "" {
		a.printf("Bio: %s\n", u.Bio)
	}
	a.printf("Display name: %s\n", orDash(name))
	if exp, ok := a.session.ExpiresAt(); ok {
		a.printf("Session expires: %s\n", exp.Local().Format(time.DateTime))
	}
	return nil
}

func (a *App) printFeedback() {
	fb := a.session.Feedback()
	if fb == nil {
		return
	}
	switch fb.Kind {
	case models.FeedbackSuccess:
		a.printf("[ok] %s\n", fb.Text)
	default:
		a.printf("[error] %s\n", fb.Text)
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
