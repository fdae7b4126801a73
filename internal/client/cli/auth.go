package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gqlauth/internal/client/client"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

// Login prompts for a username (or email) and password and signs in. The
// password is wiped before returning.
func (a *App) Login(ctx context.Context) error {
	login, err := getSimpleText(a.reader, "Enter username or email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer wipe(password)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	res, err := a.client.Login(ctx, login, string(password))
	if err != nil {
		return err
	}

	a.userName = res.User.UserName
	a.schema = res.Schema
	a.save(ctx, res.Tokens)

	fmt.Fprintf(a.out, "Logged in as %s (schema %q), token valid until %s\n",
		res.User.UserName, res.Schema, time.UnixMilli(res.Tokens.JWTExpiresAt).Format(time.RFC3339))
	return nil
}

// Register prompts for an email, an optional username and a password,
// creates the account and keeps the session it was issued.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	username, err := getSimpleText(a.reader, "Enter username (empty to use the email)", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer wipe(password)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	res, err := a.client.Register(ctx, email, username, string(password))
	if err != nil {
		return err
	}

	a.userName = res.User.UserName
	a.schema = res.Schema
	a.save(ctx, res.Tokens)

	fmt.Fprintf(a.out, "Registered as %s (schema %q)\n", res.User.UserName, res.Schema)
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	if !a.isLoggedIn() {
		return client.ErrNotLoggedIn
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	u, err := a.client.Viewer(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "id:       %d\nusername: %s\nemail:    %s\n", u.ID, u.UserName, u.Email)
	if u.FullName != "" {
		fmt.Fprintf(a.out, "name:     %s\n", u.FullName)
	}
	if len(u.Groups) > 0 {
		fmt.Fprintf(a.out, "groups:   %s\n", strings.Join(u.Groups, ", "))
	}
	return nil
}

// Refresh rotates the token pair. A rejected refresh token ends the session.
func (a *App) Refresh(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	res, err := a.client.RefreshToken(ctx)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			a.client.SetTokens(client.Tokens{})
			a.forget(ctx)
		}
		return err
	}

	a.schema = res.Schema
	a.save(ctx, res.Tokens)

	fmt.Fprintf(a.out, "Tokens refreshed, valid until %s\n", time.UnixMilli(res.Tokens.JWTExpiresAt).Format(time.RFC3339))
	return nil
}

// Logout revokes the current token. The local session is dropped even when
// the server refuses, since the token is unusable either way.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		return client.ErrNotLoggedIn
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	err := a.client.Logout(ctx)
	if err != nil && !errors.Is(err, client.ErrUnauthorized) {
		return err
	}

	a.client.SetTokens(client.Tokens{})
	a.forget(ctx)
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) LogoutAll(ctx context.Context) error {
	if !a.isLoggedIn() {
		return client.ErrNotLoggedIn
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	n, err := a.client.LogoutAll(ctx)
	if err != nil {
		return err
	}

	a.forget(ctx)
	fmt.Fprintf(a.out, "Revoked %d token(s)\n", n)
	return nil
}

func (a *App) Status(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.client.Ping(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Server is serving")
	return nil
}
