package cli

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/dmitrijs2005/gqlauth/internal/client/client"
	"github.com/dmitrijs2005/gqlauth/internal/client/config"
	"github.com/dmitrijs2005/gqlauth/internal/client/session"
	"github.com/dmitrijs2005/gqlauth/internal/logging"
)

// AuthClient is the part of client.GRPCClient the shell uses.
type AuthClient interface {
	Login(ctx context.Context, login, password string) (*client.AuthResult, error)
	Register(ctx context.Context, email, username, password string) (*client.AuthResult, error)
	RefreshToken(ctx context.Context) (*client.AuthResult, error)
	Viewer(ctx context.Context) (*client.User, error)
	Logout(ctx context.Context) error
	LogoutAll(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
	Tokens() client.Tokens
	SetTokens(t client.Tokens)
	OnRefresh(fn func(*client.AuthResult))
	Close() error
}

// SessionStore persists the signed-in session.
type SessionStore interface {
	Save(ctx context.Context, s session.Session) error
	Load(ctx context.Context) (session.Session, bool, error)
	Clear(ctx context.Context) error
	Close() error
}

type App struct {
	config   *config.Config
	client   AuthClient
	store    SessionStore
	logger   logging.Logger
	userName string
	schema   string
	reader   *bufio.Reader
	out      io.Writer
}

// NewApp opens the session file, connects to the server and restores the
// previous session, if any.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.New("development", c.LogLevel)

	store, err := session.Open(ctx, c.SessionFile)
	if err != nil {
		logger.Error(ctx, "error opening session file", "file", c.SessionFile, "error", err)
		return nil, err
	}

	apiClient, err := client.NewGRPCClient(c.ServerEndpointAddr)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	a := newApp(c, apiClient, store, logger, os.Stdin, os.Stdout)
	a.restore(ctx)
	return a, nil
}

func newApp(c *config.Config, ac AuthClient, store SessionStore, logger logging.Logger, in io.Reader, out io.Writer) *App {
	a := &App{
		config: c,
		client: ac,
		store:  store,
		logger: logger,
		reader: bufio.NewReader(in),
		out:    out,
	}
	ac.OnRefresh(func(r *client.AuthResult) {
		a.schema = r.Schema
		a.save(context.Background(), r.Tokens)
	})
	return a
}

func (a *App) Run(ctx context.Context) {
	defer a.close()
	a.Root(ctx)
}

func (a *App) close() {
	if err := a.client.Close(); err != nil {
		a.logger.Warn(context.Background(), "error closing connection", "error", err)
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn(context.Background(), "error closing session file", "error", err)
	}
}

func (a *App) isLoggedIn() bool {
	return a.client.Tokens().JWT != ""
}

// restore loads the saved session into the client.
func (a *App) restore(ctx context.Context) {
	s, ok, err := a.store.Load(ctx)
	if err != nil {
		a.logger.Warn(ctx, "saved session is unreadable", "error", err)
		return
	}
	if !ok {
		return
	}
	a.userName = s.UserName
	a.schema = s.Schema
	a.client.SetTokens(client.Tokens{
		JWT:                   s.JWT,
		JWTExpiresAt:          s.JWTExpiresAt,
		RefreshToken:          s.RefreshToken,
		RefreshTokenExpiresAt: s.RefreshTokenExpiresAt,
	})
}

func (a *App) save(ctx context.Context, t client.Tokens) {
	err := a.store.Save(ctx, session.Session{
		UserName:              a.userName,
		Schema:                a.schema,
		JWT:                   t.JWT,
		JWTExpiresAt:          t.JWTExpiresAt,
		RefreshToken:          t.RefreshToken,
		RefreshTokenExpiresAt: t.RefreshTokenExpiresAt,
	})
	if err != nil {
		a.logger.Warn(ctx, "session not saved", "error", err)
	}
}

func (a *App) forget(ctx context.Context) {
	a.userName = ""
	a.schema = ""
	if err := a.store.Clear(ctx); err != nil {
		a.logger.Warn(ctx, "session not cleared", "error", err)
	}
}
