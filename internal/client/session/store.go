// Package session keeps the CLI's current login (tokens and who they belong
// to) in a local SQLite database so it survives between runs.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/gqlauth/internal/client/migrations"
	"github.com/dmitrijs2005/gqlauth/internal/dbx"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

const (
	keyUserName              = "user_name"
	keySchema                = "schema"
	keyJWT                   = "jwt"
	keyJWTExpiresAt          = "jwt_expires_at"
	keyRefreshToken          = "refresh_token"
	keyRefreshTokenExpiresAt = "refresh_token_expires_at"
)

// Session is what the CLI remembers about the signed-in user. Expiry values
// are unix milliseconds, as the server reports them.
type Session struct {
	UserName              string
	Schema                string
	JWT                   string
	JWTExpiresAt          int64
	RefreshToken          string
	RefreshTokenExpiresAt int64
}

// Store reads and writes the Session.
type Store struct {
	db *sql.DB
}

// RunMigrations applies the embedded session schema.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) the SQLite database at dsn and migrates it.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// one connection keeps ":memory:" databases alive across calls
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the stored session atomically. Empty fields are not stored.
func (s *Store) Save(ctx context.Context, sess Session) error {
	values := map[string]string{
		keyUserName:              sess.UserName,
		keySchema:                sess.Schema,
		keyJWT:                   sess.JWT,
		keyJWTExpiresAt:          strconv.FormatInt(sess.JWTExpiresAt, 10),
		keyRefreshToken:          sess.RefreshToken,
		keyRefreshTokenExpiresAt: strconv.FormatInt(sess.RefreshTokenExpiresAt, 10),
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := NewSQLiteRepository(tx)
		if err := repo.Clear(ctx); err != nil {
			return err
		}
		for k, v := range values {
			if v == "" {
				continue
			}
			if err := repo.Set(ctx, k, []byte(v)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Load returns the stored session; ok is false when nobody is signed in.
func (s *Store) Load(ctx context.Context) (sess Session, ok bool, err error) {
	values, err := NewSQLiteRepository(s.db).List(ctx)
	if err != nil {
		return Session{}, false, err
	}

	jwt, found := values[keyJWT]
	if !found || len(jwt) == 0 {
		return Session{}, false, nil
	}

	sess = Session{
		UserName:     string(values[keyUserName]),
		Schema:       string(values[keySchema]),
		JWT:          string(jwt),
		RefreshToken: string(values[keyRefreshToken]),
	}
	if sess.JWTExpiresAt, err = parseInt(values, keyJWTExpiresAt); err != nil {
		return Session{}, false, err
	}
	if sess.RefreshTokenExpiresAt, err = parseInt(values, keyRefreshTokenExpiresAt); err != nil {
		return Session{}, false, err
	}

	return sess, true, nil
}

// Clear forgets the session.
func (s *Store) Clear(ctx context.Context) error {
	return NewSQLiteRepository(s.db).Clear(ctx)
}

func parseInt(values map[string][]byte, key string) (int64, error) {
	raw, ok := values[key]
	if !ok || len(raw) == 0 {
		return 0, nil
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("session %s: %w", key, err)
	}
	return n, nil
}
