package accesstokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gqlauth/internal/common"
	"github.com/dmitrijs2005/gqlauth/internal/dbx"
	"github.com/dmitrijs2005/gqlauth/internal/server/models"
	"github.com/google/uuid"
)

// PostgresRepository stores tokens in the gql_tokens table over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Put(ctx context.Context, token *models.AccessToken) (*models.AccessToken, error) {
	if err := validate(token); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO gql_tokens (id, name, access_token, enabled, schema_id, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (access_token) DO NOTHING
		RETURNING created_at
	`

	t := *token
	t.ID = uuid.NewString()

	err := r.db.QueryRowContext(ctx, query,
		t.ID, t.Name, t.AccessToken, t.Enabled, nullSchema(t.SchemaID), t.ExpiresAt).Scan(&t.CreatedAt)
	if err != nil {
		// No row back means the conflict clause fired.
		if errors.Is(err, sql.ErrNoRows) || dbx.IsUniqueViolation(err) {
			return nil, models.NewDuplicateError("accessToken")
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	return &t, nil
}

func (r *PostgresRepository) GetByAccessToken(ctx context.Context, value string) (*models.AccessToken, error) {
	query := `
		SELECT id, name, access_token, enabled, schema_id, expires_at, created_at
		FROM gql_tokens
		WHERE access_token = $1
	`

	t, err := scanToken(r.db.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) DeleteByID(ctx context.Context, id string) error {
	query := `
		DELETE FROM gql_tokens
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time, namePrefix string) (int64, error) {
	query := `
		DELETE FROM gql_tokens
		WHERE expires_at <= $1 AND name LIKE $2
	`

	res, err := r.db.ExecContext(ctx, query, now, escapeLike(namePrefix)+"%")
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}

func (r *PostgresRepository) FindByNamePattern(ctx context.Context, fragment string) ([]*models.AccessToken, error) {
	query := `
		SELECT id, name, access_token, enabled, schema_id, expires_at, created_at
		FROM gql_tokens
		WHERE name LIKE $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, "%"+escapeLike(fragment)+"%")
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.AccessToken
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanToken maps a NULL schema_id (its schema was deleted) to SchemaID 0.
func scanToken(s scanner) (*models.AccessToken, error) {
	t := &models.AccessToken{}
	var schemaID sql.NullInt64
	var expires sql.NullTime
	if err := s.Scan(&t.ID, &t.Name, &t.AccessToken, &t.Enabled, &schemaID, &expires, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.SchemaID = schemaID.Int64
	if expires.Valid {
		e := expires.Time
		t.ExpiresAt = &e
	}
	return t, nil
}

func nullSchema(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
