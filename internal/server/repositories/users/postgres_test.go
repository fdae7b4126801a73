package users

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gqlauth/internal/common"
	"github.com/dmitrijs2005/gqlauth/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var userColumns = []string{"id", "username", "email", "full_name", "admin", "password_hash", "last_login_at", "created_at"}

const groupsQuery = `(?s)SELECT\s+g\.id,\s*g\.name,\s*g\.handle\s+FROM\s+user_groups\s+g\s+JOIN\s+users_groups`

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+users\s*\(username,\s*email,\s*full_name,\s*admin,\s*password_hash\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*RETURNING\s+id,\s*created_at\s*$`

	now := time.Now().UTC()
	mock.ExpectQuery(q).
		WithArgs("alice", "a@b.com", "Alice", false, "hash").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(42), now))

	u := &models.User{UserName: "alice", Email: "a@b.com", FullName: "Alice", PasswordHash: "hash"}
	got, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != 42 || got.UserName != "alice" {
		t.Fatalf("unexpected user: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_Duplicate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), &models.User{UserName: "alice"})
	if !errors.Is(err, models.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestGetUserByID_WithGroups(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`(?s)FROM\s+users\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(int64(42), "alice", "a@b.com", "Alice", true, "hash", now, now))
	mock.ExpectQuery(groupsQuery).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "handle"}).
			AddRow(int64(1), "Editors", "editors").
			AddRow(int64(2), "Admins", "admins"))

	u, err := repo.GetUserByID(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetUserByID error: %v", err)
	}
	if !u.Admin || u.Email != "a@b.com" || u.LastLoginAt == nil {
		t.Fatalf("unexpected user: %+v", u)
	}
	if got := u.GroupNames(); len(got) != 2 || got[0] != "Editors" || got[1] != "Admins" {
		t.Fatalf("unexpected groups: %v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetUserByLogin_UsernameOrEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`(?s)WHERE\s+lower\(username\)\s*=\s*lower\(\$1\)\s+OR\s+lower\(email\)\s*=\s*lower\(\$1\)`).
		WithArgs("a@b.com").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(int64(42), "alice", "a@b.com", "Alice", false, "hash", nil, now))
	mock.ExpectQuery(groupsQuery).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "handle"}))

	u, err := repo.GetUserByLogin(context.Background(), "a@b.com")
	if err != nil {
		t.Fatalf("GetUserByLogin error: %v", err)
	}
	if u.ID != 42 || u.LastLoginAt != nil || len(u.Groups) != 0 {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestGetUserByLogin_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+users`).WithArgs("nobody").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetUserByLogin(context.Background(), "nobody")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected common.ErrorNotFound, got %v", err)
	}
}

func TestGetUserByID_GroupsError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`FROM\s+users`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(int64(1), "bob", "", "", false, "", nil, now))
	mock.ExpectQuery(groupsQuery).WithArgs(int64(1)).WillReturnError(errors.New("boom"))

	if _, err := repo.GetUserByID(context.Background(), 1); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestUpdateLastLogin(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	at := time.Now().UTC()
	q := `(?s)UPDATE\s+users\s+SET\s+last_login_at\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$1`
	mock.ExpectExec(q).WithArgs(int64(42), at).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs(int64(7), at).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.UpdateLastLogin(context.Background(), 42, at); err != nil {
		t.Fatalf("UpdateLastLogin error: %v", err)
	}
	if err := repo.UpdateLastLogin(context.Background(), 7, at); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected common.ErrorNotFound, got %v", err)
	}
}
