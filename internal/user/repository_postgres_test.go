package user

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

var userColumns = []string{"id", "email", "password", "name", "created_at", "updated_at", "last_login"}

func TestPostgresRepository_GetByEmailNormalizes(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE email = $1")).
		WithArgs("a@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(4, "a@example.com", "hash", "A", now, now, nil))

	repo := NewPostgresRepository(db)
	u, err := repo.GetByEmail(context.Background(), "  A@Example.com ")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if u.ID != 4 || u.LastLogin != nil {
		t.Fatalf("unexpected user: %+v", u)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPostgresRepository_GetByIDNotFound(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).WithArgs(9).WillReturnError(sql.ErrNoRows)

	if _, err := NewPostgresRepository(db).GetByID(context.Background(), 9); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresRepository_CreateDuplicateEmail(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("dup@example.com", "hash", "Dup", now, now).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := NewPostgresRepository(db).Create(context.Background(), User{Email: "dup@example.com", Password: "hash", Name: "Dup", CreatedAt: now, UpdatedAt: now})
	if err != ErrEmailExists {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}

func TestPostgresRepository_UpdateAndDelete(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users")).
		WithArgs("B", "", now, sql.NullTime{Time: now, Valid: true}, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(2, "b@example.com", "hash", "B", now, now, now))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users")).
		WithArgs(2).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewPostgresRepository(db)
	u, err := repo.Update(context.Background(), 2, User{Name: "B", UpdatedAt: now, LastLogin: &now})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if u.LastLogin == nil || !u.LastLogin.Equal(now) {
		t.Fatalf("lastLogin not scanned: %+v", u)
	}
	if err := repo.Delete(context.Background(), 2); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound when nothing deleted, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
