package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

type PostgresRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

const uniqueViolation = "23505"

const (
	createUsersTable = `
		CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			last_login TIMESTAMPTZ
		)
	`
	getUserByIDQuery = `
		SELECT id, email, password, name, created_at, updated_at, last_login
		FROM users
		WHERE id = $1
	`
	getUserByEmailQuery = `
		SELECT id, email, password, name, created_at, updated_at, last_login
		FROM users
		WHERE email = $1
	`
	insertUserQuery = `
		INSERT INTO users (email, password, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	updateUserQuery = `
		UPDATE users
		SET name = $1,
			password = COALESCE(NULLIF($2, ''), password),
			updated_at = $3,
			last_login = COALESCE($4, last_login)
		WHERE id = $5
	`
	deleteUserQuery = `DELETE FROM users WHERE id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, createUsersTable)
	return err
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (User, error) {
	return r.getOne(ctx, getUserByIDQuery, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.getOne(ctx, getUserByEmailQuery, normalizeEmail(email))
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user User) (User, error) {
	user.Email = normalizeEmail(user.Email)
	var id int
	err := r.db.QueryRowContext(ctx,
		insertUserQuery,
		user.Email,
		user.Password,
		user.Name,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return User{}, ErrEmailExists
		}
		return User{}, err
	}

	user.ID = id
	return user, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int, userUpdate User) (User, error) {
	var lastLogin sql.NullTime
	if userUpdate.LastLogin != nil {
		lastLogin = sql.NullTime{Time: *userUpdate.LastLogin, Valid: true}
	}
	result, err := r.db.ExecContext(ctx,
		updateUserQuery,
		userUpdate.Name,
		userUpdate.Password,
		userUpdate.UpdatedAt,
		lastLogin,
		id,
	)
	if err != nil {
		return User{}, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return User{}, err
	}
	if affected == 0 {
		return User{}, ErrNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, deleteUserQuery, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

func scanUser(scanner rowScanner) (User, error) {
	user := User{}
	var lastLogin sql.NullTime

	if err := scanner.Scan(
		&user.ID,
		&user.Email,
		&user.Password,
		&user.Name,
		&user.CreatedAt,
		&user.UpdatedAt,
		&lastLogin,
	); err != nil {
		return User{}, err
	}

	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}
	return user, nil
}
