package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shestoi/railbook/internal/repository"
)

const uniqueViolation = "23505"

// UserRepository implements repository.UserRepository on the users table.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) CreateUser(ctx context.Context, user repository.User) error {
	var (
		userID uuid.UUID
		err    error
	)
	if user.ID == "" {
		userID = uuid.New()
	} else {
		userID, err = uuid.Parse(user.ID)
		if err != nil {
			return fmt.Errorf("parse user id: %w", err)
		}
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO users (id, email, name, phone_number, password_hash, role, created_at)
		 VALUES ($1, lower($2), $3, $4, $5, $6, $7)`,
		userID, user.Email, user.Name, user.PhoneNumber, user.PasswordHash, string(user.Role), user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (repository.User, error) {
	var (
		u    repository.User
		id   uuid.UUID
		role string
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, name, phone_number, password_hash, role, created_at FROM users WHERE `+where,
		arg).Scan(&id, &u.Email, &u.Name, &u.PhoneNumber, &u.PasswordHash, &role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.User{}, repository.ErrNotFound
		}
		return repository.User{}, fmt.Errorf("select user: %w", err)
	}
	u.ID = id.String()
	u.Role = repository.Role(role)
	return u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (repository.User, error) {
	return r.getOne(ctx, "email = lower($1)", email)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (repository.User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return repository.User{}, repository.ErrNotFound
	}
	return r.getOne(ctx, "id = $1", userID)
}

func (r *UserRepository) UpdateUser(ctx context.Context, user repository.User) error {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return repository.ErrNotFound
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET email = lower($2), name = $3, phone_number = $4 WHERE id = $1`,
		userID, user.Email, user.Name, user.PhoneNumber)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrAlreadyExists
		}
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
