package repository

import (
	"context"
	"time"
)

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=UserRepository --dir=. --output=./mocks --outpkg=mocks

// Role grants access levels.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is an account. Email is unique.
type User struct {
	ID           string
	Email        string
	Name         string
	PhoneNumber  string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// UserRepository stores accounts.
type UserRepository interface {
	// CreateUser returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, user User) error
	// GetByEmail returns ErrNotFound when no account has email.
	GetByEmail(ctx context.Context, email string) (User, error)
	// GetByID returns ErrNotFound when the account does not exist.
	GetByID(ctx context.Context, id string) (User, error)
	// UpdateUser stores email, name and phone number of an existing account. ErrNotFound when
	// absent, ErrAlreadyExists when the email belongs to another account.
	UpdateUser(ctx context.Context, user User) error
}
