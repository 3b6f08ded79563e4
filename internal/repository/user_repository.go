package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quizhub/internal/domain"
	"quizhub/internal/repository/models"

	"github.com/jmoiron/sqlx"
)

const userColumns = `id "id", email "email", username "username", password_hash "password_hash", created_at "created_at", updated_at "updated_at"`

// sqlxUserRepository implements domain.UserRepository using sqlx.
type sqlxUserRepository struct {
	db *sqlx.DB
}

// NewSQLXUserRepository creates a new instance of sqlxUserRepository.
func NewSQLXUserRepository(db *sqlx.DB) domain.UserRepository {
	return &sqlxUserRepository{db: db}
}

// CreateUser inserts a new user into the database.
func (r *sqlxUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	m := models.User{
		ID:           user.ID,
		Email:        user.Email,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
	query := `INSERT INTO users (id, email, username, password_hash, created_at, updated_at)
	          VALUES (:id, :email, :username, :password_hash, :created_at, :updated_at)`

	if _, err := GetExecutor(ctx, r.db).NamedExecContext(ctx, query, &m); err != nil {
		// Duplicate email/username surfaces as a unique constraint
		// violation (ORA-00001); the service maps it to a 409.
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by their internal ID.
func (r *sqlxUserRepository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	var m models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = :id`

	stmt, err := GetExecutor(ctx, r.db).PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare query for GetUserByID: %w", err)
	}
	defer stmt.Close()

	if err := stmt.GetContext(ctx, &m, map[string]interface{}{"id": id}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return toDomainUser(&m), nil
}

// GetUserByEmail retrieves a user by their email address.
func (r *sqlxUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var m models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE email = :email`

	stmt, err := GetExecutor(ctx, r.db).PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare query for GetUserByEmail: %w", err)
	}
	defer stmt.Close()

	if err := stmt.GetContext(ctx, &m, map[string]interface{}{"email": email}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return toDomainUser(&m), nil
}

// GetUserByUsername retrieves a user by their username.
func (r *sqlxUserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var m models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE username = :username`

	stmt, err := GetExecutor(ctx, r.db).PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare query for GetUserByUsername: %w", err)
	}
	defer stmt.Close()

	if err := stmt.GetContext(ctx, &m, map[string]interface{}{"username": username}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return toDomainUser(&m), nil
}
