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

const profileColumns = `id "id", user_id "user_id", subscription_plan "subscription_plan", tokens "tokens", last_token_grant_date "last_token_grant_date", created_at "created_at", updated_at "updated_at"`

// ProfileDatabaseAdapter implements domain.ProfileRepository using sqlx.
type ProfileDatabaseAdapter struct {
	db *sqlx.DB
}

// NewProfileDatabaseAdapter creates a new profile repository adapter.
func NewProfileDatabaseAdapter(db *sqlx.DB) domain.ProfileRepository {
	return &ProfileDatabaseAdapter{db: db}
}

func fromDomainProfile(p *domain.UserProfile) *models.UserProfile {
	m := &models.UserProfile{
		ID:               p.ID,
		UserID:           p.UserID,
		SubscriptionPlan: string(p.SubscriptionPlan),
		Tokens:           p.Tokens,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	if !p.LastTokenGrantDate.IsZero() {
		m.LastTokenGrantDate = sql.NullTime{Time: truncateToDate(p.LastTokenGrantDate), Valid: true}
	}
	return m
}

// CreateProfile implements domain.ProfileRepository.
func (a *ProfileDatabaseAdapter) CreateProfile(ctx context.Context, profile *domain.UserProfile) error {
	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	m := fromDomainProfile(profile)
	query := `INSERT INTO user_profiles (id, user_id, subscription_plan, tokens, last_token_grant_date, created_at, updated_at)
	          VALUES (:id, :user_id, :subscription_plan, :tokens, :last_token_grant_date, :created_at, :updated_at)`

	if _, err := GetExecutor(ctx, a.db).NamedExecContext(ctx, query, m); err != nil {
		return fmt.Errorf("failed to create user profile: %w", err)
	}
	return nil
}

// GetProfileByUserID implements domain.ProfileRepository.
func (a *ProfileDatabaseAdapter) GetProfileByUserID(ctx context.Context, userID string) (*domain.UserProfile, error) {
	var m models.UserProfile
	query := `SELECT ` + profileColumns + ` FROM user_profiles WHERE user_id = :user_id`

	stmt, err := GetExecutor(ctx, a.db).PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare query for GetProfileByUserID: %w", err)
	}
	defer stmt.Close()

	if err := stmt.GetContext(ctx, &m, map[string]interface{}{"user_id": userID}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile for user %s: %w", userID, err)
	}
	return toDomainProfile(&m), nil
}

// UpdateProfile implements domain.ProfileRepository.
func (a *ProfileDatabaseAdapter) UpdateProfile(ctx context.Context, profile *domain.UserProfile) error {
	profile.UpdatedAt = time.Now()
	m := fromDomainProfile(profile)

	query := `UPDATE user_profiles SET
				subscription_plan = :subscription_plan,
				tokens = :tokens,
				last_token_grant_date = :last_token_grant_date,
				updated_at = :updated_at
			WHERE id = :id`

	result, err := GetExecutor(ctx, a.db).NamedExecContext(ctx, query, m)
	if err != nil {
		return fmt.Errorf("failed to update profile %s: %w", profile.ID, err)
	}
	// Oracle reports rows affected reliably for UPDATE; guard anyway.
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("profile %s not found for update", profile.ID)
	}
	return nil
}

// ListProfiles implements domain.ProfileRepository.
func (a *ProfileDatabaseAdapter) ListProfiles(ctx context.Context) ([]domain.UserProfile, error) {
	var rows []models.UserProfile
	query := `SELECT ` + profileColumns + ` FROM user_profiles ORDER BY created_at`

	if err := GetExecutor(ctx, a.db).SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	profiles := make([]domain.UserProfile, 0, len(rows))
	for i := range rows {
		profiles = append(profiles, *toDomainProfile(&rows[i]))
	}
	return profiles, nil
}
