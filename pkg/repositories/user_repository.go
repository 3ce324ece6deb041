package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nutridive/nutridive/pkg/database"
	"github.com/nutridive/nutridive/pkg/models"
)

// UserRepository stores allergen profiles keyed by token subject.
type UserRepository interface {
	// GetByID returns the user, or nil if no profile exists yet.
	GetByID(ctx context.Context, id string) (*models.User, error)
	// UpsertAllergens replaces the user's allergen list, creating the profile if needed.
	UpsertAllergens(ctx context.Context, id, email string, allergens []string) (*models.User, error)
}

type userRepository struct {
	db *database.DB
}

var _ UserRepository = (*userRepository)(nil)

// NewUserRepository creates a PostgreSQL-backed UserRepository.
func NewUserRepository(db *database.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, email, allergens, created_at, updated_at
		FROM users
		WHERE id = $1`

	var user models.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.Allergens,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) UpsertAllergens(ctx context.Context, id, email string, allergens []string) (*models.User, error) {
	if allergens == nil {
		allergens = []string{}
	}
	now := time.Now().UTC()

	query := `
		INSERT INTO users (id, email, allergens, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (id) DO UPDATE
		SET allergens = EXCLUDED.allergens,
		    email = CASE WHEN EXCLUDED.email = '' THEN users.email ELSE EXCLUDED.email END,
		    updated_at = EXCLUDED.updated_at
		RETURNING id, email, allergens, created_at, updated_at`

	var user models.User
	err := r.db.QueryRow(ctx, query, id, email, allergens, now).Scan(
		&user.ID,
		&user.Email,
		&user.Allergens,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user allergens: %w", err)
	}
	return &user, nil
}
