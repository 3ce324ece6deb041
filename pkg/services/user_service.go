package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nutridive/nutridive/pkg/apperrors"
	"github.com/nutridive/nutridive/pkg/models"
	"github.com/nutridive/nutridive/pkg/nutrition"
	"github.com/nutridive/nutridive/pkg/repositories"
)

// UserService manages allergen profiles.
type UserService interface {
	// GetProfile returns the user's profile. A user without a stored profile
	// gets an empty allergen list.
	GetProfile(ctx context.Context, userID, email string) (*models.User, error)

	// UpdateAllergens replaces the user's allergen list.
	UpdateAllergens(ctx context.Context, userID, email string, allergens []string) (*models.User, error)

	// ResolveAllergens picks the allergen list for a request: an explicit
	// list wins, then the signed-in user's stored list, else none.
	ResolveAllergens(ctx context.Context, userID string, explicit []string) ([]string, error)
}

type userService struct {
	userRepo repositories.UserRepository
	logger   *zap.Logger
}

var _ UserService = (*userService)(nil)

// NewUserService creates a new user service with dependencies.
func NewUserService(userRepo repositories.UserRepository, logger *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		logger:   logger.Named("users"),
	}
}

func (s *userService) GetProfile(ctx context.Context, userID, email string) (*models.User, error) {
	if userID == "" {
		return nil, apperrors.ErrUnauthorized
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if user == nil {
		return &models.User{ID: userID, Email: email, Allergens: []string{}}, nil
	}
	return user, nil
}

func (s *userService) UpdateAllergens(ctx context.Context, userID, email string, allergens []string) (*models.User, error) {
	if userID == "" {
		return nil, apperrors.ErrUnauthorized
	}

	cleaned, err := normalizeAllergens(allergens)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.UpsertAllergens(ctx, userID, email, cleaned)
	if err != nil {
		return nil, fmt.Errorf("failed to update allergens: %w", err)
	}

	s.logger.Info("Allergens updated", zap.String("user_id", userID), zap.Strings("allergens", cleaned))
	return user, nil
}

func (s *userService) ResolveAllergens(ctx context.Context, userID string, explicit []string) ([]string, error) {
	if len(explicit) > 0 {
		return explicit, nil
	}
	if userID == "" {
		return nil, nil
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if user == nil || len(user.Allergens) == 0 {
		return nil, nil
	}
	return user.Allergens, nil
}

// normalizeAllergens lowercases, trims and de-duplicates the list, rejecting
// categories the matcher does not recognize.
func normalizeAllergens(allergens []string) ([]string, error) {
	cleaned := make([]string, 0, len(allergens))
	seen := make(map[string]bool, len(allergens))
	for _, a := range allergens {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" || seen[a] {
			continue
		}
		if !nutrition.IsKnownAllergen(a) {
			return nil, apperrors.Validationf("unknown allergen %q, expected one of %s", a, strings.Join(nutrition.KnownAllergens(), ", "))
		}
		seen[a] = true
		cleaned = append(cleaned, a)
	}
	return cleaned, nil
}
