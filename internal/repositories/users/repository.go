package users

import (
	"context"

	"github.com/avankov/pixvault/internal/models"
)

// Repository is the storage contract for user accounts and their credit
// balance. Credit adjustments must be atomic at the storage layer; the
// guarded variant additionally refuses to take the balance negative.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	Delete(ctx context.Context, id string) error
	AdjustCredits(ctx context.Context, userID string, delta int64) (*models.User, error)
	AdjustCreditsGuarded(ctx context.Context, userID string, delta int64) (*models.User, error)
}
