package images

import (
	"context"

	"github.com/avankov/pixvault/internal/models"
)

// ListOptions carries offset pagination parameters. The sort order is
// fixed: most recently updated first.
type ListOptions struct {
	Limit  int
	Offset int
}

// Repository is the storage contract for catalog entries. List and Count
// take an optional public-id set: nil means unfiltered, a non-nil empty
// set matches nothing (never "no filter").
type Repository interface {
	Create(ctx context.Context, image *models.Image) (*models.Image, error)
	GetByID(ctx context.Context, id string) (*models.Image, error)
	Update(ctx context.Context, image *models.Image) (*models.Image, error)
	Delete(ctx context.Context, id string) error
	ListByAuthor(ctx context.Context, authorID string, opts ListOptions) ([]*models.Image, error)
	CountByAuthor(ctx context.Context, authorID string) (int64, error)
	List(ctx context.Context, publicIDs []string, opts ListOptions) ([]*models.Image, error)
	Count(ctx context.Context, publicIDs []string) (int64, error)
	CountAll(ctx context.Context) (int64, error)
}
