package services

import (
	"context"

	"github.com/avankov/pixvault/internal/models"
)

// UserServiceProvider is the user-directory surface the HTTP layer
// consumes. *UserService implements it.
type UserServiceProvider interface {
	CreateUser(ctx context.Context, params CreateUserParams) (*models.User, error)
	GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error)
	UpdateUser(ctx context.Context, externalID string, patch UpdateUserParams) (*models.User, error)
	DeleteUser(ctx context.Context, externalID string) (*models.User, error)
	AdjustCredits(ctx context.Context, userID string, delta int64) (*models.User, error)
}

// ImageServiceProvider is the catalog surface the HTTP layer consumes.
// *ImageService implements it.
type ImageServiceProvider interface {
	CreateImage(ctx context.Context, params CreateImageParams, authorID string, path string) (*models.Image, error)
	GetImageByID(ctx context.Context, id string) (*models.Image, error)
	UpdateImage(ctx context.Context, id string, patch UpdateImageParams, callerID string, path string) (*models.Image, error)
	DeleteImage(ctx context.Context, id string, callerID string) error
	ListUserImages(ctx context.Context, userID string, page int) (*UserImagesPage, error)
	ListAllImages(ctx context.Context, page int, query string) (*GalleryPage, error)
}
