package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/avankov/pixvault/internal/assetindex"
	"github.com/avankov/pixvault/internal/common"
	"github.com/avankov/pixvault/internal/logging"
	"github.com/avankov/pixvault/internal/models"
	"github.com/avankov/pixvault/internal/notifier"
	"github.com/avankov/pixvault/internal/repositories/images"
	"github.com/avankov/pixvault/internal/repositories/repomanager"
)

// CreateImageParams is the payload for recording a completed
// transformation in the catalog.
type CreateImageParams struct {
	Title              string
	PublicID           string
	TransformationType string
	Width              int
	Height             int
	Config             json.RawMessage
	SecureURL          string
	TransformationURL  string
	AspectRatio        string
	Prompt             string
	Color              string
}

// UpdateImageParams is a partial update of a catalog entry; nil fields are
// left as-is. Authorship is never reassigned.
type UpdateImageParams struct {
	Title              *string
	PublicID           *string
	TransformationType *string
	Width              *int
	Height             *int
	Config             json.RawMessage
	SecureURL          *string
	TransformationURL  *string
	AspectRatio        *string
	Prompt             *string
	Color              *string
}

// UserImagesPage is one page of a user's own catalog entries.
type UserImagesPage struct {
	Data       []*models.Image `json:"data"`
	TotalPages int             `json:"totalPages"`
}

// GalleryPage is one page of the community gallery. SavedImages is the
// unfiltered catalog total, independent of any search narrowing.
type GalleryPage struct {
	Data        []*models.Image `json:"data"`
	TotalPages  int             `json:"totalPages"`
	SavedImages int64           `json:"savedImages"`
}

// ImageService implements the authorized image catalog and its gallery
// listings.
type ImageService struct {
	db           *sql.DB
	repos        repomanager.RepositoryManager
	index        assetindex.Searcher
	notifier     notifier.Notifier
	logger       logging.Logger
	folder       string
	pageSize     int
	requireOwner bool
}

// NewImageService constructs an ImageService. folder scopes remote index
// searches, pageSize fixes the page length of both listings, and
// requireOwner controls whether deletion checks authorship.
func NewImageService(db *sql.DB, repos repomanager.RepositoryManager, index assetindex.Searcher, n notifier.Notifier, logger logging.Logger, folder string, pageSize int, requireOwner bool) *ImageService {
	if pageSize < 1 {
		pageSize = 1
	}
	return &ImageService{
		db:           db,
		repos:        repos,
		index:        index,
		notifier:     n,
		logger:       logger,
		folder:       folder,
		pageSize:     pageSize,
		requireOwner: requireOwner,
	}
}

func validateImage(img *models.Image) error {
	if img.Title == "" {
		return fmt.Errorf("%w: title is required", common.ErrInvalidInput)
	}
	if img.PublicID == "" {
		return fmt.Errorf("%w: public id is required", common.ErrInvalidInput)
	}
	if img.TransformationType == "" {
		return fmt.Errorf("%w: transformation type is required", common.ErrInvalidInput)
	}
	if img.Width <= 0 || img.Height <= 0 {
		return fmt.Errorf("%w: width and height must be positive", common.ErrInvalidInput)
	}
	if img.SecureURL == "" {
		return fmt.Errorf("%w: secure url is required", common.ErrInvalidInput)
	}
	return nil
}

// resolveAuthor accepts either an internal account id or an external
// identity id and returns the account.
func (s *ImageService) resolveAuthor(ctx context.Context, authorID string) (*models.User, error) {
	repo := s.repos.Users(s.db)

	user, err := repo.GetByID(ctx, authorID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}
	return repo.GetByExternalID(ctx, authorID)
}

// CreateImage records a new transformation under the resolved author and
// invalidates the changed path. The author may be identified by internal
// or external id; an unresolvable author is common.ErrNotFound.
func (s *ImageService) CreateImage(ctx context.Context, params CreateImageParams, authorID string, path string) (*models.Image, error) {
	if authorID == "" {
		return nil, fmt.Errorf("%w: author id is required", common.ErrInvalidInput)
	}

	author, err := s.resolveAuthor(ctx, authorID)
	if err != nil {
		return nil, err
	}

	img := &models.Image{
		ID:                 uuid.New().String(),
		Title:              params.Title,
		PublicID:           params.PublicID,
		TransformationType: params.TransformationType,
		Width:              params.Width,
		Height:             params.Height,
		Config:             params.Config,
		SecureURL:          params.SecureURL,
		TransformationURL:  params.TransformationURL,
		AspectRatio:        params.AspectRatio,
		Prompt:             params.Prompt,
		Color:              params.Color,
		AuthorID:           author.ID,
	}

	if err := validateImage(img); err != nil {
		return nil, err
	}

	created, err := s.repos.Images(s.db).Create(ctx, img)
	if err != nil {
		s.logger.Error(ctx, "creating image", "public_id", img.PublicID, "error", err)
		return nil, err
	}
	created.Author = &models.AuthorSummary{
		ID:         author.ID,
		ExternalID: author.ExternalID,
		FirstName:  author.FirstName,
		LastName:   author.LastName,
	}

	s.notifier.Invalidate(ctx, path)
	return created, nil
}

// GetImageByID returns a single catalog entry with its author summary
// populated when the author account still exists.
func (s *ImageService) GetImageByID(ctx context.Context, id string) (*models.Image, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: image id is required", common.ErrInvalidInput)
	}
	return s.repos.Images(s.db).GetByID(ctx, id)
}

// UpdateImage applies a partial update to an entry owned by the caller.
// Existence is checked before ownership, so a request against a missing
// entry is common.ErrNotFound and a request against someone else's entry
// is common.ErrUnauthorized.
func (s *ImageService) UpdateImage(ctx context.Context, id string, patch UpdateImageParams, callerID string, path string) (*models.Image, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: image id is required", common.ErrInvalidInput)
	}

	repo := s.repos.Images(s.db)

	img, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if img.AuthorID == "" || img.AuthorID != callerID {
		return nil, fmt.Errorf("%w: image %s is not owned by the caller", common.ErrUnauthorized, id)
	}

	if patch.Title != nil {
		img.Title = *patch.Title
	}
	if patch.PublicID != nil {
		img.PublicID = *patch.PublicID
	}
	if patch.TransformationType != nil {
		img.TransformationType = *patch.TransformationType
	}
	if patch.Width != nil {
		img.Width = *patch.Width
	}
	if patch.Height != nil {
		img.Height = *patch.Height
	}
	if patch.Config != nil {
		img.Config = patch.Config
	}
	if patch.SecureURL != nil {
		img.SecureURL = *patch.SecureURL
	}
	if patch.TransformationURL != nil {
		img.TransformationURL = *patch.TransformationURL
	}
	if patch.AspectRatio != nil {
		img.AspectRatio = *patch.AspectRatio
	}
	if patch.Prompt != nil {
		img.Prompt = *patch.Prompt
	}
	if patch.Color != nil {
		img.Color = *patch.Color
	}

	if err := validateImage(img); err != nil {
		return nil, err
	}

	author := img.Author
	updated, err := repo.Update(ctx, img)
	if err != nil {
		s.logger.Error(ctx, "updating image", "image_id", id, "error", err)
		return nil, err
	}
	updated.Author = author

	s.notifier.Invalidate(ctx, path)
	return updated, nil
}

// DeleteImage removes an entry from the catalog. When ownership checks are
// enabled the entry must belong to the caller. The root listing is
// invalidated whether or not the removal succeeded.
func (s *ImageService) DeleteImage(ctx context.Context, id string, callerID string) error {
	if id == "" {
		return fmt.Errorf("%w: image id is required", common.ErrInvalidInput)
	}

	defer s.notifier.Invalidate(ctx, "/")

	repo := s.repos.Images(s.db)

	if s.requireOwner {
		img, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if img.AuthorID == "" || img.AuthorID != callerID {
			return fmt.Errorf("%w: image %s is not owned by the caller", common.ErrUnauthorized, id)
		}
	}

	if err := repo.Delete(ctx, id); err != nil {
		s.logger.Error(ctx, "deleting image", "image_id", id, "error", err)
		return err
	}
	return nil
}

// ListUserImages returns one page of the caller's own entries, newest
// update first. Pages are 1-indexed; anything below 1 is treated as the
// first page.
func (s *ImageService) ListUserImages(ctx context.Context, userID string, page int) (*UserImagesPage, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", common.ErrInvalidInput)
	}
	if page < 1 {
		page = 1
	}

	repo := s.repos.Images(s.db)

	data, err := repo.ListByAuthor(ctx, userID, images.ListOptions{
		Limit:  s.pageSize,
		Offset: (page - 1) * s.pageSize,
	})
	if err != nil {
		return nil, err
	}
	total, err := repo.CountByAuthor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = []*models.Image{}
	}

	return &UserImagesPage{Data: data, TotalPages: s.pages(total)}, nil
}

// ListAllImages returns one page of the community gallery. A non-empty
// query narrows the page to entries whose public id the remote asset
// index reports for that query; an empty query lists the whole catalog
// without contacting the index. SavedImages always reflects the full
// catalog size.
func (s *ImageService) ListAllImages(ctx context.Context, page int, query string) (*GalleryPage, error) {
	if page < 1 {
		page = 1
	}

	var publicIDs []string
	if query != "" {
		expression := fmt.Sprintf("folder=%s AND %s", s.folder, query)
		ids, err := s.index.Search(ctx, expression)
		if err != nil {
			s.logger.Error(ctx, "searching asset index", "error", err)
			return nil, err
		}
		if ids == nil {
			ids = []string{}
		}
		publicIDs = ids
	}

	repo := s.repos.Images(s.db)

	data, err := repo.List(ctx, publicIDs, images.ListOptions{
		Limit:  s.pageSize,
		Offset: (page - 1) * s.pageSize,
	})
	if err != nil {
		return nil, err
	}
	total, err := repo.Count(ctx, publicIDs)
	if err != nil {
		return nil, err
	}
	saved, err := repo.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = []*models.Image{}
	}

	return &GalleryPage{Data: data, TotalPages: s.pages(total), SavedImages: saved}, nil
}

func (s *ImageService) pages(total int64) int {
	return int((total + int64(s.pageSize) - 1) / int64(s.pageSize))
}
