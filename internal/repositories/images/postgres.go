// Package images provides the PostgreSQL-backed repository for catalog
// entries, including the author-joined reads and offset pagination.
package images

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/avankov/pixvault/internal/common"
	"github.com/avankov/pixvault/internal/dbx"
	"github.com/avankov/pixvault/internal/models"
)

const imageColumns = `i.id, i.title, i.public_id, i.transformation_type, i.width, i.height, i.config,
	i.secure_url, i.transformation_url, i.aspect_ratio, i.prompt, i.color, i.author_id, i.created_at, i.updated_at`

const authorColumns = `u.id, u.external_id, u.first_name, u.last_name`

// PostgresRepository implements catalog storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanImage reads the image columns plus the LEFT JOINed author summary.
// A deleted owner leaves the author columns NULL; the entry survives with
// Author == nil (orphaned authorship is tolerated).
func scanImage(row rowScanner) (*models.Image, error) {
	img := &models.Image{}
	var authorID, authorExternalID, authorFirst, authorLast sql.NullString
	var imgAuthorID sql.NullString

	err := row.Scan(
		&img.ID, &img.Title, &img.PublicID, &img.TransformationType,
		&img.Width, &img.Height, &img.Config, &img.SecureURL,
		&img.TransformationURL, &img.AspectRatio, &img.Prompt, &img.Color,
		&imgAuthorID, &img.CreatedAt, &img.UpdatedAt,
		&authorID, &authorExternalID, &authorFirst, &authorLast,
	)
	if err != nil {
		return nil, err
	}

	img.AuthorID = imgAuthorID.String
	if authorID.Valid {
		img.Author = &models.AuthorSummary{
			ID:         authorID.String,
			ExternalID: authorExternalID.String,
			FirstName:  authorFirst.String,
			LastName:   authorLast.String,
		}
	}
	return img, nil
}

// Create inserts a new entry. The author id must already be resolved to an
// existing user by the caller; the FK makes an orphaned-author insert fail.
func (r *PostgresRepository) Create(ctx context.Context, image *models.Image) (*models.Image, error) {
	query := `
		INSERT INTO images (id, title, public_id, transformation_type, width, height, config,
			secure_url, transformation_url, aspect_ratio, prompt, color, author_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`

	config := image.Config
	if len(config) == 0 {
		config = []byte(`{}`)
	}

	err := r.db.QueryRowContext(ctx, query,
		image.ID, image.Title, image.PublicID, image.TransformationType,
		image.Width, image.Height, []byte(config), image.SecureURL,
		image.TransformationURL, image.AspectRatio, image.Prompt, image.Color,
		image.AuthorID,
	).Scan(&image.CreatedAt, &image.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return image, nil
}

// GetByID returns an entry with its author summary denormalized.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Image, error) {
	query := `
		SELECT ` + imageColumns + `, ` + authorColumns + `
		FROM images i
		LEFT JOIN users u ON u.id = i.author_id
		WHERE i.id = $1`

	img, err := scanImage(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return img, nil
}

// Update persists the mutable fields of an existing entry. The author
// reference is deliberately absent from the SET list: ownership is fixed
// at creation.
func (r *PostgresRepository) Update(ctx context.Context, image *models.Image) (*models.Image, error) {
	query := `
		UPDATE images
		SET title = $1, public_id = $2, transformation_type = $3, width = $4, height = $5,
			config = $6, secure_url = $7, transformation_url = $8, aspect_ratio = $9,
			prompt = $10, color = $11, updated_at = now()
		WHERE id = $12
		RETURNING created_at, updated_at`

	config := image.Config
	if len(config) == 0 {
		config = []byte(`{}`)
	}

	err := r.db.QueryRowContext(ctx, query,
		image.Title, image.PublicID, image.TransformationType, image.Width, image.Height,
		[]byte(config), image.SecureURL, image.TransformationURL, image.AspectRatio,
		image.Prompt, image.Color, image.ID,
	).Scan(&image.CreatedAt, &image.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return image, nil
}

// Delete removes an entry by id. Deleting an absent row is not an error.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM images WHERE id = $1`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListByAuthor returns one page of the author's entries, newest update
// first. The external asset index is not involved: the local authorship
// column is authoritative for per-user listing.
func (r *PostgresRepository) ListByAuthor(ctx context.Context, authorID string, opts ListOptions) ([]*models.Image, error) {
	query := `
		SELECT ` + imageColumns + `, ` + authorColumns + `
		FROM images i
		LEFT JOIN users u ON u.id = i.author_id
		WHERE i.author_id = $1
		ORDER BY i.updated_at DESC
		LIMIT $2 OFFSET $3`

	return r.queryImages(ctx, query, authorID, opts.Limit, opts.Offset)
}

// CountByAuthor returns the author's total entry count.
func (r *PostgresRepository) CountByAuthor(ctx context.Context, authorID string) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM images WHERE author_id = $1`, authorID)
}

// List returns one page of the global catalog, optionally restricted to
// the given public ids. A non-nil empty set short-circuits to no rows.
func (r *PostgresRepository) List(ctx context.Context, publicIDs []string, opts ListOptions) ([]*models.Image, error) {
	if publicIDs != nil && len(publicIDs) == 0 {
		return nil, nil
	}

	where, args := publicIDFilter(publicIDs, 3)
	query := fmt.Sprintf(`
		SELECT `+imageColumns+`, `+authorColumns+`
		FROM images i
		LEFT JOIN users u ON u.id = i.author_id
		%s
		ORDER BY i.updated_at DESC
		LIMIT $1 OFFSET $2`, where)

	return r.queryImages(ctx, query, append([]any{opts.Limit, opts.Offset}, args...)...)
}

// Count returns how many entries match the optional public-id set.
func (r *PostgresRepository) Count(ctx context.Context, publicIDs []string) (int64, error) {
	if publicIDs != nil && len(publicIDs) == 0 {
		return 0, nil
	}

	where, args := publicIDFilter(publicIDs, 1)
	return r.count(ctx, `SELECT COUNT(*) FROM images i `+where, args...)
}

// CountAll returns the unfiltered catalog size.
func (r *PostgresRepository) CountAll(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM images`)
}

// publicIDFilter renders "WHERE i.public_id IN ($n, $n+1, ...)" starting
// at placeholder index firstArg, or an empty clause for a nil set.
func publicIDFilter(publicIDs []string, firstArg int) (string, []any) {
	if publicIDs == nil {
		return "", nil
	}
	placeholders := make([]string, len(publicIDs))
	args := make([]any, len(publicIDs))
	for i, id := range publicIDs {
		placeholders[i] = fmt.Sprintf("$%d", firstArg+i)
		args[i] = id
	}
	return "WHERE i.public_id IN (" + strings.Join(placeholders, ", ") + ")", args
}

func (r *PostgresRepository) queryImages(ctx context.Context, query string, args ...any) ([]*models.Image, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Image
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, img)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) count(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
