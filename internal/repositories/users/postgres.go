// Package users provides the PostgreSQL-backed repository for user
// accounts, including the atomic credit-balance operations.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/avankov/pixvault/internal/common"
	"github.com/avankov/pixvault/internal/dbx"
	"github.com/avankov/pixvault/internal/models"
)

const userColumns = `id, external_id, email, username, photo, first_name, last_name, plan_id, credit_balance, created_at, updated_at`

// pgUniqueViolation is the PostgreSQL error code for unique_violation.
const pgUniqueViolation = "23505"

// PostgresRepository implements user storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.ExternalID, &u.Email, &u.Username, &u.Photo,
		&u.FirstName, &u.LastName, &u.PlanID, &u.CreditBalance,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Create inserts a new user. A duplicate external id, email, or username
// hits one of the unique indexes and is surfaced as common.ErrConflict.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (id, external_id, email, username, photo, first_name, last_name, plan_id, credit_balance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + userColumns

	row := r.db.QueryRowContext(ctx, query,
		user.ID, user.ExternalID, user.Email, user.Username, user.Photo,
		user.FirstName, user.LastName, user.PlanID, user.CreditBalance)

	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return created, nil
}

// GetByID returns the user with the given internal id.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

// GetByExternalID returns the user with the given identity-provider id.
func (r *PostgresRepository) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE external_id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, externalID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

// Update persists the merged profile fields of an existing user, keyed by
// internal id. ExternalID and the credit balance are not touched here;
// the balance changes only through the Adjust* operations.
func (r *PostgresRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		UPDATE users
		SET email = $1, username = $2, photo = $3, first_name = $4, last_name = $5, plan_id = $6, updated_at = now()
		WHERE id = $7
		RETURNING ` + userColumns

	row := r.db.QueryRowContext(ctx, query,
		user.Email, user.Username, user.Photo, user.FirstName, user.LastName, user.PlanID, user.ID)

	updated, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return updated, nil
}

// Delete removes a user by internal id. Deleting an absent row is not an
// error; user deletion is idempotent.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// AdjustCredits applies balance += delta in a single UPDATE so concurrent
// adjustments are commutative and lost-update-free. The balance may go
// negative; callers wanting the guard use AdjustCreditsGuarded.
func (r *PostgresRepository) AdjustCredits(ctx context.Context, userID string, delta int64) (*models.User, error) {
	query := `
		UPDATE users
		SET credit_balance = credit_balance + $1, updated_at = now()
		WHERE id = $2
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, delta, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

// AdjustCreditsGuarded is AdjustCredits with a non-negative guard folded
// into the same atomic UPDATE. When the guard refuses the change the row
// stays untouched and common.ErrInsufficientCredits is returned; a missing
// user still reports common.ErrNotFound.
func (r *PostgresRepository) AdjustCreditsGuarded(ctx context.Context, userID string, delta int64) (*models.User, error) {
	query := `
		UPDATE users
		SET credit_balance = credit_balance + $1, updated_at = now()
		WHERE id = $2 AND credit_balance + $1 >= 0
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, delta, userID))
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("db error: %w", err)
	}

	// No row updated: either the user is gone or the guard refused.
	var exists bool
	check := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID)
	if err := check.Scan(&exists); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if !exists {
		return nil, common.ErrNotFound
	}
	return nil, common.ErrInsufficientCredits
}
