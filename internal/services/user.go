// Package services contains the business logic of the data-access layer:
// the user directory with its credit ledger, and the image catalog with
// search reconciliation and cache notification. Every operation takes an
// already-resolved caller identity; nothing here reads ambient request
// state.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/avankov/pixvault/internal/common"
	"github.com/avankov/pixvault/internal/dbx"
	"github.com/avankov/pixvault/internal/logging"
	"github.com/avankov/pixvault/internal/models"
	"github.com/avankov/pixvault/internal/notifier"
	"github.com/avankov/pixvault/internal/repositories/repomanager"
)

// emailPattern matches the address format the signup flow accepts.
var emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

// CreateUserParams is the profile payload for provisioning an account on
// first sign-in. PlanID zero means the default tier.
type CreateUserParams struct {
	ExternalID string
	Email      string
	Username   string
	Photo      string
	FirstName  string
	LastName   string
	PlanID     int
}

// UpdateUserParams is a partial profile update; nil fields are left as-is.
// The external identity id and the credit balance are not updatable here.
type UpdateUserParams struct {
	Email     *string
	Username  *string
	Photo     *string
	FirstName *string
	LastName  *string
	PlanID    *int
}

// UserService implements the user directory and the credit ledger.
type UserService struct {
	db       *sql.DB
	repos    repomanager.RepositoryManager
	notifier notifier.Notifier
	logger   logging.Logger
}

// NewUserService constructs a UserService over the given storage and
// notification backends.
func NewUserService(db *sql.DB, repos repomanager.RepositoryManager, n notifier.Notifier, logger logging.Logger) *UserService {
	return &UserService{db: db, repos: repos, notifier: n, logger: logger}
}

func validateProfile(u *models.User) error {
	if u.ExternalID == "" {
		return fmt.Errorf("%w: external id is required", common.ErrInvalidInput)
	}
	if !emailPattern.MatchString(u.Email) {
		return fmt.Errorf("%w: invalid email %q", common.ErrInvalidInput, u.Email)
	}
	if len(u.Username) < 3 {
		return fmt.Errorf("%w: username must be at least 3 characters", common.ErrInvalidInput)
	}
	parsed, err := url.Parse(u.Photo)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return fmt.Errorf("%w: photo must be an absolute URL", common.ErrInvalidInput)
	}
	if u.PlanID < models.PlanFree || u.PlanID > models.PlanPremium {
		return fmt.Errorf("%w: unknown plan %d", common.ErrInvalidInput, u.PlanID)
	}
	return nil
}

// CreateUser provisions an account for a new external identity. Duplicate
// external id, email, or username surfaces as common.ErrConflict with the
// existing record untouched.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (*models.User, error) {
	user := &models.User{
		ID:            uuid.New().String(),
		ExternalID:    strings.TrimSpace(params.ExternalID),
		Email:         strings.ToLower(strings.TrimSpace(params.Email)),
		Username:      strings.TrimSpace(params.Username),
		Photo:         params.Photo,
		FirstName:     strings.TrimSpace(params.FirstName),
		LastName:      strings.TrimSpace(params.LastName),
		PlanID:        params.PlanID,
		CreditBalance: models.DefaultCreditBalance,
	}
	if user.PlanID == 0 {
		user.PlanID = models.PlanFree
	}

	if err := validateProfile(user); err != nil {
		return nil, err
	}

	created, err := s.repos.Users(s.db).Create(ctx, user)
	if err != nil {
		if !errors.Is(err, common.ErrConflict) {
			s.logger.Error(ctx, "creating user", "external_id", user.ExternalID, "error", err)
		}
		return nil, err
	}
	return created, nil
}

// GetUserByExternalID resolves an identity-provider id to the internal
// account. Absence is an expected outcome: callers use it to decide
// whether to provision.
func (s *UserService) GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	if externalID == "" {
		return nil, fmt.Errorf("%w: external id is required", common.ErrInvalidInput)
	}
	return s.repos.Users(s.db).GetByExternalID(ctx, externalID)
}

// UpdateUser merges the patch into the stored profile, re-validates the
// merged result, and persists it.
func (s *UserService) UpdateUser(ctx context.Context, externalID string, patch UpdateUserParams) (*models.User, error) {
	if externalID == "" {
		return nil, fmt.Errorf("%w: external id is required", common.ErrInvalidInput)
	}

	repo := s.repos.Users(s.db)

	user, err := repo.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}

	if patch.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*patch.Email))
	}
	if patch.Username != nil {
		user.Username = strings.TrimSpace(*patch.Username)
	}
	if patch.Photo != nil {
		user.Photo = *patch.Photo
	}
	if patch.FirstName != nil {
		user.FirstName = strings.TrimSpace(*patch.FirstName)
	}
	if patch.LastName != nil {
		user.LastName = strings.TrimSpace(*patch.LastName)
	}
	if patch.PlanID != nil {
		user.PlanID = *patch.PlanID
	}

	if err := validateProfile(user); err != nil {
		return nil, err
	}

	updated, err := repo.Update(ctx, user)
	if err != nil {
		if !errors.Is(err, common.ErrConflict) && !errors.Is(err, common.ErrNotFound) {
			s.logger.Error(ctx, "updating user", "external_id", externalID, "error", err)
		}
		return nil, err
	}
	return updated, nil
}

// DeleteUser removes the account for the given external identity and
// invalidates the root listing. Deleting an absent account returns
// (nil, nil): deletion is idempotent. Authored images are kept; their
// author reference goes stale, which readers tolerate.
func (s *UserService) DeleteUser(ctx context.Context, externalID string) (*models.User, error) {
	if externalID == "" {
		return nil, fmt.Errorf("%w: external id is required", common.ErrInvalidInput)
	}

	var deleted *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Users(tx)

		user, err := repo.GetByExternalID(ctx, externalID)
		if err != nil {
			return err
		}
		if err := repo.Delete(ctx, user.ID); err != nil {
			return err
		}
		deleted = user
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		s.logger.Error(ctx, "deleting user", "external_id", externalID, "error", err)
		return nil, err
	}

	s.notifier.Invalidate(ctx, "/")
	return deleted, nil
}

// AdjustCredits applies balance += delta atomically and returns the
// post-adjustment snapshot. Debits refuse to take the balance negative and
// return common.ErrInsufficientCredits with the account unchanged.
func (s *UserService) AdjustCredits(ctx context.Context, userID string, delta int64) (*models.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", common.ErrInvalidInput)
	}

	repo := s.repos.Users(s.db)

	if delta < 0 {
		return repo.AdjustCreditsGuarded(ctx, userID, delta)
	}
	return repo.AdjustCredits(ctx, userID, delta)
}
