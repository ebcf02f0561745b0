package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/avankov/pixvault/internal/common"
	"github.com/avankov/pixvault/internal/models"
)

var userCols = []string{
	"id", "external_id", "email", "username", "photo", "first_name",
	"last_name", "plan_id", "credit_balance", "created_at", "updated_at",
}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func userRow(id string, balance int64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(userCols).
		AddRow(id, "clerk-1", "a@b.c", "alice", "https://img.example/a.png",
			"Alice", "Archer", models.PlanFree, balance, now, now)
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+users\s*\(id,\s*external_id,\s*email,.*RETURNING\s+id,`

	mock.ExpectQuery(q).
		WithArgs("u-1", "clerk-1", "a@b.c", "alice", "https://img.example/a.png",
			"Alice", "Archer", models.PlanFree, int64(10)).
		WillReturnRows(userRow("u-1", 10))

	u := &models.User{
		ID: "u-1", ExternalID: "clerk-1", Email: "a@b.c", Username: "alice",
		Photo: "https://img.example/a.png", FirstName: "Alice", LastName: "Archer",
		PlanID: models.PlanFree, CreditBalance: 10,
	}
	got, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "u-1" || got.CreditBalance != 10 {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestCreate_UniqueViolation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := repo.Create(context.Background(), &models.User{ID: "u-1"})
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("want common.ErrConflict, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{ID: "u-1"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByExternalID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+external_id\s*=\s*\$1$`

	mock.ExpectQuery(q).WithArgs("clerk-1").WillReturnRows(userRow("u-1", 10))

	got, err := repo.GetByExternalID(context.Background(), "clerk-1")
	if err != nil {
		t.Fatalf("GetByExternalID error: %v", err)
	}
	if got.ID != "u-1" || got.ExternalID != "clerk-1" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetByExternalID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+external_id`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByExternalID(context.Background(), "ghost")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)UPDATE\s+users\s+SET\s+email`).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Update(context.Background(), &models.User{ID: "u-x"})
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestUpdate_UniqueViolation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)UPDATE\s+users\s+SET\s+email`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})

	_, err := repo.Update(context.Background(), &models.User{ID: "u-1"})
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("want common.ErrConflict, got %v", err)
	}
}

func TestDelete_AbsentRowIsNoError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs("u-gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "u-gone"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
}

func TestAdjustCredits_AppliesDelta(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*UPDATE\s+users\s+SET\s+credit_balance\s*=\s*credit_balance\s*\+\s*\$1,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+id\s*=\s*\$2\s+RETURNING`

	mock.ExpectQuery(q).WithArgs(int64(-3), "u-1").WillReturnRows(userRow("u-1", 7))

	got, err := repo.AdjustCredits(context.Background(), "u-1", -3)
	if err != nil {
		t.Fatalf("AdjustCredits error: %v", err)
	}
	if got.CreditBalance != 7 {
		t.Fatalf("want balance 7, got %d", got.CreditBalance)
	}
}

func TestAdjustCredits_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`UPDATE\s+users\s+SET\s+credit_balance`).
		WithArgs(int64(5), "ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.AdjustCredits(context.Background(), "ghost", 5)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestAdjustCreditsGuarded_RefusesOverdraft(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)UPDATE\s+users\s+SET\s+credit_balance.*credit_balance\s*\+\s*\$1\s*>=\s*0`

	mock.ExpectQuery(q).WithArgs(int64(-100), "u-1").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT\s+EXISTS`).WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := repo.AdjustCreditsGuarded(context.Background(), "u-1", -100)
	if !errors.Is(err, common.ErrInsufficientCredits) {
		t.Fatalf("want common.ErrInsufficientCredits, got %v", err)
	}
}

func TestAdjustCreditsGuarded_MissingUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`UPDATE\s+users\s+SET\s+credit_balance`).
		WithArgs(int64(-1), "ghost").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT\s+EXISTS`).WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := repo.AdjustCreditsGuarded(context.Background(), "ghost", -1)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestAdjustCreditsGuarded_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`UPDATE\s+users\s+SET\s+credit_balance`).
		WithArgs(int64(-2), "u-1").
		WillReturnRows(userRow("u-1", 8))

	got, err := repo.AdjustCreditsGuarded(context.Background(), "u-1", -2)
	if err != nil {
		t.Fatalf("AdjustCreditsGuarded error: %v", err)
	}
	if got.CreditBalance != 8 {
		t.Fatalf("want balance 8, got %d", got.CreditBalance)
	}
}
