// Package repomanager wires repository constructors to a storage backend
// and owns schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/avankov/pixvault/internal/dbx"
	"github.com/avankov/pixvault/internal/repositories/images"
	"github.com/avankov/pixvault/internal/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so a service can
// use the same repository code against *sql.DB or inside a transaction.
type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	Images(db dbx.DBTX) images.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
