// Package repomanager defines the RepositoryManager abstraction that vends
// repository implementations bound to a DBTX (a *sql.DB or an open *sql.Tx),
// plus a schema migration hook.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/taskvault/taskvault/internal/dbx"
	"github.com/taskvault/taskvault/internal/server/repositories/analytics"
	"github.com/taskvault/taskvault/internal/server/repositories/attachments"
	"github.com/taskvault/taskvault/internal/server/repositories/tasks"
	"github.com/taskvault/taskvault/internal/server/repositories/users"
)

// RepositoryManager vends per-table repositories. Passing a transaction as
// the DBTX makes every vended repository part of that transaction.
type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	Tasks(db dbx.DBTX) tasks.Repository
	Attachments(db dbx.DBTX) attachments.Repository
	Analytics(db dbx.DBTX) analytics.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
