package repomanager

import (
	"context"
	"database/sql"

	"github.com/abalakin-dev/quizkeeper/internal/dbx"
	"github.com/abalakin-dev/quizkeeper/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX (either the pool or a
// transaction) and exposes a schema migration hook.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
}
