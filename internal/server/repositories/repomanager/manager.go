// Package repomanager bundles the construction of the server repositories so
// services can rebind them to a transaction handle.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/kymbms/name-card-manage/internal/dbx"
	"github.com/kymbms/name-card-manage/internal/server/repositories/cards"
	"github.com/kymbms/name-card-manage/internal/server/repositories/refreshtokens"
	"github.com/kymbms/name-card-manage/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Cards(db dbx.DBTX) cards.Repository
}
