package database

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// Queryable is satisfied by both *sqlx.DB and *sqlx.Tx, allowing
// stores to be used inside or outside of a transaction.
type Queryable interface {
	sqlx.Queryer
	sqlx.Execer
	Get(dest any, query string, args ...any) error
	Select(dest any, query string, args ...any) error
	NamedExec(query string, arg any) (sql.Result, error)
	Rebind(query string) string
}
