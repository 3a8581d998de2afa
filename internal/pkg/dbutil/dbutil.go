package dbutil

import (
	"github.com/jmoiron/sqlx"
)

// Finalize rewrites a gendry-built query ("?" placeholders) into Postgres
// "$N" form.
func Finalize(query string, args []interface{}) (string, []interface{}) {
	return sqlx.Rebind(sqlx.DOLLAR, query), args
}
