// Package sqlxrepos implements the core repositories against Postgres.
package sqlxrepos

import (
	"github.com/trezcool/shule/core"
)

// getExec prefers a service-provided executor (usually a transaction) over
// the repository's own connection.
func getExec(repoExec core.DBExecutor, svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repoExec
}
