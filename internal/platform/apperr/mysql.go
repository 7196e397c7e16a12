package apperr

import (
	"errors"

	mysql "github.com/go-sql-driver/mysql"
)

// MySQL server error numbers the services care about.
const (
	mysqlDupEntry        = 1062
	mysqlNoReferencedRow = 1452
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

// FromMySQL translates a driver-level error into the taxonomy. Lock waits and
// deadlocks become retryable Conflicts; anything else from the server or the
// connection is a storage failure. sql.ErrNoRows is intentionally not handled
// here: the stores decide what "no rows" means per query.
func FromMySQL(err error) *APIError {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlDupEntry:
			return ErrConflict(ReasonDuplicateKey, "duplicate key")
		case mysqlNoReferencedRow:
			return ErrInvalid("foreign key constraint failed")
		case mysqlLockWaitTimeout, mysqlDeadlock:
			return ErrConflict(ReasonLockConflict, "concurrent transaction conflict, retry")
		}
	}
	return ErrUnavailable(err.Error())
}

// IsLockConflict reports whether err is the retryable lock Conflict.
func IsLockConflict(err error) bool {
	var api *APIError
	return errors.As(err, &api) && api.Code == CodeConflict && api.Reason == ReasonLockConflict
}

// IsDuplicateKey reports whether err maps to a unique-constraint violation.
func IsDuplicateKey(err error) bool {
	var api *APIError
	return errors.As(err, &api) && api.Code == CodeConflict && api.Reason == ReasonDuplicateKey
}
