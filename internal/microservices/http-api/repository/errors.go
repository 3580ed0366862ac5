package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres error codes that mean a concurrent interval writer won the
// race and our snapshot of the coordinates is stale.
const (
	pgSerializationFailure = "40001"
	pgLockNotAvailable     = "55P03"
	pgDeadlockDetected     = "40P01"
)

// IsStaleIntervalConflict reports whether err is a lock/serialization
// failure from the store. Callers must retry the whole mutation with
// freshly read coordinates; the ones in hand are not trustworthy.
func IsStaleIntervalConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgSerializationFailure, pgLockNotAvailable, pgDeadlockDetected:
		return true
	}
	return false
}
