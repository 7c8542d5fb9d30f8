package repository

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateEmail    = errors.New("duplicate email")
	ErrDuplicateUsername = errors.New("duplicate username")
)

const pqUniqueViolation = "23505"

// uniqueViolation reports which unique column a driver error refers to, or ""
// when err is not a unique-constraint violation.
func uniqueViolation(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		// Constraints are named <table>_<column>_key in the migrations.
		column := strings.TrimSuffix(pqErr.Constraint, "_key")
		if i := strings.Index(column, "_"); i >= 0 {
			column = column[i+1:]
		}
		return column
	}

	var sqliteErr *sqlitedrv.Error
	if errors.As(err, &sqliteErr) && isSQLiteUnique(sqliteErr) {
		// Message ends with "UNIQUE constraint failed: <table>.<column>".
		msg := sqliteErr.Error()
		if i := strings.LastIndex(msg, "."); i >= 0 {
			column := msg[i+1:]
			if j := strings.IndexAny(column, " ,)"); j >= 0 {
				column = column[:j]
			}
			return column
		}
		return "unknown"
	}

	return ""
}

func isSQLiteUnique(err *sqlitedrv.Error) bool {
	if err.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	// Without extended result codes only the primary code is reported.
	return err.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(err.Error(), "UNIQUE")
}
