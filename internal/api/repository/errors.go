package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// IsUniqueViolation reports whether err is the store rejecting a write
// because of a unique constraint. The constraint rejection is the
// authoritative signal for duplicates (one review per title per author,
// duplicate slugs, taken usernames); callers must not check-then-insert.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	// sqlite (used by the test suite) reports constraint failures as text
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
