package services

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperrors "finanzas/internal/errors"
	"finanzas/internal/logger"
)

const (
	minNameLength     = 2
	pgUniqueViolation = "23505"
)

// storeError logs a store failure and maps it to ErrStoreUnavailable.
func storeError(op string, err error) error {
	logger.Named("services").Errorw("store failure", "op", op, "error", err)
	return apperrors.Wrap(apperrors.ErrStoreUnavailable, err)
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// containsPattern builds a LIKE pattern matching s anywhere, lower-cased,
// with LIKE metacharacters escaped by a backslash.
func containsPattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

// validName trims s and checks its minimum length in characters.
func validName(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, utf8.RuneCountInString(s) >= minNameLength
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
