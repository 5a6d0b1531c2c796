package sqlite

import (
	"strings"

	"github.com/rpggio/chainledger/internal/repository"
)

const (
	duplicateWeekMessage = "duplicate week"
	overlapMessage       = "period overlap"
)

func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "PRIMARY KEY constraint failed")
}

// constraintError maps a period write failure onto repository errors, or nil
// when err isn't a constraint violation.
func constraintError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, duplicateWeekMessage), isUniqueViolation(err):
		return repository.ErrDuplicate
	case strings.Contains(msg, overlapMessage):
		return repository.ErrOverlap
	case isForeignKeyViolation(err):
		return repository.ErrForeignKeyViolation
	}
	return nil
}
