package postgres

import (
	"errors"
	"strconv"

	"github.com/lib/pq"
	"github.com/rpggio/chainledger/internal/repository"
)

// PostgreSQL error codes raised by the schema constraints.
const (
	codeUniqueViolation     = pq.ErrorCode("23505")
	codeForeignKeyViolation = pq.ErrorCode("23503")
	codeExclusionViolation  = pq.ErrorCode("23P01")
)

// constraintError maps a write failure onto repository errors, or nil when
// err isn't a constraint violation.
func constraintError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}
	switch pqErr.Code {
	case codeUniqueViolation:
		return repository.ErrDuplicate
	case codeExclusionViolation:
		return repository.ErrOverlap
	case codeForeignKeyViolation:
		return repository.ErrForeignKeyViolation
	}
	return nil
}

// placeholders numbers positional arguments as conditions are appended.
type placeholders struct {
	args []any
}

func (p *placeholders) add(v any) string {
	p.args = append(p.args, v)
	return "$" + strconv.Itoa(len(p.args))
}
