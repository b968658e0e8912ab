package database

import (
	"errors"

	"github.com/lib/pq"
)

// ErrReferencedByHistory is returned when a game or mod cannot be deleted
// because stored prompts or recommendations still point to it.
// Delete the prompts first, their recommendations follow by cascade.
var ErrReferencedByHistory = errors.New("referenced by prompt history")

const foreignKeyViolation = pq.ErrorCode("23503")

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation
}
