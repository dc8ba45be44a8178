package postgres

import (
	"errors"
	"fmt"

	"github.com/lib/pq"

	"fleetops/internal/repository"
)

// uniqueViolation is the SQLSTATE raised when a unique index rejects a write.
const uniqueViolation pq.ErrorCode = "23505"

// translateError maps driver errors onto repository sentinels.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", repository.ErrDuplicate, pqErr.Constraint)
	}

	return err
}
