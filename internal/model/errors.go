package model

import (
	"errors"
	"fmt"
)

// DataIntegrityError means an invariant the pipeline relies on did not hold.
// The current block must be aborted and none of its writes committed.
type DataIntegrityError struct {
	BlockNumber uint64
	Ordinal     uint64
	Reason      string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("data integrity violation at block %d ordinal %d: %s", e.BlockNumber, e.Ordinal, e.Reason)
}

// IsDataIntegrity reports whether err wraps a DataIntegrityError.
func IsDataIntegrity(err error) bool {
	var target *DataIntegrityError
	return errors.As(err, &target)
}
