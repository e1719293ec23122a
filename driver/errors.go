package driver

import (
	"errors"
	"fmt"
)

var (
	// ErrAcquisition is returned when a driver cannot be listed, fetched or stored.
	ErrAcquisition = errors.New("driver acquisition failed")

	// ErrNotInstalled is returned when a driver version is not in the local store.
	ErrNotInstalled = errors.New("driver not installed")
)

// AcquisitionError describes a failed repository or store operation.
type AcquisitionError struct {
	Op      string
	Family  string
	Version string
	Cause   error
}

func (e *AcquisitionError) Error() string {
	if e.Version == "" {
		return fmt.Sprintf("%s %s driver: %v", e.Op, e.Family, e.Cause)
	}
	return fmt.Sprintf("%s %s driver %s: %v", e.Op, e.Family, e.Version, e.Cause)
}

func (e *AcquisitionError) Unwrap() error {
	return e.Cause
}

// Is reports ErrAcquisition.
func (e *AcquisitionError) Is(target error) bool {
	return target == ErrAcquisition
}
