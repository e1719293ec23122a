package plugin

import (
	"context"
	"fmt"
)

// Attempt runs op against each candidate in order and returns the first
// success. A rejection (see IsRejection) moves on to the next candidate; any
// other error is returned immediately. When every candidate rejects, the
// returned *NoCandidateError carries each failure.
func Attempt[C, R any](ctx context.Context, candidates []C, op func(ctx context.Context, candidate C) (R, error)) (C, R, error) {
	var zeroC C
	var zeroR R
	var failures []error
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return zeroC, zeroR, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		result, err := op(ctx, candidate)
		if err == nil {
			return candidate, result, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zeroC, zeroR, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		if !IsRejection(err) {
			return zeroC, zeroR, err
		}
		failures = append(failures, err)
	}
	return zeroC, zeroR, &NoCandidateError{Failures: failures}
}
