// Package policy holds deterministic business rules that must not be left
// to the generative backend's instruction-following.
package policy

import (
	"fmt"

	contractx "github.com/decoderlab/fleetquote/agent/contract"
)

// MinimumTermDays is the minimum rental term for corporate contracts.
const MinimumTermDays = 5

// EnforceMinimumTerm substitutes any requested term below the corporate
// minimum with the minimum itself. Single source of truth for the 5-day
// rule: the backend only phrases the result, it never decides it.
func EnforceMinimumTerm(requestedDays int) (billedDays int, minimumApplied bool, err error) {
	if requestedDays < 1 {
		return 0, false, fmt.Errorf("%w: requested days must be >= 1, got %d", contractx.ErrInvalidInput, requestedDays)
	}
	if requestedDays < MinimumTermDays {
		return MinimumTermDays, true, nil
	}
	return requestedDays, false, nil
}
