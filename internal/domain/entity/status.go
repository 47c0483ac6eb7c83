package entity

import (
	"fmt"
	"strings"
)

var allowedStatuses = map[string]struct{}{
	"design":      {},
	"procurement": {},
	"installed":   {},
	"operating":   {},
	"maintenance": {},
	"retired":     {},
}

// NormalizeStatus lower-cases and validates an equipment status.
// An empty input stays empty (status is not a required field).
func NormalizeStatus(status string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(status))
	if trimmed == "" {
		return "", nil
	}

	if _, ok := allowedStatuses[trimmed]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return trimmed, nil
}
