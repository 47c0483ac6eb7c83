package entity

import "errors"

var (
	ErrCodeRequired = errors.New("business code is required")
	ErrNameRequired = errors.New("name is required")

	ErrInvalidStatus   = errors.New("invalid equipment status")
	ErrInvalidCategory = errors.New("unknown field category")
	ErrInvalidWeights  = errors.New("score weights must be non-negative and sum to 1")
)

// ValidateIdentity checks the fields every create path must supply.
func ValidateIdentity(code, name string) error {
	if code == "" {
		return ErrCodeRequired
	}
	if name == "" {
		return ErrNameRequired
	}
	return nil
}
