package health

import "errors"

var (
	// ErrCheckFailed indicates a health check could not be evaluated.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckerNotFound indicates a checker was not found.
	ErrCheckerNotFound = errors.New("health: checker not found")

	// ErrInvalidChecker indicates a nil checker or a checker without a name.
	ErrInvalidChecker = errors.New("health: invalid checker")

	// ErrInvalidGroup indicates an empty group name.
	ErrInvalidGroup = errors.New("health: invalid group name")
)
