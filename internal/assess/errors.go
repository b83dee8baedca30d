package assess

import "errors"

var (
	// ErrInvalidState rejects a submission against an assessment that cannot
	// be attempted right now: no questions, entry requirement disabled, or a
	// violated open/close window. A learner error, not a server fault.
	ErrInvalidState = errors.New("invalid state")

	// ErrValidation rejects malformed submission payloads before scoring.
	ErrValidation = errors.New("validation failed")
)
