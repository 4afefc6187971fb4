package normalize

import "errors"

// Sentinel errors forming the taxonomy of §7: ParseFailure and
// ValidationFailed are both pre-execution and short-circuit the whole
// request (no data, single error).
var (
	ErrSubscriptionsNotSupported = errors.New("subscriptions not supported")
	ErrParseFailure              = errors.New("parse failure")
	ErrValidationFailed          = errors.New("validation failed")
)
