package exec

import "errors"

// ErrInternalEngineError mirrors the sentinel of internal/ir and
// internal/plan (§7 InternalEngineError: a bug in THE CORE itself, masked
// to the client as a generic internal error).
var ErrInternalEngineError = errors.New("internal engine error")
