package plan

import "errors"

var ErrInternalEngineError = errors.New("internal engine error")
