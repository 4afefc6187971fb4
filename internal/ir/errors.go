package ir

import "errors"

// Sentinel errors mirroring the §7 taxonomy for the IR-generation stage.
var (
	// ErrInternalDeveloperError flags user-authored metadata inconsistency
	// discovered only at request time: a missing session variable, a global
	// ID typename with no resolvable source model, and similar.
	ErrInternalDeveloperError = errors.New("internal developer error")
	// ErrInternalEngineError flags a bug in this engine: an annotation kind
	// the generator does not know how to dispatch, a mapping that resolve
	// should have guaranteed but didn't.
	ErrInternalEngineError = errors.New("internal engine error")
	// ErrVariableTypeCast is raised when a session variable's string value
	// cannot be cast to the comparison column's declared scalar type.
	ErrVariableTypeCast = errors.New("session variable type cast failed")
	// ErrVariableArrayTypeCast is raised when the target type is a list;
	// session variables are always scalar strings and never cast to arrays.
	ErrVariableArrayTypeCast = errors.New("session variable cannot cast to array type")
)
