package resolve

import (
	"errors"
	"fmt"
)

// Sentinel errors forming the resolver's failure taxonomy (§4.1). Wrap with
// fmt.Errorf("%w: ...", Err...) to attach context; callers can still
// errors.Is against the sentinel.
var (
	ErrUnknownTargetModel                       = errors.New("unknown target model")
	ErrEmptyFieldPath                           = errors.New("empty field path")
	ErrUnknownSourceFieldInRelationshipMapping   = errors.New("unknown source field in relationship mapping")
	ErrMappingExistsInRelationship               = errors.New("mapping exists in relationship")
	ErrRelationshipTargetDoesNotSupportForEach    = errors.New("relationship target does not support foreach")
	ErrUnknownModelDataConnector                 = errors.New("unknown model data connector")
	ErrUnknownObjectType                         = errors.New("unknown object type")
	ErrUnknownFieldOnObjectType                  = errors.New("unknown field on object type")
	ErrDuplicateGlobalIDSource                   = errors.New("duplicate global id source for object type")
	ErrEmptyGlobalIDFields                       = errors.New("global id source model has no global id fields")
)

// NotSupportedError is raised for metadata that parses but whose semantics
// this revision does not implement (§4.1, §9): e.g. relationship
// predicates in ModelPermissions.
type NotSupportedError struct {
	Reason string
}

func (e *NotSupportedError) Error() string {
	return fmt.Sprintf("not supported: %s", e.Reason)
}

func NotSupported(reason string) error { return &NotSupportedError{Reason: reason} }
