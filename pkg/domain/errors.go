package domain

import "errors"

// ErrNoView is returned when a scene object is constructed without a view connector.
var ErrNoView = errors.New("no active view")

// ErrUnknownType is returned when an object type has no registered shape.
var ErrUnknownType = errors.New("unknown object type")

// ErrArgArity is returned when more construction args are supplied than the shape declares.
var ErrArgArity = errors.New("wrong number of construction args")

// ErrScopeUnderflow is returned when a grouping scope is closed but none is open.
var ErrScopeUnderflow = errors.New("no open grouping scope")

// ErrUnsupportedEvent is returned for inbound event kinds the view does not handle.
var ErrUnsupportedEvent = errors.New("unsupported event")

// ErrPageNotFound is returned when a page has no view.
var ErrPageNotFound = errors.New("page not found")

// ErrObjectNotFound is returned when an object id is not in a page registry.
var ErrObjectNotFound = errors.New("object not found")

// ErrMalformedCommand is returned when a wire command cannot be parsed.
var ErrMalformedCommand = errors.New("malformed command")
