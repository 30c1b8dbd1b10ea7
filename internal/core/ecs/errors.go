package ecs

import "errors"

var (
	ErrDuplicateType        = errors.New("ecs: component type already registered")
	ErrIncompleteDescriptor = errors.New("ecs: descriptor missing create, destroy or get-handle")
)
