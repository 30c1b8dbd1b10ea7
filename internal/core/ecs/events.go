package ecs

// Lifecycle events emitted onto the registry's bus. They are readable on the
// tick after the change.

type EntityCreated struct {
	Entity EntityHandle
}

type EntityDestroyed struct {
	Entity EntityHandle
}

type ComponentAttached struct {
	Entity    EntityHandle
	Component ComponentHandle
}

type ComponentDetached struct {
	Entity    EntityHandle
	Component ComponentHandle
}
