package flow

import "errors"

var (
	// ErrLastNode is returned when deleting would leave the flow empty.
	ErrLastNode = errors.New("cannot delete last node")

	// ErrEmptyFlow is returned when a run is started on a flow with no nodes.
	ErrEmptyFlow = errors.New("flow has no nodes to run")

	// ErrNodeNotFound is returned when an explicit run entry does not exist.
	ErrNodeNotFound = errors.New("node not found")
)
