package export

import "errors"

var (
	ErrNoGlobal          = errors.New("export: graph has no global namespace")
	ErrNilNode           = errors.New("export: nil node in a container")
	ErrNodeShared        = errors.New("export: node contained more than once")
	ErrDanglingReference = errors.New("export: reference to a node outside the graph")
	ErrHashCollision     = errors.New("export: distinct names share a hash")
	ErrTooLarge          = errors.New("export: stream exceeds the 32-bit offset range")
	ErrTooManyArgs       = errors.New("export: template argument slots must be filled in order")
)
