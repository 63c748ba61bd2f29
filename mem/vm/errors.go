package vm

import "errors"

var (
	// ErrInvalidPage is returned when a page number falls outside of the
	// range a process registered.
	ErrInvalidPage = errors.New("page number out of range")

	// ErrInvalidPageSize is returned when a process registers a zero page
	// size.
	ErrInvalidPageSize = errors.New("page size must be positive")

	// ErrPageAlreadyValid is returned when installing a page that is
	// already bound to a frame.
	ErrPageAlreadyValid = errors.New("page is already valid")

	// ErrPageNotValid is returned when invalidating a page that is not
	// resident.
	ErrPageNotValid = errors.New("page is not valid")

	// ErrNoFrameCapacity is returned when a fault cannot be served because
	// there are no frames at all.
	ErrNoFrameCapacity = errors.New("no frame capacity and no victim")

	// ErrDuplicateFrameBinding reports that the frame bookkeeping and the
	// page tables disagree. It always indicates a bug.
	ErrDuplicateFrameBinding = errors.New("duplicate frame binding")

	// ErrUnknownProcess is returned for operations on a process that has not
	// been registered.
	ErrUnknownProcess = errors.New("unknown process")

	// ErrProcessExists is returned when registering a process twice.
	ErrProcessExists = errors.New("process already registered")
)
