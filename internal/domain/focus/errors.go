package focus

import "errors"

var (
	// ErrCapacityReached indicates the Active set is at its configured maximum.
	ErrCapacityReached = errors.New("active project limit reached")
	// ErrNoSlotAccepts indicates no empty slot admits the project's tags.
	ErrNoSlotAccepts = errors.New("no open slot accepts this project")
	// ErrProjectNotFound indicates the project isn't tracked.
	ErrProjectNotFound = errors.New("project not found")
	// ErrTaskNotFound indicates the task doesn't exist.
	ErrTaskNotFound = errors.New("task not found")
	// ErrNoPendingReplacement indicates there is no prompt to resolve.
	ErrNoPendingReplacement = errors.New("no replacement prompt pending")
	// ErrInvalidInput indicates a malformed request.
	ErrInvalidInput = errors.New("invalid input")
)
