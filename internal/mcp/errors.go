package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/focusboard/internal/domain/focus"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes. Unknown errors pass
// through unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, focus.ErrProjectNotFound):
		return &APIError{Code: "PROJECT_NOT_FOUND", Message: "project not found", RecoveryHint: "Call list_projects for valid IDs"}
	case errors.Is(err, focus.ErrTaskNotFound):
		return &APIError{Code: "TASK_NOT_FOUND", Message: "task not found", RecoveryHint: "Call get_focus_board for valid task IDs"}
	case errors.Is(err, focus.ErrCapacityReached):
		return &APIError{Code: "CAPACITY_REACHED", Message: "active project limit reached", RecoveryHint: "Deactivate or replace a project first"}
	case errors.Is(err, focus.ErrNoSlotAccepts):
		return &APIError{Code: "NO_SLOT_ACCEPTS", Message: "no open slot accepts this project's tags", RecoveryHint: "Free a slot whose tags match"}
	case errors.Is(err, focus.ErrNoPendingReplacement):
		return &APIError{Code: "NO_PENDING_REPLACEMENT", Message: "no replacement prompt is pending for this project"}
	case errors.Is(err, focus.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: "invalid input", RecoveryHint: "Check required fields"}
	default:
		return err
	}
}
