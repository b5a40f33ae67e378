package ticket

import (
	"fmt"

	"crm-support/internal/common/apperr"
)

// The status workflow is a strict forward path:
//
//	open -> in-progress -> resolved -> closed
//
// with closed terminal. All guards live in this table; handlers never check
// status themselves.
var nextStatus = map[TicketStatus]TicketStatus{
	TicketStatusOpen:       TicketStatusInProgress,
	TicketStatusInProgress: TicketStatusResolved,
	TicketStatusResolved:   TicketStatusClosed,
}

// Transition validates the move from current to target and returns the
// target on success. A rejected move yields ErrInvalidState.
func Transition(current, target TicketStatus) (TicketStatus, error) {
	if nextStatus[current] == target {
		return target, nil
	}
	return current, fmt.Errorf("cannot move ticket from %q to %q: %w", current, target, apperr.ErrInvalidState)
}

// ValidStatus reports whether s is one of the workflow statuses.
func ValidStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// ValidPriority reports whether p is a known priority level.
func ValidPriority(p TicketPriority) bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}
