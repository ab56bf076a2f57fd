package commands

import (
	"context"

	"github.com/google/uuid"
	"github.com/rotahq/rota/internal/scheduling/domain"
)

// MakeAppointmentRecurringCommand is the superseded single-appointment
// "make this recurring" operation. The family engine replaced it; the
// handler exists only to tell callers where to go.
type MakeAppointmentRecurringCommand struct {
	AppointmentID uuid.UUID
	Rule          domain.Rule
	OperatorID    uuid.UUID
}

// CommandName returns the command name.
func (c MakeAppointmentRecurringCommand) CommandName() string {
	return "scheduling.make_appointment_recurring"
}

// MakeAppointmentRecurringHandler rejects the legacy operation.
type MakeAppointmentRecurringHandler struct{}

// NewMakeAppointmentRecurringHandler creates the rejecting handler.
func NewMakeAppointmentRecurringHandler() *MakeAppointmentRecurringHandler {
	return &MakeAppointmentRecurringHandler{}
}

// Handle always fails with a DeprecatedOperationError pointing at the
// family engine.
func (h *MakeAppointmentRecurringHandler) Handle(ctx context.Context, cmd MakeAppointmentRecurringCommand) error {
	return &domain.DeprecatedOperationError{
		Operation:   "make appointment recurring",
		Replacement: "create a recurrence family (family create)",
	}
}

// StopAppointmentRecurringCommand is the legacy counterpart that detached a
// single appointment from its recurrence flag.
type StopAppointmentRecurringCommand struct {
	AppointmentID uuid.UUID
	OperatorID    uuid.UUID
}

// CommandName returns the command name.
func (c StopAppointmentRecurringCommand) CommandName() string {
	return "scheduling.stop_appointment_recurring"
}

// StopAppointmentRecurringHandler rejects the legacy operation.
type StopAppointmentRecurringHandler struct{}

// NewStopAppointmentRecurringHandler creates the rejecting handler.
func NewStopAppointmentRecurringHandler() *StopAppointmentRecurringHandler {
	return &StopAppointmentRecurringHandler{}
}

// Handle always fails with a DeprecatedOperationError.
func (h *StopAppointmentRecurringHandler) Handle(ctx context.Context, cmd StopAppointmentRecurringCommand) error {
	return &domain.DeprecatedOperationError{
		Operation:   "stop appointment recurring",
		Replacement: "stop or delete the recurrence family (family delete)",
	}
}
