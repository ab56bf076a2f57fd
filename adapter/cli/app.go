// Package cli is the operator-facing command surface of the scheduling
// engine: booking recurrence families, confirming and moving visits, and
// inspecting the active roster.
package cli

import (
	"context"

	"github.com/google/uuid"

	scheduleCommands "github.com/rotahq/rota/internal/scheduling/application/commands"
	scheduleQueries "github.com/rotahq/rota/internal/scheduling/application/queries"
	"github.com/rotahq/rota/internal/scheduling/domain"
)

// App holds the CLI application dependencies.
type App struct {
	// Family command handlers
	CreateFamilyHandler    *scheduleCommands.CreateFamilyHandler
	ConfirmInstanceHandler *scheduleCommands.ConfirmInstanceHandler
	SkipInstanceHandler    *scheduleCommands.SkipInstanceHandler
	MoveInstanceHandler    *scheduleCommands.MoveInstanceHandler
	ReattachHandler        *scheduleCommands.ReattachRescheduledHandler
	StopFamilyHandler      *scheduleCommands.StopFamilyHandler
	RestartFamilyHandler   *scheduleCommands.RestartFamilyHandler
	DeleteFamilyHandler    *scheduleCommands.DeleteFamilyHandler

	// Appointment command handlers
	CreateAppointmentHandler *scheduleCommands.CreateAppointmentHandler
	UpdateAppointmentHandler *scheduleCommands.UpdateAppointmentHandler

	// Superseded per-appointment recurrence handlers
	MakeRecurringHandler *scheduleCommands.MakeAppointmentRecurringHandler
	StopRecurringHandler *scheduleCommands.StopAppointmentRecurringHandler

	// Query handlers
	GetFamilyHandler          *scheduleQueries.GetFamilyHandler
	SweepAndListActiveHandler *scheduleQueries.SweepAndListActiveHandler

	// SeedTemplate is set in local mode, where no upstream system provides
	// job templates.
	SeedTemplate func(ctx context.Context, tmpl domain.Template) error

	// OperatorID stamps outbox event metadata.
	OperatorID uuid.UUID
}

var currentApp *App

// SetApp sets the current CLI application.
func SetApp(a *App) {
	currentApp = a
}

// GetApp returns the current CLI application, nil when wiring failed.
func GetApp() *App {
	return currentApp
}
