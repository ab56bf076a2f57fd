package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/rotahq/rota/adapter/cli"
	"github.com/rotahq/rota/adapter/cli/appointment"
	"github.com/rotahq/rota/adapter/cli/family"
	internalApp "github.com/rotahq/rota/internal/app"
	"github.com/rotahq/rota/internal/scheduling/domain"
	"github.com/rotahq/rota/internal/scheduling/infrastructure/persistence"
	"github.com/rotahq/rota/pkg/config"
	"github.com/rotahq/rota/pkg/observability"
)

func main() {
	logger := observability.LoggerFromEnv()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cli.SetLogger(logger)

	container, err := internalApp.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	// The CLI stages events in the outbox; in local mode nothing else will
	// drain it, so the processor runs alongside the command.
	if cfg.OutboxProcessorEnabled {
		if err := container.OutboxProcessor.Start(ctx); err != nil {
			logger.Error("failed to start outbox processor", "error", err)
			os.Exit(1)
		}
	}

	operatorID, err := uuid.Parse(cfg.OperatorID)
	if err != nil {
		logger.Error("invalid ROTA_OPERATOR_ID", "error", err)
		os.Exit(1)
	}

	cliApp := &cli.App{
		CreateFamilyHandler:       container.CreateFamilyHandler,
		ConfirmInstanceHandler:    container.ConfirmInstanceHandler,
		SkipInstanceHandler:       container.SkipInstanceHandler,
		MoveInstanceHandler:       container.MoveInstanceHandler,
		ReattachHandler:           container.ReattachHandler,
		StopFamilyHandler:         container.StopFamilyHandler,
		RestartFamilyHandler:      container.RestartFamilyHandler,
		DeleteFamilyHandler:       container.DeleteFamilyHandler,
		CreateAppointmentHandler:  container.CreateAppointmentHandler,
		UpdateAppointmentHandler:  container.UpdateAppointmentHandler,
		MakeRecurringHandler:      container.MakeRecurringHandler,
		StopRecurringHandler:      container.StopRecurringHandler,
		GetFamilyHandler:          container.GetFamilyHandler,
		SweepAndListActiveHandler: container.SweepAndListActiveHandler,
		OperatorID:                operatorID,
	}
	if container.SQLiteDB != nil {
		db := container.SQLiteDB
		cliApp.SeedTemplate = func(ctx context.Context, tmpl domain.Template) error {
			return persistence.SeedSQLiteTemplate(ctx, db, tmpl)
		}
	}
	cli.SetApp(cliApp)

	cli.AddCommand(family.Cmd)
	cli.AddCommand(appointment.Cmd)

	cli.ExecuteContext(ctx)
}
