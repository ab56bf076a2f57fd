package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rotahq/rota/pkg/observability"
)

var (
	verbose bool
	logger  *slog.Logger
)

type startedAtKey struct{}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rota",
	Short: "Rota - recurring visit scheduling for cleaning crews",
	Long: `Rota schedules recurring cleaning visits. A recurrence family owns a
cadence rule; each cycle projects one unconfirmed visit that the operator
confirms, skips or moves. Families that miss a confirmation stop instead of
piling up stale bookings.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if logger == nil {
			logger = slog.Default()
		}
		ctx := observability.WithCorrelationID(cmd.Context(), "")
		ctx = observability.WithOperation(ctx, cmd.CommandPath())
		if operator := os.Getenv("ROTA_OPERATOR"); operator != "" {
			ctx = observability.WithOperatorID(ctx, operator)
		}
		cmd.SetContext(context.WithValue(ctx, startedAtKey{}, time.Now()))
		logger.Debug("command start",
			"command", cmd.CommandPath(),
			"correlation_id", observability.CorrelationIDFromContext(ctx),
		)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger == nil {
			logger = slog.Default()
		}
		startedAt, ok := cmd.Context().Value(startedAtKey{}).(time.Time)
		if !ok {
			return
		}
		logger.Debug("command end",
			"command", cmd.CommandPath(),
			"correlation_id", observability.CorrelationIDFromContext(cmd.Context()),
			"duration_ms", time.Since(startedAt).Milliseconds(),
		)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ExecuteContext(context.Background())
}

// ExecuteContext runs the root command under the given context so in-flight
// database work observes shutdown signals.
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// AddCommand adds a command to the root command.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// SetLogger sets the CLI logger.
func SetLogger(l *slog.Logger) {
	logger = l
}
