// Package cli is the ragent command line. Commands call the driving ports;
// the services behind them are built once per invocation by the Bootstrap
// function passed to Execute.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vippawar1104/RAG-agent/internal/core/ports/driving"
	"github.com/vippawar1104/RAG-agent/internal/logger"
)

// version is set at build time with -ldflags "-X .../cli.version=...".
var version = "dev"

// Global flags.
var (
	verbose   bool
	ephemeral bool
)

// Services wired by Bootstrap. Tests assign them directly.
var (
	settingsService  driving.SettingsService
	ingestionService driving.IngestionService
	queryService     driving.QueryService
	newWatcher       WatcherFactory
	checkProviders   func(ctx context.Context) error

	// pipelineErr explains why the ingestion and query services are nil.
	pipelineErr error

	bootstrap    Bootstrap
	closeService func()
)

// Runner is a long-running loop such as the directory watcher.
type Runner interface {
	Run(ctx context.Context) error
}

// WatcherFactory builds a watcher for dir. An empty schedule disables
// periodic rescans.
type WatcherFactory func(dir, schedule string) (Runner, error)

// Options are the global flags handed to Bootstrap.
type Options struct {
	Verbose   bool
	Ephemeral bool
}

// Services is what Bootstrap provides to the commands.
type Services struct {
	Settings  driving.SettingsService
	Ingestion driving.IngestionService
	Query     driving.QueryService
	Watcher   WatcherFactory

	// Check pings the configured providers.
	Check func(ctx context.Context) error

	// PipelineErr is set when settings loaded but the pipeline could not be
	// built, for example a provider without an API key. Settings commands
	// still work so the problem can be fixed.
	PipelineErr error

	// Close releases stores and provider clients.
	Close func()
}

// Bootstrap builds the services for one invocation.
type Bootstrap func(ctx context.Context, opts Options) (*Services, error)

var rootCmd = &cobra.Command{
	Use:   "ragent",
	Short: "Answer questions from your documents",
	Long: `ragent ingests documents into a vector index and answers questions
using only what those documents say.

Ingest files with 'ragent ingest', keep a directory in sync with
'ragent watch', then ask with 'ragent ask' or 'ragent chat'.
'ragent serve' exposes the same operations over HTTP and MCP.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug and progress logs")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false,
		"keep config, index and sessions in memory for this run only")
}

// Execute runs the root command with services from b. It cancels the
// command context on SIGINT or SIGTERM.
func Execute(b Bootstrap) error {
	bootstrap = b
	defer func() {
		if closeService != nil {
			closeService()
			closeService = nil
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if bootstrap == nil {
		return nil
	}

	svc, err := bootstrap(cmd.Context(), Options{Verbose: verbose, Ephemeral: ephemeral})
	if err != nil {
		return err
	}
	settingsService = svc.Settings
	ingestionService = svc.Ingestion
	queryService = svc.Query
	newWatcher = svc.Watcher
	checkProviders = svc.Check
	pipelineErr = svc.PipelineErr
	closeService = svc.Close
	return nil
}

func notConfigured(name string) error {
	if pipelineErr != nil {
		return fmt.Errorf("%s service not configured: %w", name, pipelineErr)
	}
	return errors.New(name + " service not configured")
}

func requireQuery() error {
	if queryService == nil {
		return notConfigured("query")
	}
	return nil
}

func requireIngestion() error {
	if ingestionService == nil {
		return notConfigured("ingestion")
	}
	return nil
}
