// Package commands implements the CLI commands for mcptap.
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	adapter "github.com/mcptap/mcptap/internal/adapters/mcp"
	"github.com/mcptap/mcptap/internal/application/invoke"
	"github.com/mcptap/mcptap/internal/domain/target"
	"github.com/mcptap/mcptap/internal/infrastructure/config"
	"github.com/mcptap/mcptap/internal/infrastructure/logging"
	"github.com/mcptap/mcptap/internal/infrastructure/storage"
	"github.com/mcptap/mcptap/internal/infrastructure/tracing"
	"github.com/mcptap/mcptap/internal/presentation/cli/output"
)

// Version information - set at build time via ldflags.
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// TargetEnvVar names the environment variable consulted when no --target
// flag is given.
const TargetEnvVar = "MCP_TARGET"

// GlobalFlags holds the global CLI flags.
type GlobalFlags struct {
	ConfigFile string
	Target     string
	Verbosity  int
	Quiet      bool
}

// AppContext holds the application runtime context.
type AppContext struct {
	Config *config.Config
	Logger *logging.Logger
	Tracer *tracing.Tracer
	Flags  *GlobalFlags
}

var (
	globalFlags GlobalFlags
	appCtx      *AppContext
	appCtxMu    sync.RWMutex
)

// errReported marks errors already rendered to the user; Execute exits
// without printing them again.
var errReported = errors.New("error already reported")

// invalidTargetError marks a malformed --target / MCP_TARGET value. It maps
// to exit code 2 so scripts can tell usage mistakes from runtime failures.
type invalidTargetError struct {
	raw string
	err error
}

func (e *invalidTargetError) Error() string {
	return fmt.Sprintf("invalid target %q: %v", e.raw, e.err)
}

func (e *invalidTargetError) Unwrap() error { return e.err }

// NewRootCmd creates the root command for the mcptap CLI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mcptap",
		Short: "mcptap - Inspect and invoke MCP tool servers",
		Long: `mcptap talks to Model Context Protocol tool servers from the command line.

It spawns a server process, performs the initialization handshake, and lets
you list tools, inspect their input schemas, invoke them with coerced
parameters, and fuzz them with a wordlist.

The target server is taken from --target, the ` + TargetEnvVar + ` environment
variable, or the default_target config entry, in that order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "version" {
				return nil
			}
			return initializeApp(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVarP(&globalFlags.ConfigFile, "config", "c", "", "config file path (default: ~/.mcptap/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&globalFlags.Target, "target", "t", "", "target server: a command line to spawn, or a URL (also "+TargetEnvVar+")")
	rootCmd.PersistentFlags().CountVarP(&globalFlags.Verbosity, "verbose", "v", "increase log verbosity (-v, -vv)")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Quiet, "quiet", "q", false, "only log errors")

	rootCmd.AddCommand(NewVersionCmd())
	rootCmd.AddCommand(NewListCmd())
	rootCmd.AddCommand(NewGetCmd())
	rootCmd.AddCommand(NewExecCmd())
	rootCmd.AddCommand(NewFuzzCmd())
	rootCmd.AddCommand(NewHistoryCmd())

	return rootCmd
}

// initializeApp loads config, builds the logger and tracer, and validates
// any globally supplied target early.
func initializeApp(ctx context.Context) error {
	cfg, err := loadConfig(globalFlags.ConfigFile)
	if err != nil {
		return err
	}

	level := logging.DeriveLevel(globalFlags.Verbosity, globalFlags.Quiet)
	if !flagLevelSet() && cfg.Logging.Level != "" {
		level = logging.Level(cfg.Logging.Level)
	}
	logCfg := logging.DefaultConfig()
	logCfg.Level = level
	if cfg.Logging.Format == string(logging.FormatJSON) {
		logCfg.Format = logging.FormatJSON
	}
	logger := logging.New(logCfg)

	tracer := tracing.Noop()
	if cfg.Tracing.Enabled {
		tracer, err = tracing.New(ctx, tracing.Config{
			Enabled:      true,
			ExporterType: tracing.ExporterType(cfg.Tracing.ExporterType),
			OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
			ServiceName:  cfg.Tracing.ServiceName,
			SampleRate:   cfg.Tracing.SampleRate,
			Output:       os.Stderr,
		})
		if err != nil {
			logger.Warn("tracing disabled", "error", err)
			tracer = tracing.Noop()
		}
	}

	// A malformed global target fails every subcommand the same way, so
	// reject it up front.
	if raw := rawTarget(cfg); raw != "" {
		if _, err := target.Parse(raw); err != nil {
			return &invalidTargetError{raw: raw, err: err}
		}
	}

	appCtxMu.Lock()
	appCtx = &AppContext{
		Config: cfg,
		Logger: logger,
		Tracer: tracer,
		Flags:  &globalFlags,
	}
	appCtxMu.Unlock()

	return nil
}

// flagLevelSet reports whether -v or -q was given explicitly.
func flagLevelSet() bool {
	return globalFlags.Verbosity > 0 || globalFlags.Quiet
}

// loadConfig loads configuration from the specified file or default location.
func loadConfig(configPath string) (*config.Config, error) {
	loader, err := config.NewLoader("")
	if err != nil {
		return nil, fmt.Errorf("failed to create config loader: %w", err)
	}
	return loader.Load(configPath)
}

// GetAppContext returns the current application context, or nil before
// initialization. Thread-safe via mutex protection.
func GetAppContext() *AppContext {
	appCtxMu.RLock()
	defer appCtxMu.RUnlock()
	return appCtx
}

// getLogger returns the initialized logger, or a default one.
func getLogger() *logging.Logger {
	if ctx := GetAppContext(); ctx != nil {
		return ctx.Logger
	}
	return logging.New(logging.DefaultConfig())
}

// getTracer returns the initialized tracer, or a no-op one.
func getTracer() *tracing.Tracer {
	if ctx := GetAppContext(); ctx != nil {
		return ctx.Tracer
	}
	return tracing.Noop()
}

// rawTarget resolves the target string: flag, then environment, then config.
// Whitespace-only values count as absent.
func rawTarget(cfg *config.Config) string {
	if t := strings.TrimSpace(globalFlags.Target); t != "" {
		return t
	}
	if t := strings.TrimSpace(os.Getenv(TargetEnvVar)); t != "" {
		return t
	}
	if cfg != nil {
		return strings.TrimSpace(cfg.DefaultTarget)
	}
	return ""
}

// resolveTarget parses the effective target. A missing target yields
// (nil, nil) so callers can decide whether that is fatal.
func resolveTarget() (*target.Spec, error) {
	var cfg *config.Config
	if ctx := GetAppContext(); ctx != nil {
		cfg = ctx.Config
	}
	raw := rawTarget(cfg)
	if raw == "" {
		return nil, nil
	}
	return target.Parse(raw)
}

// newRunner builds the invocation runner backed by the stdio adapter.
func newRunner() *invoke.Runner {
	dial := func(ctx context.Context, spec *target.Spec) (invoke.Session, error) {
		return adapter.Connect(ctx, spec, "mcptap", Version)
	}
	return invoke.NewRunner(dial, getLogger(), getTracer())
}

// openHistory opens the invocation history store if enabled. A nil repo with
// nil error means history is disabled; open failures are logged and history
// is skipped rather than failing the command.
func openHistory() *storage.HistoryRepo {
	appContext := GetAppContext()
	if appContext == nil || !appContext.Config.History.Enabled {
		return nil
	}
	repo, err := storage.OpenHistory(config.ExpandPath(appContext.Config.History.Path))
	if err != nil {
		getLogger().Warn("history disabled", "error", err)
		return nil
	}
	return repo
}

// recordHistory appends a record, best effort.
func recordHistory(ctx context.Context, repo *storage.HistoryRepo, rec storage.Record) {
	if repo == nil {
		return
	}
	if err := repo.Append(ctx, rec); err != nil {
		getLogger().Warn("could not record invocation", "error", err)
	}
}

// newCommandFormatter builds the formatter for a command's stdout. JSON mode
// never colors so output stays machine-parseable.
func newCommandFormatter(cmd *cobra.Command, jsonMode bool) *output.Formatter {
	color := !jsonMode && output.IsColorSupported()
	return output.NewFormatter(
		output.WithWriter(cmd.OutOrStdout()),
		output.WithColor(color),
	)
}

// errorOutput is the JSON shape for failed operations.
type errorOutput struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// reportError renders an error in the active mode and returns a sentinel so
// Execute exits non-zero without printing it twice.
func reportError(f *output.Formatter, jsonMode bool, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if jsonMode {
		if err := f.JSON(errorOutput{Status: "error", Error: msg}); err != nil {
			return err
		}
	} else {
		if err := f.Error("%s", msg); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w: %s", errReported, msg)
}

// Execute runs the root command with signal handling.
func Execute() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-sigChan
		cancel()
	}()

	rootCmd := NewRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	shutdownTracer()
	if err == nil {
		return
	}

	var badTarget *invalidTargetError
	switch {
	case errors.Is(err, errReported):
		os.Exit(1)
	case errors.As(err, &badTarget):
		output.NewFormatter(output.WithWriter(os.Stderr), output.WithColor(output.IsColorSupported())).
			Error("%s", badTarget.Error())
		os.Exit(2)
	default:
		output.NewFormatter(output.WithWriter(os.Stderr), output.WithColor(output.IsColorSupported())).
			Error("%s", err.Error())
		os.Exit(1)
	}
}

// shutdownTracer flushes any buffered spans.
func shutdownTracer() {
	if ctx := GetAppContext(); ctx != nil && ctx.Tracer != nil {
		_ = ctx.Tracer.Shutdown(context.Background())
	}
}
