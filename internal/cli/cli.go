// Package cli implements the source-coda command line: spec, check,
// discover and read, plus version.
//
// Protocol messages are written to stdout; logs go to stderr unless
// --log-format=protocol turns them into LOG messages. Every flag can also
// be set through a SOURCE_CODA_* environment variable.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ajitpratap0/source-coda/internal/pipeline"
	"github.com/ajitpratap0/source-coda/pkg/connector/core"
	"github.com/ajitpratap0/source-coda/pkg/connector/registry"
	"github.com/ajitpratap0/source-coda/pkg/connector/sources/coda"
	"github.com/ajitpratap0/source-coda/pkg/errors"
	"github.com/ajitpratap0/source-coda/pkg/json"
	"github.com/ajitpratap0/source-coda/pkg/logger"
	"github.com/ajitpratap0/source-coda/pkg/metrics"
	"github.com/ajitpratap0/source-coda/pkg/observability"
	"github.com/ajitpratap0/source-coda/pkg/output"
	"github.com/ajitpratap0/source-coda/pkg/protocol"

	// Register the available sources
	_ "github.com/ajitpratap0/source-coda/pkg/connector/sources"
)

const (
	envPrefix = "SOURCE_CODA"

	// InvalidCommandMessage is logged when no known operation was given
	InvalidCommandMessage = "Invalid command. Allowable commands: [spec, check, discover, read]"

	shutdownTimeout = 5 * time.Second
)

// Log formats
const (
	LogFormatJSON     = "json"
	LogFormatConsole  = "console"
	LogFormatProtocol = "protocol"
)

var errInvalidCommand = errors.New(errors.ErrorTypeValidation, "invalid command")

// Settings are the process-level options shared by every command
type Settings struct {
	LogLevel        string
	LogFormat       string
	Trace           bool
	MetricsTextfile string
	Output          string
	SpecFile        string
}

type app struct {
	stdout io.Writer
	stderr io.Writer
	v      *viper.Viper

	settings Settings
	emitter  *protocol.Emitter
	archive  *output.Tee
	log      *zap.Logger
	tracing  bool
}

// Execute runs the command line with args and returns the process exit
// code. A FAILED connection status is a normal completion.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{
		stdout:  stdout,
		stderr:  stderr,
		v:       viper.New(),
		emitter: protocol.NewEmitter(stdout),
		log:     zap.New(logger.NewWriterCore(LogFormatJSON, stderr)),
	}
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	ctx = context.WithValue(ctx, logger.JobIDKey, uuid.NewString())
	ctx = context.WithValue(ctx, logger.ConnectorKey, coda.ConnectorName)

	err := root.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, errInvalidCommand) {
		a.log.Error("command failed",
			zap.String("error_type", string(errors.TypeOf(err))),
			zap.Error(err))
	}
	a.finish()

	if err != nil {
		return 1
	}
	return 0
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "source-coda",
		Short: "Coda source connector",
		Long: `source-coda reads documents, tables and rows from the Coda API and
speaks the newline-delimited JSON connector protocol on stdout.`,
		Args:              cobra.ArbitraryArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.log.Debug("rejecting command", zap.Strings("args", args))
			if err := a.emitter.EmitLog(protocol.LogLevelError, InvalidCommandMessage); err != nil {
				return err
			}
			return errInvalidCommand
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.FParseErrWhitelist.UnknownFlags = true

	flags := root.PersistentFlags()
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", LogFormatJSON, "Log format: json, console or protocol")
	flags.Bool("trace", false, "Export OpenTelemetry spans to stderr")
	flags.String("metrics-textfile", "", "Write Prometheus metrics to this file on exit")
	flags.String("output", "", "Also archive protocol messages to file://, s3:// or gs:// (compressed by extension)")

	root.AddCommand(
		a.specCommand(),
		a.checkCommand(),
		a.discoverCommand(),
		a.readCommand(),
		a.versionCommand(),
	)
	return root
}

func (a *app) specCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spec",
		Short: "Output the connector specification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var doc json.RawMessage
			var err error
			if path := a.settings.SpecFile; path != "" {
				doc, err = coda.LoadSpecFile(path)
			} else {
				err = a.withSource(cmd.Context(), func(ctx context.Context, source core.Source) error {
					doc, err = source.Spec(ctx)
					return err
				})
			}
			if err != nil {
				return err
			}
			return a.emitter.EmitSpec(doc)
		},
	}
	cmd.Flags().String("spec-file", "", "Serve this spec.json instead of the built-in one")
	return cmd
}

func (a *app) checkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check the configuration can reach the Coda API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := readConfig(a.v.GetString("config"))
			if err != nil {
				return err
			}
			return a.withSource(cmd.Context(), func(ctx context.Context, source core.Source) error {
				status, err := source.Check(ctx, raw)
				if err != nil {
					return err
				}
				a.log.Info("check finished", zap.String("status", string(status.Status)))
				return a.emitter.EmitConnectionStatus(*status)
			})
		},
	}
	addConfigFlag(cmd)
	return cmd
}

func (a *app) discoverCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Output the catalog of available streams",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := readConfig(a.v.GetString("config"))
			if err != nil {
				return err
			}
			return a.withSource(cmd.Context(), func(ctx context.Context, source core.Source) error {
				catalog, err := source.Discover(ctx, raw)
				if err != nil {
					return err
				}
				return a.emitter.EmitCatalog(*catalog)
			})
		},
	}
	addConfigFlag(cmd)
	return cmd
}

func (a *app) readCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read records from the Coda API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := readConfig(a.v.GetString("config"))
			if err != nil {
				return err
			}
			catalog, err := protocol.ReadConfiguredCatalog(a.v.GetString("catalog"))
			if err != nil {
				return err
			}
			var state json.RawMessage
			if path := a.v.GetString("state"); path != "" {
				if state, err = protocol.ReadState(path); err != nil {
					return err
				}
			}

			return a.withSource(cmd.Context(), func(ctx context.Context, source core.Source) error {
				stats, err := pipeline.NewReadPipeline(source, a.emitter, a.log).Run(ctx, raw, catalog, state)
				if err != nil {
					return err
				}
				a.log.Info("read finished",
					zap.Int64("records", stats.Records),
					zap.Duration("duration", stats.Duration))
				return nil
			})
		},
	}
	addConfigFlag(cmd)
	cmd.Flags().String("catalog", "", "Path to the configured catalog JSON file (required)")
	cmd.Flags().String("state", "", "Path to the state JSON file")
	_ = cmd.MarkFlagRequired("catalog")
	return cmd
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "source-coda v%s\n", coda.Version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Path to the connector configuration JSON file (required)")
	_ = cmd.MarkFlagRequired("config")
}

// setup binds flags, then builds the emitter, logger and tracer for cmd
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to bind flags")
	}
	a.settings = Settings{
		LogLevel:        a.v.GetString("log-level"),
		LogFormat:       a.v.GetString("log-format"),
		Trace:           a.v.GetBool("trace"),
		MetricsTextfile: a.v.GetString("metrics-textfile"),
		Output:          a.v.GetString("output"),
		SpecFile:        a.v.GetString("spec-file"),
	}

	ctx := context.WithValue(cmd.Context(), logger.OperationKey, cmd.Name())
	cmd.SetContext(ctx)

	if a.settings.Output != "" {
		sink, err := output.Open(ctx, a.settings.Output)
		if err != nil {
			return err
		}
		a.archive = output.NewTee(a.stdout, sink, a.log)
		a.emitter = protocol.NewEmitter(a.archive)
	}

	var logCore zapcore.Core
	switch a.settings.LogFormat {
	case LogFormatJSON, LogFormatConsole:
		logCore = logger.NewWriterCore(a.settings.LogFormat, a.stderr)
	case LogFormatProtocol:
		logCore = protocol.NewLogCore(a.emitter, zapcore.DebugLevel)
	default:
		return errors.New(errors.ErrorTypeConfig,
			fmt.Sprintf("unknown log format %q", a.settings.LogFormat))
	}
	l, err := logger.New(logger.Config{Level: a.settings.LogLevel, Core: logCore})
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to configure logging")
	}
	logger.Set(l)
	a.log = logger.WithContext(ctx)

	if a.settings.Trace {
		tc := observability.DefaultTracingConfig()
		tc.ServiceVersion = coda.Version
		tc.Writer = a.stderr
		if err := observability.InitTracing(ctx, tc); err != nil {
			return err
		}
		a.tracing = true
	}
	return nil
}

// withSource creates the registered source, runs fn and closes the source
func (a *app) withSource(ctx context.Context, fn func(context.Context, core.Source) error) error {
	source, err := registry.CreateSource(coda.ConnectorName)
	if err != nil {
		return err
	}
	defer func() {
		if err := source.Close(ctx); err != nil {
			a.log.Warn("failed to close source", zap.Error(err))
		}
	}()
	return fn(ctx, source)
}

// finish flushes everything that outlives the command: spans, the metrics
// textfile, the archive and buffered logs.
func (a *app) finish() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.tracing {
		if err := observability.Shutdown(ctx); err != nil {
			a.log.Warn("failed to flush spans", zap.Error(err))
		}
	}

	if path := a.settings.MetricsTextfile; path != "" {
		if _, err := metrics.SampleProcessMemory(); err != nil {
			a.log.Debug("failed to sample process memory", zap.Error(err))
		}
		if err := metrics.WriteTextfile(path); err != nil {
			a.log.Warn("failed to write metrics textfile", zap.String("path", path), zap.Error(err))
		}
	}

	if a.archive != nil {
		if err := a.archive.Close(); err != nil {
			a.log.Warn("failed to close output archive", zap.String("output", a.settings.Output), zap.Error(err))
		}
	}

	_ = a.log.Sync()
}

func readConfig(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read config file").
			WithDetail("path", path)
	}
	return data, nil
}
