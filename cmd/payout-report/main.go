// Command payout-report prints a payout table for one or more employee
// CSV or XLSX files.
//
//	payout-report employees.csv contractors.csv --report payout
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kirielllka/empl-reports/internal/config"
	apperrors "github.com/kirielllka/empl-reports/internal/errors"
	"github.com/kirielllka/empl-reports/internal/infrastructure"
	"github.com/kirielllka/empl-reports/internal/services"
	"github.com/kirielllka/empl-reports/internal/validation"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2

	shutdownTimeout = 5 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("payout-report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	report := fs.String("report", "", "report type: "+strings.Join(validation.SupportedReports, ", "))
	configFile := fs.String("config", "", "YAML configuration file (defaults to $"+config.ConfigFileEnv+")")
	logLevel := fs.String("log-level", "", "log level override: debug, info, warn, error")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: payout-report FILE [FILE...] --report payout [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(interspersed(fs, args)); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	opts := validation.ReportOptions{
		Report:     *report,
		Files:      fs.Args(),
		ConfigFile: *configFile,
		LogLevel:   *logLevel,
	}
	if err := validation.NewOptionsValidator().Validate(opts); err != nil {
		fmt.Fprintf(stderr, "payout-report: %s\n", apperrors.Describe(err))
		fs.Usage()
		return exitUsage
	}

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		fmt.Fprintf(stderr, "payout-report: %s\n", apperrors.Describe(err))
		return exitError
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}

	logger, err := infrastructure.InitializeLoggerWithConsole(cfg.Logging, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "payout-report: failed to initialize logger: %v\n", err)
		return exitError
	}
	defer infrastructure.CloseLogFile()

	providers, err := infrastructure.InitializeOTel(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize OpenTelemetry", slog.String("error", err.Error()))
		return exitError
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to shut down OpenTelemetry", slog.String("error", err.Error()))
		}
	}()

	metrics, err := infrastructure.NewPayoutMetrics(providers.Meter)
	if err != nil {
		logger.Error("Failed to register metrics", slog.String("error", err.Error()))
		return exitError
	}

	svc := services.NewPayoutService(stdout, logger,
		services.WithTracer(providers.Tracer),
		services.WithMetrics(metrics),
		services.WithSheet(cfg.Input.Sheet),
	)
	svc.Run(ctx, opts.Files)

	return exitOK
}

// interspersed moves flags (and their values) ahead of positional arguments
// so that flags may follow the file list. Everything after "--" stays
// positional.
func interspersed(fs *flag.FlagSet, args []string) []string {
	var flags, positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(arg) < 2 || arg[0] != '-' {
			positional = append(positional, arg)
			continue
		}

		flags = append(flags, arg)
		name := strings.TrimLeft(arg, "-")
		if strings.Contains(name, "=") {
			continue
		}
		f := fs.Lookup(name)
		if f == nil || isBoolFlag(f) {
			continue
		}
		if i+1 < len(args) {
			i++
			flags = append(flags, args[i])
		}
	}

	return append(append(flags, "--"), positional...)
}

func isBoolFlag(f *flag.Flag) bool {
	bf, ok := f.Value.(interface{ IsBoolFlag() bool })
	return ok && bf.IsBoolFlag()
}
