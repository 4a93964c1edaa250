package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/xsbenchgo/internal/app"
	"github.com/specialistvlad/xsbenchgo/internal/config"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// stringList collects a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
// Only simulation flags given explicitly end up in Config.Flags, so that
// run files can supply the rest.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("xsbench", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
XSBench - A unionized energy grid cross-section lookup benchmark.

Usage:
  xsbench [options] [RUN_FILE...]

Arguments:
  RUN_FILE
    Path to a .hcl run file or a directory of them. Later files override
    earlier ones; command-line flags override every file.

Options:
`)
		flagSet.PrintDefaults()
	}

	var (
		threads, isotopes, gridpoints, lookups, replicas int
		size, strategy                                   string
		verify                                           bool
		runFiles                                         stringList
	)
	flagSet.IntVar(&threads, "t", 0, "Number of worker threads (shorthand). Defaults to the CPU count.")
	flagSet.IntVar(&threads, "threads", 0, "Number of worker threads. Defaults to the CPU count.")
	flagSet.StringVar(&size, "s", app.DefaultSize, "Problem size preset (shorthand).")
	flagSet.StringVar(&size, "size", app.DefaultSize, "Problem size preset. Options: 'small', 'large', 'XL', 'XXL'.")
	flagSet.IntVar(&isotopes, "n", 0, "Number of nuclides (shorthand). Defaults to the size preset.")
	flagSet.IntVar(&isotopes, "isotopes", 0, "Number of nuclides. Defaults to the size preset.")
	flagSet.IntVar(&gridpoints, "g", app.DefaultGridPoints, "Gridpoints per nuclide (shorthand). Overrides the XL and XXL presets.")
	flagSet.IntVar(&gridpoints, "gridpoints", app.DefaultGridPoints, "Gridpoints per nuclide. Overrides the XL and XXL presets.")
	flagSet.IntVar(&lookups, "l", app.DefaultLookups, "Number of cross-section lookups (shorthand).")
	flagSet.IntVar(&lookups, "lookups", app.DefaultLookups, "Number of cross-section lookups.")
	flagSet.BoolVar(&verify, "verify", false, "Run in verification mode and print the checksum.")
	flagSet.StringVar(&strategy, "strategy", "indexed", "Verification stream sharing. Options: 'indexed', 'locked'.")
	flagSet.IntVar(&replicas, "replicas", app.DefaultReplicas, "Number of independent simulation replicas.")
	flagSet.Var(&runFiles, "run-file", "Path to a run file or directory. Repeatable.")

	snapshotFlag := flagSet.String("snapshot", "", "Grid snapshot mode. Options: 'dump', 'load'.")
	snapshotKeyFlag := flagSet.String("snapshot-key", "", "Snapshot object key. Defaults to a name derived from the problem shape.")
	snapshotOverwriteFlag := flagSet.Bool("snapshot-overwrite", false, "Replace an existing snapshot when dumping.")
	blobDriverFlag := flagSet.String("blob-driver", "", "Snapshot store. Options: 'fs', 's3', 'memory'. Falls back to XSBENCH_BLOB_DRIVER.")
	blobRootFlag := flagSet.String("blob-root", "", "Directory for the fs snapshot store. Falls back to XSBENCH_BLOB_FS_ROOT.")
	historyFlag := flagSet.String("history", "", "Run history DSN: 'memory', 'sqlite:<path>' or a postgres:// URL.")
	historyListFlag := flagSet.Int("history-list", 0, "Print the given number of recent runs from --history and exit.")
	snapshotListFlag := flagSet.Bool("snapshot-list", false, "Print the stored grid snapshots and exit. --snapshot-key filters by key prefix.")
	reportURLFlag := flagSet.String("report-url", "", "socket.io server that receives the run result.")
	reportNamespaceFlag := flagSet.String("report-namespace", "/", "socket.io namespace for the run result.")
	reportEventFlag := flagSet.String("report-event", "", "socket.io event name for the run result.")
	reportAckEventFlag := flagSet.String("report-ack-event", "", "socket.io event the server sends back to confirm the run result. Empty does not wait.")
	reportInsecureFlag := flagSet.Bool("report-insecure", false, "Skip TLS certificate verification for the report URL.")
	reportTimeoutFlag := flagSet.Duration("report-timeout", 0, "Timeout for publishing the run result. 0 uses the publisher default.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check and metrics server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	progressFlag := flagSet.Duration("progress", app.DefaultProgress, "Interval between progress log lines.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	var sim config.Simulation
	flagSet.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t", "threads":
			sim.Threads = &threads
		case "s", "size":
			sim.Size = &size
		case "n", "isotopes":
			sim.Isotopes = &isotopes
		case "g", "gridpoints":
			sim.GridPoints = &gridpoints
		case "l", "lookups":
			sim.Lookups = &lookups
		case "verify":
			sim.Verify = &verify
		case "strategy":
			sim.Strategy = &strategy
		case "replicas":
			sim.Replicas = &replicas
		}
	})
	runFiles = append(runFiles, flagSet.Args()...)
	slog.Debug("Explicit simulation flags collected.", "run_files", len(runFiles))

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	cfg, err := app.NewConfig(app.Config{
		Flags:             sim,
		RunFiles:          runFiles,
		Snapshot:          strings.ToLower(*snapshotFlag),
		SnapshotKey:       *snapshotKeyFlag,
		SnapshotOverwrite: *snapshotOverwriteFlag,
		BlobDriver:        *blobDriverFlag,
		BlobRoot:          *blobRootFlag,
		HistoryDSN:        *historyFlag,
		HistoryList:       *historyListFlag,
		SnapshotList:      *snapshotListFlag,
		ReportURL:         *reportURLFlag,
		ReportNamespace:   *reportNamespaceFlag,
		ReportEvent:       *reportEventFlag,
		ReportAckEvent:    *reportAckEventFlag,
		ReportTimeout:     *reportTimeoutFlag,
		ReportInsecure:    *reportInsecureFlag,
		LogFormat:         logFormat,
		LogLevel:          logLevel,
		HealthcheckPort:   *healthPortFlag,
		ProgressInterval:  *progressFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.")
	return cfg, false, nil
}
