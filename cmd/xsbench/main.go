package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/specialistvlad/xsbenchgo/internal/app"
	"github.com/specialistvlad/xsbenchgo/internal/cli"
	"github.com/specialistvlad/xsbenchgo/internal/hcl"
)

// main is the entrypoint for the xsbench application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := interruptContext(context.Background())
	defer stop()

	// The real main function handles errors and exit codes.
	if err := run(ctx, os.Stdout, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// interruptContext is cancelled by the first interrupt, after which the
// default signal handling is restored so a second one kills the process.
func interruptContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	go func() {
		<-ctx.Done()
		stop()
		if parent.Err() == nil {
			slog.Warn("Interrupt received, stopping after the current phase. Interrupt again to abort.")
		}
	}()
	return ctx, stop
}

// run encapsulates the main application logic for easier testing and error handling.
func run(ctx context.Context, outW io.Writer, args []string) (err error) {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// Recover here to turn a startup panic into a clean error.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application startup panicked: %v", r)
		}
	}()

	loader := hcl.NewLoader(hcl.WithNuclides(appConfig.Nuclides))
	xsApp, err := app.NewApp(outW, appConfig, loader)
	if err != nil {
		if errors.Is(err, app.ErrInvalidConfig) {
			return &cli.ExitError{Code: 2, Message: err.Error()}
		}
		return err
	}

	if appConfig.Listing() {
		return xsApp.List(ctx)
	}
	_, err = xsApp.Run(ctx)
	return err
}
