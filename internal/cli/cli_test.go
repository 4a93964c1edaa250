package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/specialistvlad/xsbenchgo/internal/app"
	"github.com/stretchr/testify/require"
)

func TestParse_OnlyExplicitFlagsOverride(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	args := []string{"-t", "4", "--size", "small", "-g", "100", "--verify", "--strategy", "locked", "a.hcl", "b.hcl"}
	out := &bytes.Buffer{}

	// --- Act ---
	cfg, shouldExit, err := Parse(args, out)

	// --- Assert ---
	require.NoError(t, err)
	require.False(t, shouldExit)
	require.Equal(t, 4, *cfg.Flags.Threads)
	require.Equal(t, "small", *cfg.Flags.Size)
	require.Equal(t, 100, *cfg.Flags.GridPoints)
	require.True(t, *cfg.Flags.Verify)
	require.Equal(t, "locked", *cfg.Flags.Strategy)
	require.Nil(t, cfg.Flags.Lookups, "unset flags must leave room for run files")
	require.Nil(t, cfg.Flags.Replicas)
	require.Nil(t, cfg.Flags.Isotopes)
	require.Equal(t, []string{"a.hcl", "b.hcl"}, cfg.RunFiles)
	require.Equal(t, "json", cfg.LogFormat)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, time.Second, cfg.ProgressInterval)
}

func TestParse_LongAndShortFormsShareValues(t *testing.T) {
	t.Parallel()

	cfg, _, err := Parse([]string{"--lookups", "42", "-n", "400", "--replicas", "2"}, &bytes.Buffer{})
	require.NoError(t, err)
	require.Equal(t, 42, *cfg.Flags.Lookups)
	require.Equal(t, 400, *cfg.Flags.Isotopes)
	require.Equal(t, 2, *cfg.Flags.Replicas)
}

func TestParse_SinksAndSnapshot(t *testing.T) {
	t.Parallel()

	args := []string{
		"--run-file", "x.hcl", "--run-file", "dir",
		"--snapshot", "DUMP", "--snapshot-key", "grid.snap", "--snapshot-overwrite",
		"--blob-driver", "fs", "--blob-root", "/tmp/snaps",
		"--history", "sqlite:runs.db", "--history-list", "7", "--snapshot-list",
		"--report-url", "http://localhost:3000", "--report-event", "done",
		"--report-ack-event", "stored", "--report-insecure", "--report-timeout", "3s",
		"--healthcheck-port", "8080", "--log-format", "TEXT", "--log-level", "debug",
		"--progress", "250ms",
	}
	cfg, _, err := Parse(args, &bytes.Buffer{})
	require.NoError(t, err)
	require.Equal(t, []string{"x.hcl", "dir"}, cfg.RunFiles)
	require.Equal(t, app.SnapshotDump, cfg.Snapshot)
	require.Equal(t, "grid.snap", cfg.SnapshotKey)
	require.True(t, cfg.SnapshotOverwrite)
	require.Equal(t, "fs", cfg.BlobDriver)
	require.Equal(t, "/tmp/snaps", cfg.BlobRoot)
	require.Equal(t, "sqlite:runs.db", cfg.HistoryDSN)
	require.Equal(t, 7, cfg.HistoryList)
	require.True(t, cfg.SnapshotList)
	require.Equal(t, "http://localhost:3000", cfg.ReportURL)
	require.Equal(t, "/", cfg.ReportNamespace)
	require.Equal(t, "done", cfg.ReportEvent)
	require.Equal(t, "stored", cfg.ReportAckEvent)
	require.True(t, cfg.ReportInsecure)
	require.Equal(t, 3*time.Second, cfg.ReportTimeout)
	require.Equal(t, 8080, cfg.HealthcheckPort)
	require.Equal(t, "text", cfg.LogFormat)
	require.Equal(t, 250*time.Millisecond, cfg.ProgressInterval)
}

func TestParse_Help(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	cfg, shouldExit, err := Parse([]string{"-h"}, out)
	require.NoError(t, err)
	require.True(t, shouldExit)
	require.Nil(t, cfg)
	require.Contains(t, out.String(), "Usage:")
	require.Contains(t, out.String(), "-gridpoints")
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{name: "unknown flag", args: []string{"--bogus"}, wantMsg: "flag provided but not defined"},
		{name: "non-numeric threads", args: []string{"-t", "many"}, wantMsg: "invalid value"},
		{name: "bad log format", args: []string{"--log-format", "xml"}, wantMsg: "invalid log-format"},
		{name: "bad log level", args: []string{"--log-level", "loud"}, wantMsg: "invalid log-level"},
		{name: "bad size", args: []string{"-s", "medium"}, wantMsg: "size must be"},
		{name: "zero lookups", args: []string{"-l", "0"}, wantMsg: "lookup count must be positive"},
		{name: "bad strategy", args: []string{"--strategy", "shuffled"}, wantMsg: "unknown verification strategy"},
		{name: "bad snapshot mode", args: []string{"--snapshot", "copy"}, wantMsg: "snapshot mode"},
		{name: "history list without store", args: []string{"--history-list", "5"}, wantMsg: "needs a history DSN"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := Parse(tc.args, &bytes.Buffer{})
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			require.Equal(t, 2, exitErr.Code)
			require.Contains(t, exitErr.Message, tc.wantMsg)
		})
	}
}
