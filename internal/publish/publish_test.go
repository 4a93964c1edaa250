package publish

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/specialistvlad/xsbenchgo/internal/history"
	"github.com/stretchr/testify/require"
	server "github.com/zishang520/socket.io/v2/socket"
)

// startServer runs an in-process socket.io server. Every payload received
// under DefaultEvent is forwarded to the returned channel and, when ackEvent
// is set, answered with it.
func startServer(t *testing.T, ackEvent string) (string, <-chan map[string]any) {
	t.Helper()

	received := make(chan map[string]any, 1)
	io := server.NewServer(nil, nil)
	err := io.On("connection", func(clients ...any) {
		client := clients[0].(*server.Socket)
		_ = client.On(DefaultEvent, func(args ...any) {
			if len(args) > 0 {
				if body, ok := args[0].(map[string]any); ok {
					select {
					case received <- body:
					default:
					}
				}
			}
			if ackEvent != "" {
				_ = client.Emit(ackEvent, "ok")
			}
		})
	})
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.Handle("/socket.io/", io.ServeHandler(nil))
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		io.Close(nil)
		srv.Close()
	})
	return srv.URL, received
}

func TestParseURL(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		raw     string
		wantErr string
	}{
		{name: "http", raw: "http://localhost:3000"},
		{name: "wss with path", raw: "wss://dash.example.com/socket.io/"},
		{name: "empty", raw: "", wantErr: "empty"},
		{name: "bad scheme", raw: "ftp://host", wantErr: "unsupported"},
		{name: "no host", raw: "http:///path", wantErr: "no host"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseURL(tc.raw)
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	p, err := New(Options{URL: "http://localhost:3000/custom/"})
	require.NoError(t, err)
	require.Equal(t, "http://localhost:3000", p.baseURL)
	require.Equal(t, "/custom/", p.path)
	require.Equal(t, "/", p.opts.Namespace)
	require.Equal(t, DefaultEvent, p.opts.Event)
	require.Equal(t, DefaultTimeout, p.opts.Timeout)

	p, err = New(Options{URL: "http://localhost:3000/"})
	require.NoError(t, err)
	require.Empty(t, p.path)
}

func TestPayload(t *testing.T) {
	t.Parallel()

	rec := history.Record{
		RunID:            "run-1",
		StartedAt:        time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Mode:             "verification",
		Size:             "small",
		Threads:          2,
		Isotopes:         68,
		GridPoints:       100,
		Lookups:          1000,
		Replicas:         1,
		ElapsedSeconds:   0.5,
		LookupsPerSecond: 2000,
		Checksum:         18446744073709551615,
	}

	got := Payload(rec)

	require.Equal(t, "run-1", got["run_id"])
	require.Equal(t, "2026-01-02T03:04:05Z", got["started_at"])
	require.Equal(t, "18446744073709551615", got["checksum"])
	require.Equal(t, 68, got["isotopes"])
	require.Len(t, got, 12)
}

func TestPublish_UnreachableServerFails(t *testing.T) {
	t.Parallel()

	p, err := New(Options{URL: "http://127.0.0.1:1", Timeout: 2 * time.Second})
	require.NoError(t, err)

	err = p.Publish(context.Background(), history.Record{RunID: "x"})
	require.Error(t, err)
}

func TestPublish_WaitsForAck(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	url, received := startServer(t, "xsbench:stored")
	p, err := New(Options{URL: url, AckEvent: "xsbench:stored", Timeout: 5 * time.Second})
	require.NoError(t, err)

	// --- Act ---
	err = p.Publish(context.Background(), history.Record{RunID: "run-42", Checksum: 7})

	// --- Assert ---
	require.NoError(t, err)
	select {
	case body := <-received:
		require.Equal(t, "run-42", body["run_id"])
		require.Equal(t, "7", body["checksum"])
	case <-time.After(5 * time.Second):
		t.Fatal("server never received the run result")
	}
}

func TestPublish_AckTimeout(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	url, received := startServer(t, "")
	p, err := New(Options{URL: url, AckEvent: "xsbench:stored", Timeout: time.Second})
	require.NoError(t, err)

	// --- Act ---
	err = p.Publish(context.Background(), history.Record{RunID: "run-43"})

	// --- Assert ---
	require.ErrorContains(t, err, "waiting for event 'xsbench:stored'")
	select {
	case body := <-received:
		require.Equal(t, "run-43", body["run_id"])
	case <-time.After(5 * time.Second):
		t.Fatal("server never received the run result")
	}
}
