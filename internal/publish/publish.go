// Package publish pushes finished run results to a socket.io dashboard.
package publish

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/specialistvlad/xsbenchgo/internal/ctxlog"
	"github.com/specialistvlad/xsbenchgo/internal/history"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

const (
	// DefaultEvent is the event name results are emitted under.
	DefaultEvent = "xsbench:result"
	// DefaultTimeout bounds connecting and, when configured, waiting for the ack.
	DefaultTimeout = 15 * time.Second
)

// Options configures a Publisher.
type Options struct {
	URL       string
	Namespace string
	Event     string
	// AckEvent, when set, is a server event the publisher waits for after
	// emitting before it disconnects.
	AckEvent           string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// Publisher emits one event per published run over a short-lived
// websocket connection.
type Publisher struct {
	opts    Options
	baseURL string
	path    string
}

// New validates opts and fills defaults.
func New(opts Options) (*Publisher, error) {
	u, err := ParseURL(opts.URL)
	if err != nil {
		return nil, err
	}
	if opts.Namespace == "" {
		opts.Namespace = "/"
	}
	if opts.Event == "" {
		opts.Event = DefaultEvent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	p := &Publisher{opts: opts, baseURL: fmt.Sprintf("%s://%s", u.Scheme, u.Host)}
	if u.Path != "" && u.Path != "/" {
		p.path = u.Path
	}
	return p, nil
}

// ParseURL accepts http, https, ws and wss URLs with a host.
func ParseURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, errors.New("socket.io URL is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported socket.io URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("socket.io URL %q has no host", raw)
	}
	return u, nil
}

// Payload is the event body for rec. The checksum travels as a string since
// JSON numbers lose precision above 2^53.
func Payload(rec history.Record) map[string]any {
	return map[string]any{
		"run_id":             rec.RunID,
		"started_at":         rec.StartedAt.UTC().Format(time.RFC3339Nano),
		"mode":               rec.Mode,
		"size":               rec.Size,
		"threads":            rec.Threads,
		"isotopes":           rec.Isotopes,
		"grid_points":        rec.GridPoints,
		"lookups":            rec.Lookups,
		"replicas":           rec.Replicas,
		"elapsed_seconds":    rec.ElapsedSeconds,
		"lookups_per_second": rec.LookupsPerSecond,
		"checksum":           strconv.FormatUint(rec.Checksum, 10),
	}
}

// Publish connects, emits rec and disconnects.
func (p *Publisher) Publish(ctx context.Context, rec history.Record) error {
	logger := ctxlog.FromContext(ctx).With("publisher", "socketio", "url", p.baseURL, "event", p.opts.Event)

	opts := socket.DefaultOptions()
	if p.path != "" {
		opts.SetPath(p.path)
	}
	if p.opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))
	opts.SetReconnection(false)

	manager := socket.NewManager(p.baseURL, opts)
	io := manager.Socket(p.opts.Namespace, opts)
	defer io.Disconnect()

	// Only the first connection outcome is read; later ones are dropped.
	connected := make(chan error, 1)
	report := func(err error) {
		select {
		case connected <- err:
		default:
		}
	}
	io.Once(types.EventName("connect"), func(...any) {
		report(nil)
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		report(err)
	})
	acked := make(chan struct{}, 1)
	if p.opts.AckEvent != "" {
		io.Once(types.EventName(p.opts.AckEvent), func(...any) {
			select {
			case acked <- struct{}{}:
			default:
			}
		})
	}

	waitCtx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	logger.Debug("Connecting to socket.io server.")
	io.Connect()
	select {
	case err := <-connected:
		if err != nil {
			return fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-waitCtx.Done():
		return fmt.Errorf("timed out after %v waiting for socket.io connection", p.opts.Timeout)
	}

	logger.Debug("Emitting run result.", "sid", io.Id(), "runID", rec.RunID)
	if err := io.Emit(p.opts.Event, Payload(rec)); err != nil {
		return fmt.Errorf("failed to emit '%s': %w", p.opts.Event, err)
	}

	if p.opts.AckEvent != "" {
		select {
		case <-acked:
		case <-waitCtx.Done():
			return fmt.Errorf("timed out after %v waiting for event '%s'", p.opts.Timeout, p.opts.AckEvent)
		}
	}
	logger.Info("Run result published.", "runID", rec.RunID)
	return nil
}
