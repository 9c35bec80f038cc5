package resource

import (
	"context"
	"io"
	"sync"
)

// LinkedService is a configured, connectable link to one backend service.
// Construction is cheap and performs no I/O; Connect establishes the live
// handle. A single service is typically shared by several datasets.
type LinkedService interface {
	Info() Info
	Settings() Settings

	// Connect establishes the backend handle. Calling it again
	// re-establishes the connection, replacing the previous handle.
	Connect(ctx context.Context) error

	// Connection returns the live backend handle. Before Connect, or
	// after Close, it fails with a connection-kind error.
	Connection() (any, error)

	// TestConnection probes backend liveness. It never returns an error
	// value: a failed probe yields (false, reason).
	TestConnection(ctx context.Context) (healthy bool, message string)

	// Close releases the handle. Closing an unconnected or already
	// closed service is a nil no-op.
	Close() error
}

// Connector supplies the backend-specific connection logic behind a
// ServiceBase. Open classifies its failures into the contract taxonomy
// (connection, authentication, permission).
type Connector interface {
	Open(ctx context.Context) (any, error)
	Ping(ctx context.Context, handle any) error
	Shutdown(handle any) error
}

// ServiceBase carries the LinkedService bookkeeping around a provider's
// Connector: handle storage, connect/close idempotence, and the
// non-raising liveness probe.
type ServiceBase struct {
	info     Info
	settings Settings
	conn     Connector

	mu     sync.Mutex
	handle any
	open   bool
}

// NewServiceBase binds service identity and settings to a Connector.
func NewServiceBase(info Info, settings Settings, conn Connector) *ServiceBase {
	return &ServiceBase{info: info, settings: settings, conn: conn}
}

func (b *ServiceBase) Info() Info         { return b.info }
func (b *ServiceBase) Settings() Settings { return b.settings }

// Connect establishes or re-establishes the backend handle. A previous
// handle is shut down best-effort after the new one is in place.
func (b *ServiceBase) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return Wrap(KindConnection, err, "connect aborted")
	}
	handle, err := b.conn.Open(ctx)
	if err != nil {
		return coerceError(KindConnection, err, "connect failed")
	}

	b.mu.Lock()
	prev, wasOpen := b.handle, b.open
	b.handle, b.open = handle, true
	b.mu.Unlock()

	if wasOpen && prev != nil {
		_ = b.conn.Shutdown(prev)
	}
	return nil
}

// Connection returns the live backend handle.
func (b *ServiceBase) Connection() (any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return nil, New(KindConnection, "linked service is not connected")
	}
	return b.handle, nil
}

// Connected reports whether Connect has succeeded and Close has not run
// since.
func (b *ServiceBase) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

// TestConnection pings the backend through the Connector. A service that
// was never connected reports unhealthy rather than failing.
func (b *ServiceBase) TestConnection(ctx context.Context) (bool, string) {
	b.mu.Lock()
	handle, open := b.handle, b.open
	b.mu.Unlock()

	if !open {
		return false, "not connected"
	}
	if err := b.conn.Ping(ctx, handle); err != nil {
		return false, err.Error()
	}
	return true, "ok"
}

// Close shuts the handle down and forgets it. Repeat closes are nil
// no-ops.
func (b *ServiceBase) Close() error {
	b.mu.Lock()
	handle, open := b.handle, b.open
	b.handle, b.open = nil, false
	b.mu.Unlock()

	if !open {
		return nil
	}
	if err := b.conn.Shutdown(handle); err != nil {
		return coerceError(KindLinkedService, err, "close failed")
	}
	return nil
}

// With runs fn against v and always closes v on the way out, whether fn
// succeeded or not. fn's error takes precedence over the close error.
func With[T io.Closer](v T, fn func(T) error) error {
	err := fn(v)
	if cerr := v.Close(); err == nil {
		err = cerr
	}
	return err
}
