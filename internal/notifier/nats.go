package notifier

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/avankov/pixvault/internal/logging"
)

// InvalidateSubject is the NATS subject cache workers subscribe to.
// The payload is the logical path that went stale.
const InvalidateSubject = "cache.invalidate"

// NATSNotifier publishes invalidation signals to a NATS subject.
type NATSNotifier struct {
	conn    *nats.Conn
	logger  logging.Logger
	publish func(subject string, data []byte) error
}

// NewNATSNotifier connects to the given NATS URL.
func NewNATSNotifier(url string, logger logging.Logger) (*NATSNotifier, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}
	return &NATSNotifier{conn: conn, logger: logger, publish: conn.Publish}, nil
}

// Invalidate publishes the stale path. Failures are logged and dropped;
// the mutation that triggered the signal has already committed.
func (n *NATSNotifier) Invalidate(ctx context.Context, path string) {
	if err := n.publish(InvalidateSubject, []byte(path)); err != nil {
		n.logger.Warn(ctx, "cache invalidation not delivered", "path", path, "error", err)
	}
}

// Close drains the underlying connection.
func (n *NATSNotifier) Close() {
	if n.conn != nil {
		n.conn.Close()
	}
}
