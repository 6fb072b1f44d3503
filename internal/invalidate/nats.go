package invalidate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubject carries invalidations between processes.
const DefaultSubject = "basebond.invalidate"

// Conn is the part of *nats.Conn the publisher uses.
type Conn interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher forwards invalidations to a NATS subject as JSON
// {"key": ..., "at": ...}.
type NATSPublisher struct {
	conn    Conn
	subject string
	close   func()
}

// DialNATS connects to url and returns a publisher on subject.
func DialNATS(url, subject string) (*NATSPublisher, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	conn, err := nats.Connect(url,
		nats.Name("basebond"),
		nats.Timeout(10*time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	p := NewNATSPublisher(conn, subject)
	p.close = func() {
		_ = conn.Flush()
		conn.Close()
	}
	return p, nil
}

// NewNATSPublisher wraps an existing connection.
func NewNATSPublisher(conn Conn, subject string) *NATSPublisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSPublisher{conn: conn, subject: subject}
}

// Forward publishes one event.
func (p *NATSPublisher) Forward(_ context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal invalidation: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish invalidation: %w", err)
	}
	return nil
}

// Close flushes and closes a connection opened by DialNATS.
func (p *NATSPublisher) Close() {
	if p.close != nil {
		p.close()
	}
}
