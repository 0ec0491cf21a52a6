package watcher

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	logger "github.com/sirupsen/logrus"
)

const DefaultSubjectPrefix = "blindly"

// Publisher receives decoded events for auditing.
type Publisher interface {
	Publish(ctx context.Context, ev *Event) error
	Close() error
}

// LogPublisher writes events to the process log.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, ev *Event) error {
	fields := logger.Fields{
		"event":    ev.Name,
		"txHash":   ev.TxHash,
		"block":    ev.BlockNumber,
		"logIndex": ev.LogIndex,
	}
	for _, name := range ev.ArgNames() {
		fields[name] = ev.Args[name]
	}
	logger.WithFields(fields).Info("decoded mixer event")
	return nil
}

func (LogPublisher) Close() error {
	return nil
}

// MultiPublisher fans out to every publisher and joins their errors.
type MultiPublisher []Publisher

func (mp MultiPublisher) Publish(ctx context.Context, ev *Event) error {
	var errs []error
	for _, p := range mp {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (mp MultiPublisher) Close() error {
	var errs []error
	for _, p := range mp {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// natsConn is the subset of *nats.Conn used for publishing.
type natsConn interface {
	Publish(subj string, data []byte) error
	Drain() error
}

// NATSPublisher publishes events as json on <prefix>.<event name>.
type NATSPublisher struct {
	conn   natsConn
	prefix string
}

func NewNATSPublisher(url string, timeout time.Duration) (*NATSPublisher, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	conn, err := nats.Connect(url,
		nats.Name("blindly-relay-watcher"),
		nats.Timeout(timeout),
		nats.ReconnectWait(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warnf("nats disconnected: err=%v", err)
			natsConnected.Set(0)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Infof("nats reconnected: url=%s", nc.ConnectedUrl())
			natsConnected.Set(1)
		}),
	)
	if err != nil {
		return nil, err
	}
	natsConnected.Set(1)

	return newNATSPublisher(conn, DefaultSubjectPrefix), nil
}

func newNATSPublisher(conn natsConn, prefix string) *NATSPublisher {
	return &NATSPublisher{conn: conn, prefix: prefix}
}

func (p *NATSPublisher) Subject(ev *Event) string {
	return p.prefix + "." + ev.Name
}

func (p *NATSPublisher) Publish(ctx context.Context, ev *Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.conn.Publish(p.Subject(ev), data)
}

func (p *NATSPublisher) Close() error {
	natsConnected.Set(0)
	return p.conn.Drain()
}
