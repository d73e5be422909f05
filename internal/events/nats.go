package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATSForwarder republishes like events on NATS under "bookbazaar.<topic>"
// so other storefront replicas can refresh their views.
type NATSForwarder struct {
	nc     *nats.Conn
	logger *zap.Logger
}

func NewNATSForwarder(url string, timeout time.Duration, logger *zap.Logger) (*NATSForwarder, error) {
	opts := []nats.Option{
		nats.Name("bookbazaar"),
		nats.Timeout(timeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logger.Info("Connected to NATS", zap.String("url", nc.ConnectedUrl()))
	return &NATSForwarder{nc: nc, logger: logger}, nil
}

func Subject(topic string) string { return "bookbazaar." + topic }

func (f *NATSForwarder) Publish(topic string, data any) {
	b, err := json.Marshal(data)
	if err != nil {
		f.logger.Error("Failed to marshal event", zap.String("topic", topic), zap.Error(err))
		return
	}
	if err := f.nc.Publish(Subject(topic), b); err != nil {
		f.logger.Error("Failed to publish NATS message", zap.String("subject", Subject(topic)), zap.Error(err))
	}
}

func (f *NATSForwarder) Close() {
	if f.nc == nil || f.nc.IsClosed() {
		return
	}
	if err := f.nc.Drain(); err != nil {
		f.logger.Error("Error draining NATS connection", zap.Error(err))
	}
}
