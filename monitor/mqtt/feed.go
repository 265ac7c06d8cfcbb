// Package mqtt carries dashboard reports over an MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/absmach/fldash/monitor"
	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	connTimeout       = 10 * time.Second
	maxReconnInterval = time.Minute
	disconnQuiesce    = 250
)

var (
	errEmptyAddress = errors.New("empty broker address")
	errEmptyTopic   = errors.New("empty report topic")
	errEmptyID      = errors.New("empty client ID")
	errInvalidQoS   = errors.New("qos must be 0, 1 or 2")
	errTimeout      = errors.New("timeout reached waiting for the broker")
)

type Config struct {
	Address  string
	ClientID string
	Username string
	Password string
	Topic    string
	QoS      byte
	// Timeout bounds every broker round trip. Zero waits indefinitely.
	Timeout time.Duration
}

func (c Config) validate() error {
	switch {
	case c.Address == "":
		return errEmptyAddress
	case c.Topic == "":
		return errEmptyTopic
	case c.ClientID == "":
		return errEmptyID
	case c.QoS > 2:
		return errInvalidQoS
	}

	return nil
}

type ReportHandler func(r monitor.Report)

// Feed publishes reports to one topic and follows reports published there.
type Feed struct {
	client  paho.Client
	topic   string
	qos     byte
	timeout time.Duration
	logger  *slog.Logger
}

var _ monitor.Publisher = (*Feed)(nil)

func NewFeed(cfg Config, logger *slog.Logger) (*Feed, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := paho.NewClient(clientOptions(cfg, logger))
	if err := wait(client.Connect(), cfg.Timeout); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", cfg.Address, err)
	}

	return newFeed(client, cfg, logger), nil
}

func newFeed(client paho.Client, cfg Config, logger *slog.Logger) *Feed {
	return &Feed{
		client:  client,
		topic:   cfg.Topic,
		qos:     cfg.QoS,
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

func (f *Feed) Topic() string {
	return f.topic
}

// Publish sends r as JSON. The broker retains it, so a new follower starts
// from the latest report.
func (f *Feed) Publish(ctx context.Context, r monitor.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}

	if err := wait(f.client.Publish(f.topic, f.qos, true, payload), f.timeout); err != nil {
		return fmt.Errorf("failed to publish report for epoch %d: %w", r.Epoch, err)
	}

	return nil
}

// Follow calls h with every report received on the topic until ctx ends.
// Payloads that do not decode as a report are logged and dropped.
func (f *Feed) Follow(ctx context.Context, h ReportHandler) error {
	handler := func(_ paho.Client, m paho.Message) {
		var r monitor.Report
		if err := json.Unmarshal(m.Payload(), &r); err != nil {
			f.logger.Warn("Dropped malformed report",
				slog.String("topic", m.Topic()),
				slog.Any("error", err))

			return
		}
		h(r)
	}

	if err := wait(f.client.Subscribe(f.topic, f.qos, handler), f.timeout); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", f.topic, err)
	}

	<-ctx.Done()

	if err := wait(f.client.Unsubscribe(f.topic), f.timeout); err != nil {
		return fmt.Errorf("failed to unsubscribe from %s: %w", f.topic, err)
	}

	return nil
}

func (f *Feed) Close() {
	f.client.Disconnect(disconnQuiesce)
}

func wait(t paho.Token, timeout time.Duration) error {
	if timeout <= 0 {
		t.Wait()
	} else if !t.WaitTimeout(timeout) {
		return errTimeout
	}

	return t.Error()
}

func clientOptions(cfg Config, logger *slog.Logger) *paho.ClientOptions {
	opts := paho.NewClientOptions().
		AddBroker(cfg.Address).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectTimeout(connTimeout).
		SetMaxReconnectInterval(maxReconnInterval)

	opts.SetOnConnectHandler(func(_ paho.Client) {
		logger.Info("Connected to MQTT broker",
			slog.String("broker", cfg.Address),
			slog.String("topic", cfg.Topic))
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.Warn("Lost MQTT connection",
			slog.String("broker", cfg.Address),
			slog.Any("error", err))
	})

	return opts
}
