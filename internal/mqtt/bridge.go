// Package mqtt feeds device samples published over MQTT into the same ingestion path
// as the HTTP gateway.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"plantar/internal/domain"
	"plantar/internal/identity"
	"plantar/internal/observability/metrics"
	"plantar/internal/schema"
	"plantar/internal/service"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const DefaultTopic = "plantar/devices/+/samples"

type Config struct {
	Broker   string
	Topic    string
	ClientID string
	Username string
	Password string
	QoS      byte
	// HandleTimeout bounds the store write for a single message.
	HandleTimeout time.Duration
}

// Ingester is the part of service.SampleService the bridge needs.
type Ingester interface {
	Ingest(ctx context.Context, in domain.SampleInput, source string) (*domain.Sample, error)
}

// envelope is the wire format of a device message.
type envelope struct {
	Secret string          `json:"secret"`
	Sample json.RawMessage `json:"sample"`
}

type Bridge struct {
	cfg     Config
	devices *identity.DeviceAuthenticator
	samples Ingester
	client  paho.Client
}

func NewBridge(cfg Config, devices *identity.DeviceAuthenticator, samples Ingester) *Bridge {
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	if cfg.ClientID == "" {
		cfg.ClientID = fmt.Sprintf("plantar-%d", time.Now().Unix())
	}
	if cfg.HandleTimeout <= 0 {
		cfg.HandleTimeout = 10 * time.Second
	}
	return &Bridge{cfg: cfg, devices: devices, samples: samples}
}

// Start connects and subscribes. The subscription is renewed on every reconnect.
func (b *Bridge) Start() error {
	opts := paho.NewClientOptions()
	opts.AddBroker(b.cfg.Broker)
	opts.SetClientID(b.cfg.ClientID)
	if b.cfg.Username != "" {
		opts.SetUsername(b.cfg.Username)
		opts.SetPassword(b.cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetOrderMatters(false)
	opts.OnConnect = func(c paho.Client) {
		tok := c.Subscribe(b.cfg.Topic, b.cfg.QoS, b.onMessage)
		tok.Wait()
		if err := tok.Error(); err != nil {
			slog.Error("mqtt subscribe failed", "topic", b.cfg.Topic, "error", err)
			return
		}
		slog.Info("mqtt subscribed", "topic", b.cfg.Topic, "qos", b.cfg.QoS)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		slog.Warn("mqtt connection lost", "error", err)
	}

	b.client = paho.NewClient(opts)
	if tok := b.client.Connect(); tok.Wait() && tok.Error() != nil {
		return fmt.Errorf("mqtt connect %s: %w", b.cfg.Broker, tok.Error())
	}
	slog.Info("mqtt connected", "broker", b.cfg.Broker, "client_id", b.cfg.ClientID)
	return nil
}

// Stop disconnects, waiting up to quiesce for in-flight work.
func (b *Bridge) Stop(quiesce time.Duration) {
	if b.client == nil {
		return
	}
	b.client.Disconnect(uint(quiesce.Milliseconds()))
	slog.Info("mqtt disconnected")
}

func (b *Bridge) onMessage(_ paho.Client, msg paho.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), b.cfg.HandleTimeout)
	defer cancel()
	if err := b.handle(ctx, msg.Payload()); err != nil {
		level := slog.LevelWarn
		if !isClientError(err) {
			level = slog.LevelError
		}
		slog.Log(ctx, level, "mqtt sample rejected",
			"topic", msg.Topic(),
			"message_id", msg.MessageID(),
			"error", err,
		)
	}
}

// handle authenticates and ingests one message body.
func (b *Bridge) handle(ctx context.Context, payload []byte) error {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		metrics.DeviceAuthAttemptsTotal.WithLabelValues("mqtt", "failure").Inc()
		return domain.FieldError("body", "must be a JSON envelope with secret and sample")
	}
	if !b.devices.Authenticate(env.Secret) {
		metrics.DeviceAuthAttemptsTotal.WithLabelValues("mqtt", "failure").Inc()
		return fmt.Errorf("%w: invalid device credentials", domain.ErrUnauthenticated)
	}
	metrics.DeviceAuthAttemptsTotal.WithLabelValues("mqtt", "success").Inc()

	in, err := schema.DecodeSample(env.Sample, nil)
	if err != nil {
		metrics.SamplesIngestedTotal.WithLabelValues(service.SourceMQTT, "invalid").Inc()
		return err
	}
	_, err = b.samples.Ingest(ctx, in, service.SourceMQTT)
	return err
}

func isClientError(err error) bool {
	for _, target := range []error{domain.ErrValidation, domain.ErrUnauthenticated, domain.ErrNotFound, domain.ErrConflict} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
