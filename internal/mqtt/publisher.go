// Package mqtt bridges received flight telemetry onto an MQTT broker, so
// dashboards and loggers off the field can follow a flight live.
package mqtt

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/roman-kulish/rocket-telemetry/internal/telemetry"
)

const publishTimeout = 5 * time.Second

// Config selects the broker and topic for the bridge.
type Config struct {
	Broker   string `yaml:"broker"` // host:port
	ClientID string `yaml:"clientID"`
	Topic    string `yaml:"topic"`
}

// Enabled reports whether a broker has been configured.
func (c Config) Enabled() bool { return c.Broker != "" }

// message is the JSON shape published per telemetry record.
type message struct {
	Peer            string    `json:"peer"`
	ReceivedAt      time.Time `json:"receivedAt"`
	TimeMS          uint32    `json:"timeMs"`
	AltitudeFt      float32   `json:"altitudeFt"`
	TemperatureC    float32   `json:"temperatureC"`
	BatteryVoltageV float32   `json:"batteryVoltageV"`
	Retransmitted   bool      `json:"retransmitted,omitempty"`
}

// WithPublisherLogger sets the logger.
func WithPublisherLogger(logger *slog.Logger) func(*Publisher) {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// Publisher forwards telemetry records to an MQTT topic. Publishing is
// best effort: a slow or absent broker costs a warning, never the receive
// loop.
type Publisher struct {
	client paho.Client
	topic  string
	logger *slog.Logger
}

// NewPublisher connects to the broker described by cfg.
func NewPublisher(cfg Config, options ...func(*Publisher)) (*Publisher, error) {
	p := &Publisher{
		topic:  cfg.Topic,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(p)
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", cfg.Broker))
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	logger := p.logger
	opts.SetOnConnectHandler(func(paho.Client) {
		logger.Info("mqtt connected", slog.String("broker", cfg.Broker))
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.Warn("mqtt connection lost", slog.String("error", err.Error()))
	})

	p.client = paho.NewClient(opts)

	token := p.client.Connect()
	if token.WaitTimeout(publishTimeout) && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return p, nil
}

// Publish forwards one record. QoS 0: losing a live sample to the broker
// is acceptable, the flight log keeps the durable copy.
func (p *Publisher) Publish(peer string, receivedAt time.Time, r telemetry.Record, retransmitted bool) {
	payload, err := json.Marshal(message{
		Peer:            peer,
		ReceivedAt:      receivedAt.UTC(),
		TimeMS:          r.TimeMS,
		AltitudeFt:      r.AltitudeFt,
		TemperatureC:    r.TemperatureC,
		BatteryVoltageV: r.BatteryVoltageV,
		Retransmitted:   retransmitted,
	})
	if err != nil {
		p.logger.Error("marshaling telemetry message", slog.String("error", err.Error()))
		return
	}

	token := p.client.Publish(p.topic, 0, false, payload)
	if token.WaitTimeout(publishTimeout) && token.Error() != nil {
		p.logger.Warn("mqtt publish failed", slog.String("error", token.Error().Error()))
	}
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
