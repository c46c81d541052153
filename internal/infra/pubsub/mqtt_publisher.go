package pubsub

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"cleancity/config"
	"cleancity/internal/domain/service"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
)

const (
	mqttConnectTimeout = 10 * time.Second
	mqttQuiesceMillis  = 250
)

// mqttClient is the part of mqtt.Client the publisher needs.
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// mqttPublisher implements EventPublisher on an MQTT broker. Each event type
// gets its own topic under the configured prefix.
type mqttPublisher struct {
	client mqttClient
	prefix string
	qos    byte
	logger *slog.Logger
}

// NewMQTTPublisher connects to the broker and returns a publisher
func NewMQTTPublisher(cfg *config.MQTTConfig, topicPrefix string, logger *slog.Logger) (service.EventPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("[MQTT] Connection lost", slog.Any("error", err))
	})

	client := mqtt.NewClient(opts)

	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, errors.Errorf("timed out connecting to MQTT broker %s", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, errors.Wrap(err, "failed to connect to MQTT broker")
	}

	logger.Info("MQTT publisher initialized",
		slog.String("broker", cfg.Broker),
		slog.String("topic_prefix", topicPrefix),
	)

	return newMQTTPublisher(client, topicPrefix, cfg.QoS, logger), nil
}

func newMQTTPublisher(client mqttClient, prefix string, qos byte, logger *slog.Logger) *mqttPublisher {
	if prefix == "" {
		prefix = "cleancity/allotments"
	}

	return &mqttPublisher{
		client: client,
		prefix: prefix,
		qos:    qos,
		logger: logger,
	}
}

func (p *mqttPublisher) topic(event *service.AllotmentEvent) string {
	return p.prefix + "/" + string(event.Type)
}

// PublishAllotmentEvent publishes the JSON event and waits for the broker ack
func (p *mqttPublisher) PublishAllotmentEvent(ctx context.Context, event *service.AllotmentEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.WithStack(err)
	}

	topic := p.topic(event)
	token := p.client.Publish(topic, p.qos, false, payload)

	select {
	case <-token.Done():
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "publish to %s", topic)
	}

	if err := token.Error(); err != nil {
		return errors.Wrapf(err, "failed to publish to topic %s", topic)
	}

	p.logger.Debug("[MQTT] Event published",
		slog.String("topic", topic),
		slog.String("allotment_id", event.AllotmentID),
	)

	return nil
}

// Close disconnects from the broker
func (p *mqttPublisher) Close() error {
	p.client.Disconnect(mqttQuiesceMillis)

	return nil
}
