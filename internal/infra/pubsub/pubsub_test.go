package pubsub

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cleancity/config"
	"cleancity/internal/domain/service"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
)

func testEvent() *service.AllotmentEvent {
	return &service.AllotmentEvent{
		RequestID:   "req-1",
		AllotmentID: "7f1c1f0e-8a7e-4a4e-9d55-0a4b1f7d2c11",
		Type:        service.AllotmentCollected,
		Status:      "PendingAcknowledgment",
		LabourID:    "LAB-0001",
		InchargerID: "INC-0001",
		Street:      "MG Road",
		Date:        "2024-01-01",
		UserIDs:     []string{"U1"},
		OccurredAt:  time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestLocalHTTPPublisher_Publish(t *testing.T) {
	var got PubSubPushMessage
	var requestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = r.Header.Get("X-Request-Id")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	publisher := NewLocalHTTPPublisher(server.URL, slog.New(slog.DiscardHandler))
	require.NoError(t, publisher.PublishAllotmentEvent(context.Background(), testEvent()))

	assert.Equal(t, "req-1", requestID)
	assert.Equal(t, "allotment.collected", got.Message.Attributes["event_type"])
	assert.Equal(t, "LAB-0001", got.Message.Attributes["labour_id"])

	raw, err := base64.StdEncoding.DecodeString(got.Message.Data)
	require.NoError(t, err)

	var event service.AllotmentEvent
	require.NoError(t, json.Unmarshal(raw, &event))
	assert.Equal(t, []string{"U1"}, event.UserIDs)
	assert.Equal(t, "PendingAcknowledgment", event.Status)
}

func TestLocalHTTPPublisher_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	publisher := NewLocalHTTPPublisher(server.URL, slog.New(slog.DiscardHandler))
	err := publisher.PublishAllotmentEvent(context.Background(), testEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

type fakeToken struct {
	err  error
	done chan struct{}
}

func newFakeToken(err error) *fakeToken {
	done := make(chan struct{})
	close(done)

	return &fakeToken{err: err, done: done}
}

func (t *fakeToken) Wait() bool                       { return true }
func (t *fakeToken) WaitTimeout(_ time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}            { return t.done }
func (t *fakeToken) Error() error                     { return t.err }

type fakeMQTTClient struct {
	topics       []string
	payloads     [][]byte
	qos          byte
	err          error
	disconnected bool
}

func (c *fakeMQTTClient) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	c.topics = append(c.topics, topic)
	c.payloads = append(c.payloads, payload.([]byte))
	c.qos = qos

	return newFakeToken(c.err)
}

func (c *fakeMQTTClient) Disconnect(uint) {
	c.disconnected = true
}

func TestMQTTPublisher_Publish(t *testing.T) {
	client := &fakeMQTTClient{}
	publisher := newMQTTPublisher(client, "city/allotments", 1, slog.New(slog.DiscardHandler))

	require.NoError(t, publisher.PublishAllotmentEvent(context.Background(), testEvent()))
	require.Len(t, client.topics, 1)
	assert.Equal(t, "city/allotments/allotment.collected", client.topics[0])
	assert.Equal(t, byte(1), client.qos)

	var event service.AllotmentEvent
	require.NoError(t, json.Unmarshal(client.payloads[0], &event))
	assert.Equal(t, "MG Road", event.Street)

	require.NoError(t, publisher.Close())
	assert.True(t, client.disconnected)
}

func TestMQTTPublisher_DefaultPrefixAndError(t *testing.T) {
	client := &fakeMQTTClient{err: errors.New("not connected")}
	publisher := newMQTTPublisher(client, "", 0, slog.New(slog.DiscardHandler))

	err := publisher.PublishAllotmentEvent(context.Background(), testEvent())
	require.Error(t, err)
	assert.Equal(t, "cleancity/allotments/allotment.collected", client.topics[0])
}

func TestNewEventPublisher(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	tests := []struct {
		name    string
		pubsub  *config.PubSubConfig
		wantErr string
	}{
		{name: "not configured", pubsub: nil},
		{name: "empty provider", pubsub: &config.PubSubConfig{}},
		{name: "local", pubsub: &config.PubSubConfig{Provider: "local", LocalEndpoint: "http://localhost:9/push"}},
		{name: "local without endpoint", pubsub: &config.PubSubConfig{Provider: "local"}, wantErr: "local endpoint"},
		{name: "google without project", pubsub: &config.PubSubConfig{Provider: "google"}, wantErr: "project ID"},
		{name: "mqtt without broker", pubsub: &config.PubSubConfig{Provider: "mqtt"}, wantErr: "mqtt.broker"},
		{name: "unknown", pubsub: &config.PubSubConfig{Provider: "kafka"}, wantErr: "unknown pubsub provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lc := fxtest.NewLifecycle(t)
			publisher, err := NewEventPublisher(PublisherParams{
				Lc:     lc,
				Ctx:    context.Background(),
				Config: &config.Config{PubSub: tt.pubsub},
				Logger: logger,
			})

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)

				return
			}

			require.NoError(t, err)
			require.NotNil(t, publisher)
			if tt.pubsub == nil || tt.pubsub.Provider == "" {
				require.NoError(t, publisher.PublishAllotmentEvent(context.Background(), &service.AllotmentEvent{Type: service.AllotmentRemoved}))
			}
		})
	}
}
