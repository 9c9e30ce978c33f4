package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nexcharge/apiserver/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBackend struct {
	channel string
	data    []byte
	attrs   map[string]string
	err     error
	closed  bool
}

func (b *recordingBackend) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if b.err != nil {
		return "", b.err
	}
	b.channel, b.data, b.attrs = channel, data, attrs
	return "msg-1", nil
}

func (b *recordingBackend) Subscribe(ctx context.Context, channel string, handler Handler) error {
	return handler(ctx, Message{ID: "msg-1", Data: b.data})
}

func (b *recordingBackend) Close() error {
	b.closed = true
	return nil
}

func TestPublishJSON(t *testing.T) {
	backend := &recordingBackend{}
	q := New(backend)

	id, err := q.PublishJSON(context.Background(), "chargers.events", map[string]int{"charger_id": 4}, map[string]string{"type": "charger.created"})
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
	assert.Equal(t, "chargers.events", backend.channel)
	assert.Equal(t, "charger.created", backend.attrs["type"])

	var decoded map[string]int
	require.NoError(t, json.Unmarshal(backend.data, &decoded))
	assert.Equal(t, 4, decoded["charger_id"])

	var got Message
	require.NoError(t, q.Subscribe(context.Background(), "chargers.events", func(_ context.Context, msg Message) error {
		got = msg
		return nil
	}))
	assert.Equal(t, backend.data, got.Data)

	require.NoError(t, q.Close())
	assert.True(t, backend.closed)
}

func TestPublishJSON_Errors(t *testing.T) {
	q := New(&recordingBackend{err: errors.New("broker down")})

	_, err := q.PublishJSON(context.Background(), "c", map[string]int{}, nil)
	assert.EqualError(t, err, "broker down")

	_, err = q.PublishJSON(context.Background(), "c", func() {}, nil)
	assert.ErrorContains(t, err, "encode message")
}

func TestOpen_Selection(t *testing.T) {
	q, err := Open(context.Background(), config.MQConfig{})
	require.NoError(t, err)
	assert.Nil(t, q)

	_, err = Open(context.Background(), config.MQConfig{Backend: "kafka"})
	assert.ErrorContains(t, err, `unknown mq backend "kafka"`)

	_, err = Open(context.Background(), config.MQConfig{Backend: "pubsub"})
	assert.ErrorContains(t, err, "project id is required")

	_, err = Open(context.Background(), config.MQConfig{Backend: "rabbitmq"})
	assert.ErrorContains(t, err, "url is required")
}

func TestHeaderStrings(t *testing.T) {
	assert.Nil(t, headerStrings(nil))
	assert.Equal(t, map[string]string{"type": "charger.deleted", "n": "3"},
		headerStrings(map[string]any{"type": "charger.deleted", "n": int32(3)}))
}
