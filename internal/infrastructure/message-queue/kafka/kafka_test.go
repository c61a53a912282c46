package kafka

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alimikegami/campus-platform/auth-service/internal/dto"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestPublish(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w}

	err := p.Publish(context.Background(), dto.EventUserActivated, "42", dto.UserActivatedEvent{ID: 42, Email: "amine@school.tn", Role: "student"})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "42", string(w.msgs[0].Key))

	var got struct {
		EventType string                 `json:"event_type"`
		Data      map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, dto.EventUserActivated, got.EventType)
	assert.Equal(t, "amine@school.tn", got.Data["email"])
	assert.NotContains(t, string(w.msgs[0].Value), "password")

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestNoopPublisher(t *testing.T) {
	var p NoopPublisher
	assert.NoError(t, p.Publish(context.Background(), "x", "k", nil))
	assert.NoError(t, p.Close())
}
