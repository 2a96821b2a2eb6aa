package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func receive(t *testing.T, c *Client) (Message, bool) {
	t.Helper()
	select {
	case raw, ok := <-c.Messages():
		if !ok {
			return Message{}, false
		}
		var m Message
		require.NoError(t, json.Unmarshal(raw, &m))
		return m, true
	default:
		return Message{}, false
	}
}

func TestPublishReachesTenantAndAdmins(t *testing.T) {
	h := NewHub(zap.NewNop())
	a := h.Subscribe("tenant-a", false)
	b := h.Subscribe("tenant-b", false)
	admin := h.Subscribe("admin-1", true)

	h.Publish("tenant-a", EventHealthAlert, map[string]int{"score": 35})

	m, ok := receive(t, a)
	require.True(t, ok)
	assert.Equal(t, EventHealthAlert, m.Type)

	_, ok = receive(t, b)
	assert.False(t, ok, "other tenants must not see the event")

	m, ok = receive(t, admin)
	require.True(t, ok)
	assert.Equal(t, EventHealthAlert, m.Type)
}

func TestSlowClientIsDropped(t *testing.T) {
	h := NewHub(zap.NewNop())
	c := h.Subscribe("tenant-a", false)

	for i := 0; i < sendBuffer+1; i++ {
		h.Publish("tenant-a", EventHealthScore, i)
	}

	assert.Equal(t, 0, h.Count())
	n := 0
	for range c.Messages() {
		n++
	}
	assert.Equal(t, sendBuffer, n)
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	h := NewHub(zap.NewNop())
	c := h.Subscribe("tenant-a", false)
	h.Unsubscribe(c)
	h.Unsubscribe(c)
	assert.Equal(t, 0, h.Count())

	h.Close()
}
