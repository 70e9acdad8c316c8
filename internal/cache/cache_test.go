package cache

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSetGetDelete(t *testing.T) {
	cm := NewLocal()

	type view struct {
		Name string `json:"name"`
	}

	require.NoError(t, cm.Set("k", view{Name: "techfix"}, time.Minute))

	var out view
	found, err := cm.Get("k", &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "techfix", out.Name)

	require.NoError(t, cm.Delete("k"))
	found, _ = cm.Get("k", &out)
	assert.False(t, found)
}

func TestLocalIncrement(t *testing.T) {
	cm := NewLocal()

	n, err := cm.Increment("counter", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = cm.Increment("counter", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestTicketCounters(t *testing.T) {
	cm := NewLocal()

	assert.Zero(t, cm.TicketsToday())

	_, err := cm.CountTicketToday()
	require.NoError(t, err)
	_, err = cm.CountTicketToday()
	require.NoError(t, err)

	assert.Equal(t, int64(2), cm.TicketsToday())
}

func TestPublishWithoutRedisFeedsUpdatesChannel(t *testing.T) {
	cm := NewLocal()

	cm.PublishTicketUpdate("ticket_created", "TF-ABC12345", 7)

	select {
	case payload := <-cm.Updates():
		var update struct {
			Action    string `json:"action"`
			Reference string `json:"reference"`
			TicketID  uint   `json:"ticket_id"`
		}
		require.NoError(t, json.Unmarshal([]byte(payload), &update))
		assert.Equal(t, "ticket_created", update.Action)
		assert.Equal(t, "TF-ABC12345", update.Reference)
		assert.Equal(t, uint(7), update.TicketID)
	case <-time.After(time.Second):
		t.Fatal("no update received")
	}
}

func TestPublishDropsWhenNobodyDrains(t *testing.T) {
	cm := NewLocal()

	// more publishes than channel capacity must not block
	for i := 0; i < 200; i++ {
		cm.PublishTicketUpdate("ticket_created", "TF-OVERFLOW", uint(i))
	}
}

func TestGetDecodesRedisBackfilledBytes(t *testing.T) {
	cm := NewLocal()

	type view struct {
		Name string `json:"name"`
	}

	// a Redis hit leaves the raw JSON payload in the local cache; the
	// next local hit must decode it into the caller's struct
	cm.localCache.Set("k", []byte(`{"name":"techfix"}`), time.Minute)

	var out view
	found, err := cm.Get("k", &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "techfix", out.Name)
}
