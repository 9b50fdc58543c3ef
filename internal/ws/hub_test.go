package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClient struct {
	mu       sync.Mutex
	messages [][]byte
	failing  bool
	closed   bool
}

func (f *fakeClient) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("broken pipe")
	}
	f.messages = append(f.messages, data)
	return nil
}

func (f *fakeClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeClient) received() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.messages...)
}

func (f *fakeClient) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func TestHubBroadcastsLedgerEvents(t *testing.T) {
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	good := &fakeClient{}
	bad := &fakeClient{failing: true}
	hub.Register(good)
	hub.Register(bad)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	hub.Publish(Event{
		Action:       ActionMovementRecorded,
		MovementID:   uuid.New(),
		MovementType: "IN",
		Quantity:     decimal.NewFromInt(10),
		CurrentStock: decimal.NewFromInt(50),
		User:         EventUser{ID: "u1", Name: "Admin"},
	})

	require.Eventually(t, func() bool { return len(good.received()) == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, bad.isClosed())
	assert.Equal(t, 1, hub.ClientCount())

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(good.received()[0], &decoded))
	assert.Equal(t, "stock_update", decoded["type"])
	assert.Equal(t, ActionMovementRecorded, decoded["action"])
	assert.Equal(t, "Admin", decoded["user"].(map[string]any)["name"])

	hub.Unregister(good)
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.True(t, good.isClosed())

	cancel()
	<-done
}

func TestPublishDoesNotBlockWithoutRunner(t *testing.T) {
	hub := NewHub(zap.NewNop())
	finished := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			hub.Publish(Event{Action: ActionMovementDeleted})
		}
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked")
	}
}

func TestHubAfterShutdown(t *testing.T) {
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	c := &fakeClient{}
	hub.Register(c)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.True(t, c.isClosed())

	// feed handlers unregister on their way out after the hub has stopped
	returned := make(chan struct{})
	go func() {
		hub.Unregister(c)
		late := &fakeClient{}
		hub.Register(late)
		assert.True(t, late.isClosed())
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Register/Unregister blocked after Run returned")
	}
	assert.Equal(t, 0, hub.ClientCount())
}
