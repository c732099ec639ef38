package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingConsumer struct {
	mu     sync.Mutex
	events []Event
}

func (c *recordingConsumer) Name() string { return "recorder" }

func (c *recordingConsumer) ProcessEvent(event Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *recordingConsumer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func resetGlobalBus() {
	globalMutex.Lock()
	globalEventBus = nil
	globalMutex.Unlock()
}

func TestEventBusDeliversToConsumer(t *testing.T) {
	resetGlobalBus()
	t.Cleanup(resetGlobalBus)

	eb, err := Initialize(&Config{BufferSize: 16, Workers: 1, Enabled: true})
	require.NoError(t, err)
	require.NotNil(t, eb)

	consumer := &recordingConsumer{}
	require.NoError(t, eb.RegisterConsumer(consumer))

	ok := eb.TryPublish(TaskEvent{TaskID: "abc123", ToStage: "collect", Timestamp: time.Now()})
	assert.True(t, ok)

	require.Eventually(t, func() bool { return consumer.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestEventBusDropsWithoutConsumers(t *testing.T) {
	resetGlobalBus()
	t.Cleanup(resetGlobalBus)

	eb, err := Initialize(&Config{BufferSize: 4, Workers: 1, Enabled: true})
	require.NoError(t, err)

	ok := eb.TryPublish(TaskEvent{TaskID: "xyz789"})
	assert.False(t, ok, "no consumer registered yet, event must be dropped rather than block")
}

func TestEventBusDisabledReturnsNil(t *testing.T) {
	resetGlobalBus()
	t.Cleanup(resetGlobalBus)

	eb, err := Initialize(&Config{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, eb)
}
