package bus

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shortBus returns a bus with windows small enough for fast tests but large
// enough to be deterministic on a loaded machine.
func shortBus() *Bus {
	return New(WithDebounce(30*time.Millisecond), WithDedupeWindow(60*time.Millisecond))
}

// settle waits comfortably past the debounce interval.
func settle() {
	time.Sleep(120 * time.Millisecond)
}

func TestDebounceCoalescesBurst(t *testing.T) {
	b := shortBus()
	defer b.Clear()

	var mu sync.Mutex
	var got []any
	b.Subscribe("t", func(payload any) {
		mu.Lock()
		got = append(got, payload)
		mu.Unlock()
	})

	// Two publishes within the debounce interval: exactly one delivery,
	// carrying the last payload.
	b.Publish("t", "A")
	b.Publish("t", "B")
	settle()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0])
}

func TestDedupeWindowDropsIdenticalPayloads(t *testing.T) {
	b := shortBus()
	defer b.Clear()

	var mu sync.Mutex
	count := 0
	b.Subscribe("t", func(any) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	payload := map[string]string{"reason": "toggle"}
	b.Publish("t", payload)
	b.Publish("t", payload) // same serialized key, inside the window
	settle()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count)
}

func TestExplicitDedupeKey(t *testing.T) {
	b := shortBus()
	defer b.Clear()

	var mu sync.Mutex
	count := 0
	b.Subscribe("t", func(any) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	// Different payloads but the same explicit key: second one is dropped,
	// so only one delivery fires.
	b.Publish("t", "first", WithDedupeKey("k"))
	b.Publish("t", "second", WithDedupeKey("k"))
	settle()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count)
}

func TestFanOutReachesAllSubscribers(t *testing.T) {
	b := shortBus()
	defer b.Clear()

	var mu sync.Mutex
	hits := map[string]int{}
	for _, name := range []string{"a", "b", "c"} {
		name := name
		b.Subscribe("t", func(any) {
			mu.Lock()
			hits[name]++
			mu.Unlock()
		})
	}

	b.Publish("t", 1)
	settle()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, map[string]int{"a": 1, "b": 1, "c": 1}, hits)
}

func TestPanickingHandlerDoesNotBlockSiblings(t *testing.T) {
	b := shortBus()
	defer b.Clear()

	var mu sync.Mutex
	delivered := 0
	b.Subscribe("t", func(any) { panic("boom") })
	b.Subscribe("t", func(any) {
		mu.Lock()
		delivered++
		mu.Unlock()
	})

	b.Publish("t", nil)
	settle()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, delivered)
}

func TestUnsubscribeIsIdempotentAndSafeDuringDelivery(t *testing.T) {
	b := shortBus()
	defer b.Clear()

	var mu sync.Mutex
	first := 0
	second := 0

	var unsubSecond func()
	b.Subscribe("t", func(any) {
		mu.Lock()
		first++
		mu.Unlock()
		// Unsubscribing mid-delivery must not panic or corrupt the set.
		unsubSecond()
		unsubSecond()
	})
	unsubSecond = b.Subscribe("t", func(any) {
		mu.Lock()
		second++
		mu.Unlock()
	})

	b.Publish("t", nil)
	settle()

	// The delivery iterates a snapshot, so the second handler may or may
	// not see this round, but a second round must not reach it.
	b.Publish("t", "again")
	settle()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, first)
	assert.LessOrEqual(t, second, 1)
}

func TestClearCancelsPendingDeliveries(t *testing.T) {
	b := shortBus()

	var mu sync.Mutex
	count := 0
	b.Subscribe("t", func(any) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	b.Publish("t", "never")
	b.Clear()
	settle()

	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, count)
}

func TestSeparateTopicsDoNotCoalesce(t *testing.T) {
	b := shortBus()
	defer b.Clear()

	var mu sync.Mutex
	got := map[string]int{}
	for _, topic := range []string{"x", "y"} {
		topic := topic
		b.Subscribe(topic, func(any) {
			mu.Lock()
			got[topic]++
			mu.Unlock()
		})
	}

	b.Publish("x", 1)
	b.Publish("y", 2)
	settle()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, map[string]int{"x": 1, "y": 1}, got)
}

func TestPublishAfterDedupeWindowDeliversAgain(t *testing.T) {
	b := New(WithDebounce(10*time.Millisecond), WithDedupeWindow(20*time.Millisecond))
	defer b.Clear()

	var mu sync.Mutex
	count := 0
	b.Subscribe("t", func(any) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	b.Publish("t", "same")
	time.Sleep(50 * time.Millisecond)
	b.Publish("t", "same")
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, count)
}
