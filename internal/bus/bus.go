package bus

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	appLog "github.com/jinyuanZhou-Leo/Semestra-sub001/internal/log"
)

const (
	// DefaultDebounce is how long an accepted publish sits pending before
	// fan-out. A newer publish of the same topic within this window
	// replaces the pending payload and restarts the timer, so a burst of
	// publishes delivers exactly once with the last payload.
	DefaultDebounce = 120 * time.Millisecond

	// DefaultDedupeWindow drops a publish outright when another publish of
	// the same topic and dedupe key was accepted this recently. This guards
	// against independent callers reacting to one underlying change.
	DefaultDedupeWindow = 180 * time.Millisecond
)

// Handler receives the payload of a delivered publish.
type Handler func(payload any)

// Bus is a typed publish/subscribe channel with per-topic debounce and a
// short-window de-duplication of identical payloads. It decouples producers
// of schedule mutations from consumers that must re-fetch.
//
// A Bus is constructed explicitly and injected; there is no package-level
// singleton. Tests create a fresh instance each.
type Bus struct {
	mu sync.Mutex

	debounce     time.Duration
	dedupeWindow time.Duration

	nextSubID int
	subs      map[string]map[int]Handler

	// pending holds at most one in-flight delivery per topic.
	pending map[string]*pendingDelivery

	// recent records accept times per (topic, dedupe key).
	recent map[string]map[string]time.Time
}

// pendingDelivery is the pending state of one topic's debounce machine:
// absent from Bus.pending means idle, present means a delivery is armed.
type pendingDelivery struct {
	payload any
	timer   *time.Timer
}

// Option configures a Bus.
type Option func(*Bus)

// WithDebounce overrides the delivery coalescing delay.
func WithDebounce(d time.Duration) Option {
	return func(b *Bus) { b.debounce = d }
}

// WithDedupeWindow overrides the duplicate-suppression window.
func WithDedupeWindow(d time.Duration) Option {
	return func(b *Bus) { b.dedupeWindow = d }
}

// New constructs a Bus with the given options.
func New(opts ...Option) *Bus {
	b := &Bus{
		debounce:     DefaultDebounce,
		dedupeWindow: DefaultDedupeWindow,
		subs:         make(map[string]map[int]Handler),
		pending:      make(map[string]*pendingDelivery),
		recent:       make(map[string]map[string]time.Time),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// PublishOption adjusts a single publish.
type PublishOption func(*publishConfig)

type publishConfig struct {
	dedupeKey string
}

// WithDedupeKey sets an explicit dedupe key instead of the serialized
// payload.
func WithDedupeKey(key string) PublishOption {
	return func(c *publishConfig) { c.dedupeKey = key }
}

// Publish submits payload on topic. Delivery is asynchronous: the payload
// is held for the debounce interval and only the last payload published for
// a topic within that interval reaches subscribers. A publish whose dedupe
// key was already accepted within the dedupe window is dropped.
func (b *Bus) Publish(topic string, payload any, opts ...PublishOption) {
	var cfg publishConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	key := cfg.dedupeKey
	if key == "" {
		key = serializeKey(payload)
	}

	now := time.Now()

	b.mu.Lock()
	defer b.mu.Unlock()

	if last, ok := b.recent[topic][key]; ok && now.Sub(last) < b.dedupeWindow {
		appLog.Debug("bus: duplicate publish dropped", "topic", topic, "key", key)
		return
	}
	if b.recent[topic] == nil {
		b.recent[topic] = make(map[string]time.Time)
	}
	b.recent[topic][key] = now
	b.pruneRecentLocked(topic, now)

	if p, ok := b.pending[topic]; ok {
		// Replace the pending payload and restart the timer; the topic
		// stays in the pending state with exactly one armed delivery.
		p.payload = payload
		p.timer.Reset(b.debounce)
		return
	}

	p := &pendingDelivery{payload: payload}
	p.timer = time.AfterFunc(b.debounce, func() { b.deliver(topic) })
	b.pending[topic] = p
}

// Subscribe registers handler for topic and returns an unsubscribe func.
// Unsubscribing is idempotent and safe to call during delivery.
func (b *Bus) Subscribe(topic string, handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]Handler)
	}
	id := b.nextSubID
	b.nextSubID++
	b.subs[topic][id] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if m, ok := b.subs[topic]; ok {
			delete(m, id)
		}
	}
}

// Clear cancels all pending deliveries and forgets all subscriptions and
// dedupe history. Used at shutdown and test teardown.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, p := range b.pending {
		p.timer.Stop()
	}
	b.pending = make(map[string]*pendingDelivery)
	b.subs = make(map[string]map[int]Handler)
	b.recent = make(map[string]map[string]time.Time)
}

// deliver fans the pending payload of topic out to all current subscribers.
func (b *Bus) deliver(topic string) {
	b.mu.Lock()
	p, ok := b.pending[topic]
	if !ok {
		b.mu.Unlock()
		return
	}
	delete(b.pending, topic)
	payload := p.payload

	// Snapshot handlers so unsubscribing during delivery cannot mutate the
	// set being iterated.
	handlers := make([]Handler, 0, len(b.subs[topic]))
	for _, h := range b.subs[topic] {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		callIsolated(topic, h, payload)
	}
}

// callIsolated invokes one handler, converting a panic into a log line so a
// misbehaving handler cannot prevent delivery to its siblings.
func callIsolated(topic string, h Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			appLog.Error("bus: handler panicked", fmt.Errorf("%v", r), "topic", topic)
		}
	}()
	h(payload)
}

// pruneRecentLocked drops expired dedupe entries for topic. Callers hold
// b.mu.
func (b *Bus) pruneRecentLocked(topic string, now time.Time) {
	for key, at := range b.recent[topic] {
		if now.Sub(at) >= b.dedupeWindow {
			delete(b.recent[topic], key)
		}
	}
}

// serializeKey derives the default dedupe key from a payload.
func serializeKey(payload any) string {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%#v", payload)
	}
	return string(data)
}
