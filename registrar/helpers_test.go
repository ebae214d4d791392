package registrar

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonwraymond/healthmetrics/health"
	"github.com/jonwraymond/healthmetrics/mapper"
	"github.com/jonwraymond/healthmetrics/metrics"
)

// switchChecker is a probe whose status and failure can be flipped at runtime.
type switchChecker struct {
	name  string
	up    atomic.Bool
	fail  atomic.Bool
	calls atomic.Int64
	data  func(up bool) map[string]any
}

func newSwitchChecker(name string, up bool, data func(up bool) map[string]any) *switchChecker {
	c := &switchChecker{name: name, data: data}
	c.up.Store(up)
	return c
}

func (c *switchChecker) Name() string { return c.name }

func (c *switchChecker) Check(ctx context.Context) (health.Result, error) {
	c.calls.Add(1)
	if c.fail.Load() {
		return health.Result{}, errors.New("probe unavailable")
	}
	up := c.up.Load()
	res := health.Result{Name: c.name, Status: health.StatusOf(up)}
	if c.data != nil {
		res.Data = c.data(up)
	}
	return res, nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestRegistrar(t *testing.T, mappers *mapper.Registry, opts ...Option) (*Registrar, *metrics.MemorySink) {
	t.Helper()
	sink := metrics.NewMemorySink()
	r, err := New(DefaultConfig(), sink, mappers, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r, sink
}

// readPair returns the UP and DOWN gauge values of one subject.
func readPair(t *testing.T, sink *metrics.MemorySink, name, tagKey, tagValue string) (up, down float64) {
	t.Helper()
	ctx := context.Background()
	up, err := sink.Read(ctx, name, metrics.Tags{tagKey: tagValue, "status": "UP"})
	if err != nil {
		t.Fatalf("read %s{%s=%q,status=UP}: %v", name, tagKey, tagValue, err)
	}
	down, err = sink.Read(ctx, name, metrics.Tags{tagKey: tagValue, "status": "DOWN"})
	if err != nil {
		t.Fatalf("read %s{%s=%q,status=DOWN}: %v", name, tagKey, tagValue, err)
	}
	return up, down
}

func readCheck(t *testing.T, sink *metrics.MemorySink, check string) (up, down float64) {
	t.Helper()
	return readPair(t, sink, DefaultCheckMetric, DefaultCheckTag, check)
}

func readGroup(t *testing.T, sink *metrics.MemorySink, group string) (up, down float64) {
	t.Helper()
	return readPair(t, sink, DefaultStatusMetric, DefaultGroupTag, group)
}

func hasCheck(sink *metrics.MemorySink, check string) bool {
	return sink.Has(DefaultCheckMetric, metrics.Tags{DefaultCheckTag: check, DefaultStatusTag: DefaultUpLabel})
}

// heldChecker is an UP probe whose invocations block while held.
type heldChecker struct {
	name string
	gate atomic.Pointer[chan struct{}]
}

func (c *heldChecker) Name() string { return c.name }

func (c *heldChecker) Check(ctx context.Context) (health.Result, error) {
	if gate := c.gate.Load(); gate != nil {
		<-*gate
	}
	return health.Up(c.name), nil
}

// hold blocks every later invocation until the returned channel is closed.
func (c *heldChecker) hold() chan struct{} {
	gate := make(chan struct{})
	c.gate.Store(&gate)
	return gate
}
