package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volume-sentry/internal/detector"
	"volume-sentry/internal/dexscreener"
	"volume-sentry/shared/logger"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.NewLogger(logger.Config{Level: "error", Environment: "test"})
	require.NoError(t, err)
	return l
}

type fakeTokens struct {
	mu    sync.Mutex
	addrs []string
}

func (f *fakeTokens) Load() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.addrs...)
}

type fakeMarket struct {
	mu  sync.Mutex
	obs map[string]dexscreener.Observation
}

func (f *fakeMarket) FetchPair(_ context.Context, address string) (dexscreener.Observation, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.obs[address]
	return o, ok
}

func (f *fakeMarket) setVolume(address string, volume float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := volume
	f.obs[address] = dexscreener.Observation{Address: address, Symbol: "TEST", Volume5m: &v}
}

func (f *fakeMarket) drop(address string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.obs, address)
}

type fakeNotifier struct {
	mu      sync.Mutex
	sent    []string
	fail    bool
	enabled bool
}

func (f *fakeNotifier) Send(text string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return !f.fail
}

func (f *fakeNotifier) Enabled() bool { return f.enabled }

func (f *fakeNotifier) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type recordedEvent struct {
	address string
	symbol  string
	price   float64
	note    string
}

type fakeHistory struct {
	mu     sync.Mutex
	events []recordedEvent
	fail   bool
}

func (f *fakeHistory) Record(address, symbol string, price float64, note string, _ *float64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{address, symbol, price, note})
	return !f.fail
}

func (f *fakeHistory) Enabled() bool { return true }

func (f *fakeHistory) eventCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

type fakeClock struct {
	tick chan time.Time
}

func (f *fakeClock) After(time.Duration) <-chan time.Time { return f.tick }

const addr = "addr-1111111111111111"

func newTestMonitor(t *testing.T, warmUp bool) (*Monitor, *fakeTokens, *fakeMarket, *fakeNotifier, *fakeHistory) {
	t.Helper()
	log := newTestLogger(t)
	tokens := &fakeTokens{addrs: []string{addr}}
	market := &fakeMarket{obs: map[string]dexscreener.Observation{}}
	notifier := &fakeNotifier{enabled: true}
	hist := &fakeHistory{}
	det := detector.New(detector.Policy{Mode: detector.PolicyRatio, Ratio: 2.0}, detector.RoundingInteger, log)
	mon := New(tokens, market, det, notifier, hist, time.Minute, warmUp, log)
	return mon, tokens, market, notifier, hist
}

func TestCycleDispatchesOncePerSpike(t *testing.T) {
	mon, _, market, notifier, hist := newTestMonitor(t, false)
	ctx := context.Background()

	market.setVolume(addr, 1000)
	mon.runCycle(ctx)
	assert.Equal(t, 0, notifier.sentCount(), "first observation only seeds the baseline")

	market.setVolume(addr, 2500)
	mon.runCycle(ctx)
	require.Equal(t, 1, notifier.sentCount())
	require.Equal(t, 1, hist.eventCount())
	assert.Contains(t, notifier.sent[0], "5m Volume Spike")
	assert.Equal(t, addr, hist.events[0].address)
	assert.Equal(t, "5m Vol Spike +150%", hist.events[0].note)
}

func TestSendFailureStillRecordsHistory(t *testing.T) {
	mon, _, market, notifier, hist := newTestMonitor(t, false)
	notifier.fail = true
	ctx := context.Background()

	market.setVolume(addr, 1000)
	mon.runCycle(ctx)
	market.setVolume(addr, 5000)
	mon.runCycle(ctx)

	assert.Equal(t, 1, notifier.sentCount())
	assert.Equal(t, 1, hist.eventCount(), "history write happens regardless of delivery outcome")
}

func TestHistoryFailureDoesNotAbortCycle(t *testing.T) {
	mon, tokens, market, notifier, hist := newTestMonitor(t, false)
	hist.fail = true
	other := "addr-2222222222222222"
	tokens.addrs = []string{addr, other}
	ctx := context.Background()

	market.setVolume(addr, 1000)
	market.setVolume(other, 1000)
	mon.runCycle(ctx)
	market.setVolume(addr, 3000)
	market.setVolume(other, 3000)
	mon.runCycle(ctx)

	assert.Equal(t, 2, notifier.sentCount(), "a failing sink must not stop the remaining addresses")
	assert.Equal(t, 2, hist.eventCount())
}

func TestFetchMissIsASoftSkip(t *testing.T) {
	mon, _, market, notifier, _ := newTestMonitor(t, false)
	ctx := context.Background()

	market.setVolume(addr, 1000)
	mon.runCycle(ctx)

	// Provider outage for one cycle: no dispatch, baseline untouched.
	market.drop(addr)
	mon.runCycle(ctx)
	assert.Equal(t, 0, notifier.sentCount())

	market.setVolume(addr, 2000)
	mon.runCycle(ctx)
	assert.Equal(t, 1, notifier.sentCount(), "baseline from two cycles ago still applies")
}

func TestWarmUpPassNeverAlerts(t *testing.T) {
	mon, _, market, notifier, hist := newTestMonitor(t, true)
	ctx := context.Background()

	market.setVolume(addr, 1_000_000)
	mon.runWarmUp(ctx)
	assert.Equal(t, 0, notifier.sentCount())
	assert.Equal(t, 0, hist.eventCount())

	market.setVolume(addr, 2_000_000)
	mon.runCycle(ctx)
	assert.Equal(t, 1, notifier.sentCount(), "warm-up baseline makes the first real cycle comparable")
}

func TestRunDrivesCyclesOnTicks(t *testing.T) {
	mon, _, market, notifier, _ := newTestMonitor(t, false)
	clock := &fakeClock{tick: make(chan time.Time)}
	mon.clock = clock

	market.setVolume(addr, 1000)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		mon.Run(ctx)
		close(done)
	}()

	// First cycle runs immediately; wait for it, then double volume and tick.
	require.Eventually(t, func() bool { return mon.Status().Cycles == 1 }, time.Second, time.Millisecond)
	market.setVolume(addr, 2000)
	clock.tick <- time.Now()
	require.Eventually(t, func() bool { return mon.Status().Cycles == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, 1, notifier.sentCount())

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop on context cancellation")
	}
}

func TestStatusReportsSinksAndVolumes(t *testing.T) {
	mon, _, market, _, _ := newTestMonitor(t, false)
	ctx := context.Background()

	market.setVolume(addr, 1234)
	mon.runCycle(ctx)

	st := mon.Status()
	assert.Equal(t, int64(1), st.Cycles)
	assert.Equal(t, int64(1), st.Watching)
	assert.True(t, st.TelegramEnabled)
	assert.True(t, st.HistoryEnabled)
	assert.Equal(t, map[string]float64{addr: 1234}, st.Volumes)
}
