package monitor

import (
	"context"
	"sync/atomic"
	"time"

	"volume-sentry/internal/detector"
	"volume-sentry/internal/dexscreener"
	"volume-sentry/shared/logger"
)

// TokenSource yields the current watch-list of addresses each cycle.
type TokenSource interface {
	Load() []string
}

// MarketData resolves one address to its best-pair observation. ok=false is a
// soft miss for this cycle.
type MarketData interface {
	FetchPair(ctx context.Context, address string) (dexscreener.Observation, bool)
}

// Notifier delivers one alert message to the configured channel.
type Notifier interface {
	Send(text string) bool
	Enabled() bool
}

// HistoryRecorder persists one alert event to the external history store.
type HistoryRecorder interface {
	Record(address, symbol string, actualPrice float64, note string, marketCap *float64) bool
	Enabled() bool
}

// Clock abstracts wall-clock waiting so tests drive cycles deterministically.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Monitor runs the sequential polling loop: load watch-list, fetch pair data
// per address, classify, dispatch. There is no concurrency across addresses;
// a cycle is bounded by fetch timeout times token count.
type Monitor struct {
	tokens   TokenSource
	market   MarketData
	detector *detector.Detector
	notifier Notifier
	history  HistoryRecorder

	interval time.Duration
	warmUp   bool
	clock    Clock
	log      *logger.Logger

	cycles   atomic.Int64
	watching atomic.Int64
}

func New(tokens TokenSource, market MarketData, det *detector.Detector, notifier Notifier, history HistoryRecorder, interval time.Duration, warmUp bool, log *logger.Logger) *Monitor {
	return &Monitor{
		tokens:   tokens,
		market:   market,
		detector: det,
		notifier: notifier,
		history:  history,
		interval: interval,
		warmUp:   warmUp,
		clock:    realClock{},
		log:      log,
	}
}

// Run blocks until ctx is cancelled. An optional warm-up pass seeds baselines
// first; afterwards one evaluation cycle runs immediately and then on every
// interval tick.
func (m *Monitor) Run(ctx context.Context) {
	m.log.Info("Monitor started", "interval", m.interval, "warmUp", m.warmUp)

	if m.warmUp {
		m.runWarmUp(ctx)
	}

	for {
		m.runCycle(ctx)
		select {
		case <-ctx.Done():
			m.log.Info("Monitor stopped")
			return
		case <-m.clock.After(m.interval):
		}
	}
}

// runWarmUp populates per-address baselines without triggering alerts, so the
// first real cycle has a previous value to compare against.
func (m *Monitor) runWarmUp(ctx context.Context) {
	addresses := m.tokens.Load()
	m.log.Info("Warm-up pass started", "tokens", len(addresses))
	for _, address := range addresses {
		if ctx.Err() != nil {
			return
		}
		obs, ok := m.market.FetchPair(ctx, address)
		if !ok {
			continue
		}
		m.detector.WarmUp(obs)
	}
	m.log.Info("Warm-up pass complete")
}

func (m *Monitor) runCycle(ctx context.Context) {
	addresses := m.tokens.Load()
	m.watching.Store(int64(len(addresses)))
	m.log.Info("Polling cycle started", "tokens", len(addresses))

	for _, address := range addresses {
		if ctx.Err() != nil {
			return
		}

		obs, ok := m.market.FetchPair(ctx, address)
		if !ok {
			// No observation this cycle; the next poll corrects naturally.
			continue
		}

		alert, fired := m.detector.Evaluate(obs)
		if !fired {
			continue
		}
		m.dispatch(alert)
	}

	m.cycles.Add(1)
	m.log.Info("Polling cycle complete", "cycle", m.cycles.Load())
}

// dispatch sends the alert and records the event. Each sink failure is logged
// and absorbed independently; the history write happens regardless of
// notification delivery.
func (m *Monitor) dispatch(alert detector.Alert) {
	delivered := m.notifier.Send(alert.Message())
	if !delivered {
		m.log.Warn("Alert notification not delivered", "symbol", alert.Symbol, "address", alert.Address)
	}

	recorded := m.history.Record(alert.Address, alert.Symbol, alert.PriceUsd, alert.Note, alert.MarketCapUSD)
	if !recorded {
		m.log.Warn("Alert history not recorded", "symbol", alert.Symbol, "address", alert.Address)
	}

	m.log.Info("Alert dispatched",
		"symbol", alert.Symbol, "address", alert.Address,
		"delivered", delivered, "recorded", recorded)
}

// Status is the read-only view served by the web handlers.
type Status struct {
	Cycles          int64              `json:"cycles"`
	Watching        int64              `json:"watching"`
	TelegramEnabled bool               `json:"telegramEnabled"`
	HistoryEnabled  bool               `json:"historyEnabled"`
	Volumes         map[string]float64 `json:"volumes"`
}

func (m *Monitor) Status() Status {
	return Status{
		Cycles:          m.cycles.Load(),
		Watching:        m.watching.Load(),
		TelegramEnabled: m.notifier.Enabled(),
		HistoryEnabled:  m.history.Enabled(),
		Volumes:         m.detector.Snapshot(),
	}
}
