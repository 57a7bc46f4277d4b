package detector

import (
	"fmt"
	"math"
	"sync"
	"time"

	"volume-sentry/internal/dexscreener"
	"volume-sentry/shared/logger"
)

// PolicyMode selects how a fresh 5-minute volume observation qualifies as a
// spike. Exactly one mode is active per deployment.
type PolicyMode string

const (
	// PolicyRatio fires when current volume reaches Ratio times the volume
	// observed on the previous cycle.
	PolicyRatio PolicyMode = "ratio"
	// PolicyThreshold fires whenever current volume reaches Threshold.
	PolicyThreshold PolicyMode = "threshold"
	// PolicyThresholdCooldown is PolicyThreshold with a per-address minimum
	// interval between dispatched alerts.
	PolicyThresholdCooldown PolicyMode = "threshold_cooldown"
)

type Policy struct {
	Mode      PolicyMode
	Ratio     float64
	Threshold float64
	Cooldown  time.Duration
}

// ParseMode maps a config string onto a PolicyMode, defaulting to ratio.
func ParseMode(s string) PolicyMode {
	switch PolicyMode(s) {
	case PolicyThreshold:
		return PolicyThreshold
	case PolicyThresholdCooldown:
		return PolicyThresholdCooldown
	default:
		return PolicyRatio
	}
}

// Alert is produced for a qualifying observation and consumed by the
// notification and history sinks.
type Alert struct {
	Address      string
	Symbol       string
	Volume       string
	MarketCap    string
	Percent      string // "+200%" when a positive baseline exists, else ""
	PriceUsd     float64
	MarketCapUSD *float64
	Note         string
}

// tokenState is the per-address memory, created lazily on first observation
// and kept for the process lifetime.
type tokenState struct {
	previousVolume  *float64
	lastTriggeredAt time.Time
}

// Detector owns all per-address state and classifies observations per the
// configured policy. The mutex only guards against the read-only status
// endpoint; the evaluation path itself is single-threaded.
type Detector struct {
	policy   Policy
	rounding Rounding
	log      *logger.Logger

	mu     sync.Mutex
	states map[string]*tokenState
	now    func() time.Time
}

func New(policy Policy, rounding Rounding, log *logger.Logger) *Detector {
	if policy.Ratio <= 0 {
		policy.Ratio = 2.0
	}
	return &Detector{
		policy:   policy,
		rounding: rounding,
		log:      log,
		states:   make(map[string]*tokenState),
		now:      time.Now,
	}
}

func (d *Detector) state(address string) *tokenState {
	st, ok := d.states[address]
	if !ok {
		st = &tokenState{}
		d.states[address] = st
	}
	return st
}

// WarmUp seeds the baseline volume for an address without classifying it, so
// the first real cycle does not report a spurious jump from nothing.
func (d *Detector) WarmUp(obs dexscreener.Observation) {
	if obs.Volume5m == nil || *obs.Volume5m <= 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	vol := *obs.Volume5m
	d.state(obs.Address).previousVolume = &vol
}

// Evaluate feeds one observation through the state machine and reports
// whether it qualifies as a spike.
//
// The baseline is overwritten with the current volume before classification,
// matching the revision where a single large jump becomes its own baseline
// and cannot re-trigger on the next cycle unless volume doubles again.
func (d *Detector) Evaluate(obs dexscreener.Observation) (Alert, bool) {
	if obs.Volume5m == nil || *obs.Volume5m <= 0 {
		// Nothing to learn from; baseline stays untouched.
		return Alert{}, false
	}
	current := *obs.Volume5m

	d.mu.Lock()
	defer d.mu.Unlock()

	st := d.state(obs.Address)
	previous := st.previousVolume
	vol := current
	st.previousVolume = &vol

	d.log.Debug("Checking token volume",
		"symbol", obs.Symbol, "volume5m", current, "previous", previousValue(previous))

	if !d.qualifies(st, current, previous) {
		return Alert{}, false
	}

	d.log.Info("Volume spike detected", "symbol", obs.Symbol, "address", obs.Address, "volume5m", current)
	return d.buildAlert(obs, current, previous), true
}

func (d *Detector) qualifies(st *tokenState, current float64, previous *float64) bool {
	switch d.policy.Mode {
	case PolicyThreshold:
		return current >= d.policy.Threshold
	case PolicyThresholdCooldown:
		if current < d.policy.Threshold {
			return false
		}
		now := d.now()
		if !st.lastTriggeredAt.IsZero() && now.Sub(st.lastTriggeredAt) < d.policy.Cooldown {
			return false
		}
		st.lastTriggeredAt = now
		return true
	default: // PolicyRatio
		return previous != nil && *previous > 0 && current >= d.policy.Ratio*(*previous)
	}
}

func (d *Detector) buildAlert(obs dexscreener.Observation, current float64, previous *float64) Alert {
	alert := Alert{
		Address:      obs.Address,
		Symbol:       obs.Symbol,
		Volume:       FormatCompact(current, d.rounding),
		MarketCap:    formatMarketCap(obs.MarketCap, d.rounding),
		PriceUsd:     obs.PriceUsd,
		MarketCapUSD: obs.MarketCap,
		Note:         "5m Vol Spike",
	}
	if previous != nil && *previous > 0 {
		pct := int(math.Round((current / *previous - 1) * 100))
		alert.Percent = fmt.Sprintf("%+d%%", pct)
		alert.Note = fmt.Sprintf("5m Vol Spike %s", alert.Percent)
	}
	return alert
}

// Message renders the human-readable alert body sent to the notification
// channel.
func (a Alert) Message() string {
	volLine := fmt.Sprintf("5m Vol: $%s", a.Volume)
	if a.Percent != "" {
		volLine += fmt.Sprintf(" (%s)", a.Percent)
	}
	return fmt.Sprintf("⚡$%s 5m Volume Spike\nMcap: $%s\n%s", a.Symbol, a.MarketCap, volLine)
}

// Snapshot copies the current baseline volumes for the status endpoint.
func (d *Detector) Snapshot() map[string]float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]float64, len(d.states))
	for addr, st := range d.states {
		if st.previousVolume != nil {
			out[addr] = *st.previousVolume
		}
	}
	return out
}

func previousValue(v *float64) interface{} {
	if v == nil {
		return "none"
	}
	return *v
}
