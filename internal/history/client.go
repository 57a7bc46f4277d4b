package history

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"volume-sentry/shared/logger"
)

const (
	recordTimeout = 10 * time.Second

	eventTypeVolumeSpike = "volume_spike"
)

// Recorder submits alert events to the dashboard history endpoint. Built
// without a base URL it is a no-op whose Record always reports failure.
type Recorder struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

func NewRecorder(baseURL string, log *logger.Logger) *Recorder {
	return &Recorder{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: recordTimeout},
		log:        log,
	}
}

func (r *Recorder) Enabled() bool {
	return r.baseURL != ""
}

type eventPayload struct {
	TokenAddress string   `json:"tokenAddress"`
	TokenSymbol  string   `json:"tokenSymbol"`
	TargetPrice  float64  `json:"targetPrice"`
	ActualPrice  float64  `json:"actualPrice"`
	Type         string   `json:"type"`
	Note         string   `json:"note"`
	MarketCap    *float64 `json:"marketCap,omitempty"`
}

type apiResponse struct {
	Ok bool `json:"ok"`
}

// Record persists one volume-spike event and reports success. Every failure
// mode is logged and absorbed; the polling loop continues regardless.
func (r *Recorder) Record(address, symbol string, actualPrice float64, note string, marketCap *float64) bool {
	if r.baseURL == "" {
		r.log.Debug("History record skipped, recorder disabled")
		return false
	}

	payload := eventPayload{
		TokenAddress: address,
		TokenSymbol:  symbol,
		TargetPrice:  0,
		ActualPrice:  actualPrice,
		Type:         eventTypeVolumeSpike,
		Note:         note,
		MarketCap:    marketCap,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		r.log.Error("Failed to serialize history event", "address", address, "error", err)
		return false
	}

	url := fmt.Sprintf("%s/api.php?action=addHistory", r.baseURL)
	resp, err := r.httpClient.Post(url, "application/json", bytes.NewBuffer(body))
	if err != nil {
		r.log.Warn("History endpoint request failed", "address", address, "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.log.Warn("History endpoint returned non-OK status", "address", address, "status", resp.StatusCode)
		return false
	}

	var result apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		r.log.Warn("History endpoint response unparseable", "address", address, "error", err)
		return false
	}
	if !result.Ok {
		r.log.Warn("History endpoint rejected event", "address", address)
		return false
	}

	r.log.Info("History event recorded", "address", address, "symbol", symbol)
	return true
}
