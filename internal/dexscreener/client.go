package dexscreener

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/time/rate"

	"volume-sentry/shared/logger"
)

const (
	DefaultBaseURL = "https://api.dexscreener.com"

	fetchTimeout = 15 * time.Second

	// Placeholder shown when the provider reports no usable symbol.
	symbolPlaceholder = "—"
)

// Observation is a point-in-time snapshot of the best trading pair for one
// watched address. Volume5m and MarketCap are nil when the provider omits
// them or reports something unparseable.
type Observation struct {
	Address   string
	Symbol    string
	Volume5m  *float64
	MarketCap *float64
	PriceUsd  float64
}

type Token struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type Liquidity struct {
	Usd   float64 `json:"usd"`
	Base  float64 `json:"base"`
	Quote float64 `json:"quote"`
}

type Pair struct {
	ChainID     string             `json:"chainId"`
	DexID       string             `json:"dexId"`
	PairAddress string             `json:"pairAddress"`
	BaseToken   Token              `json:"baseToken"`
	QuoteToken  Token              `json:"quoteToken"`
	PriceUsd    string             `json:"priceUsd"`
	Volume      map[string]float64 `json:"volume"`
	Liquidity   *Liquidity         `json:"liquidity"`
	MarketCap   *float64           `json:"marketCap"`
}

type tokensResponse struct {
	Pairs []Pair `json:"pairs"`
}

// Client fetches per-address pair data from the DexScreener token endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *logger.Logger
}

func NewClient(baseURL string, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: fetchTimeout},
		// DexScreener allows ~300 req/min on this endpoint
		limiter: rate.NewLimiter(rate.Limit(4.66), 5),
		log:     log,
	}
}

// FetchPair returns the observation for the highest-liquidity pair of the
// given address. Any transport error, non-200 status or empty pair list is a
// soft miss reported as ok=false; nothing propagates to the caller.
func (c *Client) FetchPair(ctx context.Context, address string) (Observation, bool) {
	if err := c.limiter.Wait(ctx); err != nil {
		c.log.Warn("DexScreener rate limiter wait failed", "address", address, "error", err)
		return Observation{}, false
	}

	url := fmt.Sprintf("%s/latest/dex/tokens/%s", c.baseURL, address)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.log.Error("Failed to build DexScreener request", "address", address, "error", err)
		return Observation{}, false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("DexScreener request failed", "address", address, "error", err)
		return Observation{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("DexScreener returned non-OK status", "address", address, "status", resp.StatusCode)
		return Observation{}, false
	}

	var data tokensResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		c.log.Warn("DexScreener response unparseable", "address", address, "error", err)
		return Observation{}, false
	}
	if len(data.Pairs) == 0 {
		c.log.Debug("No trading pairs found on DexScreener", "address", address)
		return Observation{}, false
	}

	best := bestPair(data.Pairs)
	return buildObservation(address, best), true
}

// bestPair picks the pair with the greatest USD liquidity. Absent liquidity
// counts as zero and ties keep the provider's ordering.
func bestPair(pairs []Pair) Pair {
	return lo.MaxBy(pairs, func(a, b Pair) bool {
		return liquidityUSD(a) > liquidityUSD(b)
	})
}

func liquidityUSD(p Pair) float64 {
	if p.Liquidity == nil {
		return 0
	}
	return p.Liquidity.Usd
}

func buildObservation(address string, pair Pair) Observation {
	obs := Observation{Address: address}

	symbol := strings.ToUpper(strings.TrimSpace(pair.BaseToken.Symbol))
	if symbol == "" {
		symbol = symbolPlaceholder
	}
	obs.Symbol = symbol

	if v, ok := pair.Volume["m5"]; ok {
		vol := v
		obs.Volume5m = &vol
	}

	obs.MarketCap = pair.MarketCap

	if pair.PriceUsd != "" {
		if price, err := strconv.ParseFloat(pair.PriceUsd, 64); err == nil {
			obs.PriceUsd = price
		}
	}
	return obs
}
