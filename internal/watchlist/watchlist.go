package watchlist

import (
	"encoding/json"
	"os"
	"strings"

	"volume-sentry/shared/logger"
)

// Addresses shorter than this cannot be valid on-chain addresses on any of
// the chains DexScreener indexes.
const minAddressLength = 20

// Loader re-reads the watch-list file on every Load call so that edits take
// effect on the next polling cycle without a restart.
type Loader struct {
	path string
	log  *logger.Logger
}

func NewLoader(path string, log *logger.Logger) *Loader {
	return &Loader{path: path, log: log}
}

// entry accepts both document shapes: a bare address string, or an object
// carrying an "address" field alongside ignored metadata.
type entry struct {
	Address string
}

func (e *entry) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		e.Address = s
		return nil
	}
	var obj struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		e.Address = obj.Address
		return nil
	}
	// Unrecognized entry shapes are dropped, not fatal.
	e.Address = ""
	return nil
}

type document struct {
	Tokens []entry `json:"tokens"`
}

// Load returns the current watch-list. A missing or unparseable file yields
// an empty list; the absence of configuration never fails the polling loop.
func (l *Loader) Load() []string {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		l.log.Warn("Watch-list file unreadable, using empty list", "path", l.path, "error", err)
		return nil
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		l.log.Warn("Watch-list file unparseable, using empty list", "path", l.path, "error", err)
		return nil
	}

	addresses := make([]string, 0, len(doc.Tokens))
	for _, t := range doc.Tokens {
		addr := strings.TrimSpace(t.Address)
		if addr == "" {
			continue
		}
		if len(addr) < minAddressLength {
			l.log.Debug("Skipping watch-list entry below minimum address length", "address", addr)
			continue
		}
		addresses = append(addresses, addr)
	}
	return addresses
}
