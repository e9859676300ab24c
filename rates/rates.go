// Package rates resolves exchange rates for settlement. Resolution order:
// exact cached date, the frankfurter.app API, nearby cached dates, then an
// injected fallback table. The provider never fails to produce a usable
// number; the settlement layer relies on that.
package rates

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultBaseURL is the free historical-rates API queried on cache misses.
const DefaultBaseURL = "https://api.frankfurter.app"

// Cache is the persistent rate cache, typically backed by the store.
type Cache interface {
	Rate(date, from, to string) (float64, bool, error)
	SaveRate(date, from, to string, rate float64) error
}

// Provider implements settle.RateSource.
type Provider struct {
	cache    Cache
	fallback map[string]float64 // from-currency -> rate, valid for fallbackTo

	// BaseURL and HTTPClient may be overridden before first use; tests
	// point BaseURL at a local server.
	BaseURL    string
	HTTPClient *http.Client

	fallbackTo string
}

// New builds a provider. fallback maps a source currency to a static
// approximate rate into currency to; it is configuration, not a hidden
// constant, so tests can override it deterministically.
func New(cache Cache, fallback map[string]float64, to string) *Provider {
	return &Provider{
		cache:      cache,
		fallback:   fallback,
		fallbackTo: to,
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Rate returns the exchange rate for a date (YYYY-MM-DD) and pair. It
// never fails: after the full chain it returns 1.0. Cache errors are
// treated as misses.
func (p *Provider) Rate(date, from, to string) float64 {
	if from == to {
		return 1
	}

	if rate, ok, err := p.cache.Rate(date, from, to); err == nil && ok {
		return rate
	}

	rate := p.fetch(date, from, to)
	if rate == 0 {
		rate = p.nearby(date, from, to)
	}
	if rate == 0 {
		rate = p.fallbackRate(from, to)
	}
	if rate == 0 {
		return 1
	}

	_ = p.cache.SaveRate(date, from, to, rate)
	return rate
}

// BatchFetch pre-warms the cache for a set of dates, typically right after
// an import so the calculation phase runs offline.
func (p *Provider) BatchFetch(dates []string, from, to string) {
	for _, date := range dates {
		p.Rate(date, from, to)
	}
}

// fetch asks the API for the rate; any transport, status or decode problem
// is a miss, not an error.
func (p *Provider) fetch(date, from, to string) float64 {
	u := fmt.Sprintf("%s/%s?from=%s&to=%s", p.BaseURL, date,
		url.QueryEscape(from), url.QueryEscape(to))

	resp, err := p.HTTPClient.Get(u)
	if err != nil {
		return 0
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0
	}

	var parsed struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0
	}
	return parsed.Rates[to]
}

// nearby scans cached rates up to seven days either side of the date,
// closest first.
func (p *Provider) nearby(date, from, to string) float64 {
	target, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 0
	}
	for offset := 1; offset <= 7; offset++ {
		for _, direction := range []int{-1, 1} {
			check := target.AddDate(0, 0, offset*direction).Format("2006-01-02")
			if rate, ok, err := p.cache.Rate(check, from, to); err == nil && ok {
				return rate
			}
		}
	}
	return 0
}

func (p *Provider) fallbackRate(from, to string) float64 {
	if to != p.fallbackTo {
		return 0
	}
	return p.fallback[from]
}
