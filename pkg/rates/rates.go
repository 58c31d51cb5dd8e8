// Package rates fetches exchange rates from an external JSON endpoint and converts
// amounts between currencies. Rates are only used for aggregation and display; they
// never become part of a stored amount.
package rates

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
)

// ErrUnknownRate is returned when a currency is missing from a rate table
var ErrUnknownRate = errors.New("rates: unknown currency")

// Provider returns, for a base currency, how many units of each currency one unit of
// base is worth. The base itself maps to 1.
type Provider interface {
	Rates(ctx context.Context, base string) (map[string]decimal.Decimal, error)
}

// Convert converts amount from one currency to another using a table from Provider.Rates.
func Convert(amount decimal.Decimal, from, to string, rates map[string]decimal.Decimal) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}
	rf, ok := rates[from]
	if !ok || rf.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownRate, from)
	}
	rt, ok := rates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownRate, to)
	}
	return amount.Div(rf).Mul(rt), nil
}

// Client is an HTTP Provider. URLTemplate contains "{base}", RatesPath is a JSONPath
// selecting the currency->rate object in the response, e.g. "$.rates".
type Client struct {
	URLTemplate string
	RatesPath   string
	HTTPClient  *http.Client
	MaxRetries  int
	Backoff     time.Duration
	TTL         time.Duration

	mu    sync.Mutex
	cache map[string]cachedRates
	now   func() time.Time
}

type cachedRates struct {
	rates   map[string]decimal.Decimal
	fetched time.Time
}

// NewClient creates a rates client
func NewClient(urlTemplate, ratesPath string, timeout time.Duration) *Client {
	return &Client{
		URLTemplate: urlTemplate,
		RatesPath:   ratesPath,
		HTTPClient:  &http.Client{Timeout: timeout},
		MaxRetries:  3,
		Backoff:     time.Second,
		TTL:         time.Hour,
		cache:       make(map[string]cachedRates),
		now:         time.Now,
	}
}

// Rates implements Provider
func (c *Client) Rates(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	base = strings.ToUpper(base)
	c.mu.Lock()
	if hit, ok := c.cache[base]; ok && c.now().Sub(hit.fetched) < c.TTL {
		c.mu.Unlock()
		return hit.rates, nil
	}
	c.mu.Unlock()

	body, err := c.fetch(ctx, strings.ReplaceAll(c.URLTemplate, "{base}", base))
	if err != nil {
		return nil, err
	}
	rates, err := c.parse(body)
	if err != nil {
		return nil, fmt.Errorf("rates: parsing %s response: %w", base, err)
	}
	rates[base] = decimal.NewFromInt(1)

	c.mu.Lock()
	c.cache[base] = cachedRates{rates: rates, fetched: c.now()}
	c.mu.Unlock()
	return rates, nil
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	retries := max(c.MaxRetries, 1)
	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		body, err := c.get(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		log.Printf("rates: request to %s failed on attempt %d: %v", url, attempt, err)

		if attempt < retries {
			backoff := c.Backoff * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return nil, fmt.Errorf("rates: failed after %d attempts: %w", retries, lastErr)
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %s", resp.Status)
	}
	return buf.Bytes(), nil
}

func (c *Client) parse(body []byte) (map[string]decimal.Decimal, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	path := c.RatesPath
	if path == "" {
		path = "$.rates"
	}
	raw, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil, err
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%q is not an object", path)
	}
	out := make(map[string]decimal.Decimal, len(obj))
	for code, v := range obj {
		f, ok := v.(float64)
		if !ok {
			continue
		}
		out[strings.ToUpper(code)] = decimal.NewFromFloat(f)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no rates under %q", path)
	}
	return out, nil
}

// Fixed is a Provider backed by a constant table quoted against Base
type Fixed struct {
	Base  string
	Table map[string]decimal.Decimal
}

// Rates implements Provider by re-basing the table on base
func (f Fixed) Rates(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	table := make(map[string]decimal.Decimal, len(f.Table)+1)
	for k, v := range f.Table {
		table[k] = v
	}
	table[f.Base] = decimal.NewFromInt(1)

	pivot, ok := table[base]
	if !ok || pivot.IsZero() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRate, base)
	}
	out := make(map[string]decimal.Decimal, len(table))
	for k, v := range table {
		out[k] = v.Div(pivot)
	}
	return out, nil
}
