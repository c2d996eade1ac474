package rates

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"fintrack/internal/log"
)

// Client fetches the ECB daily reference rates feed and answers currency
// conversions against it. The feed is EUR-based; rates are cached for the
// configured TTL because the ECB publishes once per business day.
type Client struct {
	url    string
	ttl    time.Duration
	client *http.Client
	logger *log.Logger

	group singleflight.Group

	mu        sync.RWMutex
	rates     map[string]decimal.Decimal
	fetchedAt time.Time
}

func NewClient(url string, ttl time.Duration, logger *log.Logger) *Client {
	return &Client{
		url:    url,
		ttl:    ttl,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger.WithComponent(log.ComponentRates),
	}
}

// Rates returns the cached EUR-based rate table, refreshing it when stale.
// EUR itself is always present with rate 1.
func (c *Client) Rates(ctx context.Context) (map[string]decimal.Decimal, error) {
	if rates, ok := c.cached(); ok {
		return rates, nil
	}

	// Concurrent callers with a stale cache share one fetch.
	v, err, _ := c.group.Do("refresh", func() (any, error) {
		return c.refresh(ctx)
	})
	if err != nil {
		c.mu.RLock()
		defer c.mu.RUnlock()
		if c.rates != nil {
			c.logger.WarnContext(ctx, "rate refresh failed, serving stale rates", log.FieldError, err)
			return c.rates, nil
		}
		return nil, err
	}
	return v.(map[string]decimal.Decimal), nil
}

func (c *Client) cached() (map[string]decimal.Decimal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.rates != nil && time.Since(c.fetchedAt) < c.ttl {
		return c.rates, true
	}
	return nil, false
}

func (c *Client) refresh(ctx context.Context) (map[string]decimal.Decimal, error) {
	// A caller queued behind a completed refresh sees the fresh cache here.
	if rates, ok := c.cached(); ok {
		return rates, nil
	}

	body, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	rates, err := parseRates(body)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.rates = rates
	c.fetchedAt = time.Now()
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "refreshed exchange rates", "currencies", len(rates))
	return rates, nil
}

// Convert converts an amount between two currency codes via EUR.
func (c *Client) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)
	if from == to {
		return amount, nil
	}

	rates, err := c.Rates(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	fromRate, ok := rates[from]
	if !ok {
		return decimal.Zero, fmt.Errorf("unknown currency %q", from)
	}
	toRate, ok := rates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("unknown currency %q", to)
	}

	// amount / fromRate = EUR, then EUR * toRate.
	return amount.Div(fromRate).Mul(toRate), nil
}

func (c *Client) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create rates request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch rates: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read rates response: %w", err)
	}
	return body, nil
}

// parseRates extracts currency/rate attribute pairs from the ECB feed XML.
func parseRates(body []byte) (map[string]decimal.Decimal, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, fmt.Errorf("parse rates XML: %w", err)
	}

	rates := map[string]decimal.Decimal{
		"EUR": decimal.NewFromInt(1),
	}
	for _, cube := range doc.FindElements("//Cube[@currency]") {
		currency := cube.SelectAttrValue("currency", "")
		rateText := cube.SelectAttrValue("rate", "")
		if currency == "" || rateText == "" {
			continue
		}
		rate, err := decimal.NewFromString(rateText)
		if err != nil {
			return nil, fmt.Errorf("parse rate for %s: %w", currency, err)
		}
		rates[currency] = rate
	}

	if len(rates) == 1 {
		return nil, fmt.Errorf("no rates found in feed")
	}
	return rates, nil
}
