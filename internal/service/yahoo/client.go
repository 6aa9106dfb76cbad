package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"MarketCast/internal/domain/models"
	domrepo "MarketCast/internal/domain/repository"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// Client fetches OHLCV bars from the Yahoo Finance chart API. One client
// serves one bar interval; the collector runs all its cadences on the
// configured interval, as the original process-per-timeframe deployment
// did.
type Client struct {
	baseURL   string
	interval  string
	lookback  time.Duration
	userAgent string
	http      *http.Client
}

// Option configures Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint (tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithInterval sets the bar interval, e.g. "1d" or "60m".
func WithInterval(interval string) Option {
	return func(c *Client) { c.interval = interval }
}

// WithLookback sets how far back the first fetch of an instrument reaches
// when there is no watermark yet.
func WithLookback(d time.Duration) Option {
	return func(c *Client) { c.lookback = d }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a chart API client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:   defaultBaseURL,
		interval:  "1d",
		lookback:  5 * 24 * time.Hour,
		userAgent: "Mozilla/5.0",
		http:      &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ domrepo.Provider = (*Client)(nil)

// chartResponse is the wire shape of the chart API.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []any `json:"open"`
					High   []any `json:"high"`
					Low    []any `json:"low"`
					Close  []any `json:"close"`
					Volume []any `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Fetch returns bars for symbol strictly newer than since, ascending by
// timestamp. Failures carry the models.FetchError taxonomy.
func (c *Client) Fetch(ctx context.Context, symbol string, since time.Time, hasSince bool) ([]models.OHLCVRecord, error) {
	now := time.Now()
	from := now.Add(-c.lookback)
	if hasSince {
		from = since
	}

	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&period1=%d&period2=%d",
		c.baseURL, url.PathEscape(symbol), c.interval, from.Unix(), now.Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, models.ProviderError(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, models.TransientError(fmt.Errorf("chart fetch %s: %w", symbol, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, models.TransientError(fmt.Errorf("chart read %s: %w", symbol, err))
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, models.RateLimitedError(fmt.Errorf("chart %s: status 429", symbol))
	case resp.StatusCode == http.StatusNotFound:
		return nil, models.NotFoundError(fmt.Errorf("chart %s: status 404", symbol))
	case resp.StatusCode >= 500:
		return nil, models.TransientError(fmt.Errorf("chart %s: status %d", symbol, resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, models.ProviderError(fmt.Errorf("chart %s: status %d, body %.200s", symbol, resp.StatusCode, body))
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, models.ProviderError(fmt.Errorf("chart decode %s: %w", symbol, err))
	}
	if e := chart.Chart.Error; e != nil {
		if e.Code == "Not Found" {
			return nil, models.NotFoundError(fmt.Errorf("chart %s: %s", symbol, e.Description))
		}
		return nil, models.ProviderError(fmt.Errorf("chart %s: %s: %s", symbol, e.Code, e.Description))
	}
	if len(chart.Chart.Result) == 0 {
		return nil, nil
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, nil
	}
	quote := result.Indicators.Quote[0]

	records := make([]models.OHLCVRecord, 0, len(result.Timestamp))
	for i, unix := range result.Timestamp {
		ts := time.Unix(unix, 0).UTC()
		if hasSince && !ts.After(since) {
			continue
		}
		o, h, l, cl := toFloat(at(quote.Open, i)), toFloat(at(quote.High, i)), toFloat(at(quote.Low, i)), toFloat(at(quote.Close, i))
		if o == 0 && h == 0 && l == 0 && cl == 0 {
			continue // null bars on holidays
		}
		records = append(records, models.OHLCVRecord{
			Schema:    models.SchemaVersion,
			Symbol:    symbol,
			Timestamp: ts,
			Open:      o,
			High:      h,
			Low:       l,
			Close:     cl,
			Volume:    int64(toFloat(at(quote.Volume, i))),
		})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
	return records, nil
}

func at(vals []any, i int) any {
	if i >= len(vals) {
		return nil
	}
	return vals[i]
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}
