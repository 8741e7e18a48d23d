package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"confluence/internal/adapters/exchanges"
	"confluence/internal/adapters/exchanges/ratelimit"
	"confluence/internal/domain/market"
	"confluence/internal/metrics"
	"confluence/pkg/errors"
)

const (
	defaultBaseURL     = "https://api.binance.com"
	defaultHTTPTimeout = 10 * time.Second

	// Binance allows 1200 request weight per minute; stay well under it
	defaultRequestsPerMinute = 600
)

// Config configures the Binance client.
type Config struct {
	APIKey  string
	BaseURL string // overridable for tests

	HTTPClient        *http.Client
	RequestsPerMinute int
}

// NewClient creates a new Binance market-data adapter.
func NewClient(cfg Config) (exchanges.Exchange, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = defaultRequestsPerMinute
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	return &client{
		cfg:        cfg,
		httpClient: httpClient,
		limiter:    ratelimit.NewLimiter("binance", cfg.RequestsPerMinute),
	}, nil
}

type client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *ratelimit.Limiter
}

func (c *client) Name() string {
	return "binance"
}

func (c *client) GetOHLCV(ctx context.Context, symbol string, timeframe string, limit int) ([]market.Bar, error) {
	if limit <= 0 {
		limit = 100
	}

	params := url.Values{
		"symbol":   []string{normalizeSymbol(symbol)},
		"interval": []string{timeframe},
		"limit":    []string{strconv.Itoa(limit)},
	}

	data, err := c.get(ctx, "/api/v3/klines", params)
	if err != nil {
		return nil, err
	}

	var raw [][]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "decode klines response")
	}

	bars := make([]market.Bar, 0, len(raw))
	for _, row := range raw {
		if len(row) < 6 {
			return nil, errors.Wrapf(errors.ErrExchangeUnavailable, "malformed kline row with %d fields", len(row))
		}
		bars = append(bars, market.Bar{
			Symbol:    symbol,
			Timeframe: timeframe,
			Timestamp: time.UnixMilli(toInt64(row[0])).UTC(),
			Open:      parseDecimal(fmt.Sprint(row[1])).InexactFloat64(),
			High:      parseDecimal(fmt.Sprint(row[2])).InexactFloat64(),
			Low:       parseDecimal(fmt.Sprint(row[3])).InexactFloat64(),
			Close:     parseDecimal(fmt.Sprint(row[4])).InexactFloat64(),
			Volume:    parseDecimal(fmt.Sprint(row[5])).InexactFloat64(),
		})
	}

	return bars, nil
}

func (c *client) GetTicker(ctx context.Context, symbol string) (*exchanges.Ticker, error) {
	params := url.Values{"symbol": []string{normalizeSymbol(symbol)}}

	data, err := c.get(ctx, "/api/v3/ticker/24hr", params)
	if err != nil {
		return nil, err
	}

	var res struct {
		Symbol             string `json:"symbol"`
		LastPrice          string `json:"lastPrice"`
		BidPrice           string `json:"bidPrice"`
		AskPrice           string `json:"askPrice"`
		HighPrice          string `json:"highPrice"`
		LowPrice           string `json:"lowPrice"`
		Volume             string `json:"volume"`
		QuoteVolume        string `json:"quoteVolume"`
		PriceChangePercent string `json:"priceChangePercent"`
		CloseTime          int64  `json:"closeTime"`
	}
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, errors.Wrap(err, "decode ticker response")
	}

	return &exchanges.Ticker{
		Symbol:       res.Symbol,
		LastPrice:    parseDecimal(res.LastPrice),
		BidPrice:     parseDecimal(res.BidPrice),
		AskPrice:     parseDecimal(res.AskPrice),
		High24h:      parseDecimal(res.HighPrice),
		Low24h:       parseDecimal(res.LowPrice),
		VolumeBase:   parseDecimal(res.Volume),
		VolumeQuote:  parseDecimal(res.QuoteVolume),
		Change24hPct: parseDecimal(res.PriceChangePercent),
		Timestamp:    time.UnixMilli(res.CloseTime),
	}, nil
}

func (c *client) get(ctx context.Context, endpoint string, params url.Values) (body []byte, err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() {
		metrics.RecordExchangeAPICall(c.Name(), endpoint, time.Since(start), err)
	}()

	reqURL := c.cfg.BaseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("X-MBX-APIKEY", c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrExchangeUnavailable, "binance %s: %v", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response body")
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errors.Wrapf(errors.ErrRateLimitExceeded, "binance %s", endpoint)
	case resp.StatusCode != http.StatusOK:
		var apiErr struct {
			Code int    `json:"code"`
			Msg  string `json:"msg"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Msg != "" {
			return nil, errors.Wrapf(errors.ErrExchangeUnavailable,
				"binance %s: status %d code %d: %s", endpoint, resp.StatusCode, apiErr.Code, apiErr.Msg)
		}
		return nil, errors.Wrapf(errors.ErrExchangeUnavailable, "binance %s: status %d", endpoint, resp.StatusCode)
	}

	return body, nil
}

func normalizeSymbol(symbol string) string {
	s := strings.ToUpper(symbol)
	s = strings.ReplaceAll(s, "/", "")
	return strings.ReplaceAll(s, "-", "")
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case json.Number:
		i, _ := n.Int64()
		return i
	default:
		return 0
	}
}
