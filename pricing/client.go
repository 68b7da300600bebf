package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"

	"github.com/kmenon/lotbook/date"
)

// Config holds the quote API settings, read from the environment.
type Config struct {
	BaseURL string        `env:"QUOTES_BASE_URL" envDefault:"https://eodhd.com/api"`
	APIKey  string        `env:"QUOTES_API_KEY"`
	Timeout time.Duration `env:"QUOTES_TIMEOUT" envDefault:"10s"`
}

// ConfigFromEnv builds a Config from QUOTES_* environment variables.
func ConfigFromEnv() (Config, error) {
	return env.ParseAs[Config]()
}

// Client fetches quotes from an EODHD-style HTTP API.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

// jwget performs an HTTP GET request and unmarshals the JSON response into data.
func jwget(ctx context.Context, client *http.Client, addr string, data any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cannot http GET %v/%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	var buf bytes.Buffer
	if _, err = io.Copy(&buf, resp.Body); err != nil {
		return err
	}
	return json.Unmarshal(buf.Bytes(), data)
}

// jpathNumber extracts a single number from a decoded JSON document.
func jpathNumber(jobj any, path string) (decimal.Decimal, error) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("error parsing %q: %w", path, err)
	}
	// jsonpath is never clear about whether it returns a list of 1 answer,
	// or a single answer: keep the first one if any.
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	val, ok := jval.(float64)
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("error parsing %q: not a number %v", path, jval)
	}
	return decimal.NewFromFloat(val), nil
}

// CurrentPrices fetches the latest quote per ticker. Tickers the API does
// not know are simply absent from the result.
func (c *Client) CurrentPrices(ctx context.Context, tickers []string) (map[string]Quote, error) {
	quotes := make(map[string]Quote, len(tickers))
	for _, ticker := range tickers {
		// https://eodhd.com/api/real-time/NVD.F?fmt=json
		addr := fmt.Sprintf("%s/real-time/%s?fmt=json&api_token=%s", c.cfg.BaseURL, url.PathEscape(ticker), c.cfg.APIKey)
		var jobj any
		if err := jwget(ctx, c.http, addr, &jobj); err != nil {
			return quotes, fmt.Errorf("error in wget %q: %w", ticker, err)
		}
		price, err := jpathNumber(jobj, "$.close")
		if err != nil {
			// unknown tickers come back with "NA" fields, skip them
			continue
		}
		prev, err := jpathNumber(jobj, "$.previousClose")
		if err != nil {
			prev = price
		}
		quotes[ticker] = Quote{Price: price, PreviousClose: prev}
	}
	return quotes, nil
}

// HistoricalPrices fetches dated closing prices per ticker over a range,
// adjusted for splits by the API.
func (c *Client) HistoricalPrices(ctx context.Context, tickers []string, r date.Range) (map[string]map[date.Date]decimal.Decimal, error) {
	// https://eodhd.com/api/eod/NVD.F?fmt=json&from=2024-01-01&to=2024-12-31
	type info struct {
		Date  date.Date `json:"date"`
		Close float64   `json:"adjusted_close"`
	}
	histories := make(map[string]map[date.Date]decimal.Decimal, len(tickers))
	for _, ticker := range tickers {
		addr := fmt.Sprintf("%s/eod/%s?fmt=json&api_token=%s&from=%s&to=%s", c.cfg.BaseURL, url.PathEscape(ticker), c.cfg.APIKey, r.From, r.To)
		content := make([]info, 0)
		if err := jwget(ctx, c.http, addr, &content); err != nil {
			return histories, fmt.Errorf("error in wget %q: %w", ticker, err)
		}
		prices := make(map[date.Date]decimal.Decimal, len(content))
		for _, i := range content {
			prices[i.Date] = decimal.NewFromFloat(i.Close)
		}
		histories[ticker] = prices
	}
	return histories, nil
}
