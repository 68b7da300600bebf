package pricing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmenon/lotbook/date"
)

func testServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, APIKey: "test", Timeout: 5 * time.Second})
}

func TestCurrentPrices(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/real-time/REL.NSE":
			w.Write([]byte(`{"code":"REL.NSE","close":2854.1,"previousClose":2840.3}`))
		case "/real-time/GONE.NSE":
			w.Write([]byte(`{"code":"GONE.NSE","close":"NA","previousClose":"NA"}`))
		default:
			http.NotFound(w, r)
		}
	})

	quotes, err := c.CurrentPrices(context.Background(), []string{"REL.NSE", "GONE.NSE"})
	require.NoError(t, err)

	q, ok := quotes["REL.NSE"]
	require.True(t, ok)
	assert.True(t, q.Price.Equal(decimal.RequireFromString("2854.1")), "got %s", q.Price)
	assert.True(t, q.PreviousClose.Equal(decimal.RequireFromString("2840.3")))

	// unquotable tickers are absent, not an error
	_, ok = quotes["GONE.NSE"]
	assert.False(t, ok)
}

func TestCurrentPricesServerError(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	_, err := c.CurrentPrices(context.Background(), []string{"REL.NSE"})
	require.Error(t, err)
}

func TestHistoricalPrices(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/eod/REL.NSE", r.URL.Path)
		assert.Equal(t, "2024-01-01", r.URL.Query().Get("from"))
		assert.Equal(t, "2024-01-31", r.URL.Query().Get("to"))
		w.Write([]byte(`[
			{"date":"2024-01-02","adjusted_close":2800.5},
			{"date":"2024-01-03","adjusted_close":2812.0}
		]`))
	})

	r := date.NewRange(date.New(2024, time.January, 1), date.New(2024, time.January, 31))
	histories, err := c.HistoricalPrices(context.Background(), []string{"REL.NSE"}, r)
	require.NoError(t, err)

	prices := histories["REL.NSE"]
	require.Len(t, prices, 2)
	assert.True(t, prices[date.New(2024, time.January, 2)].Equal(decimal.RequireFromString("2800.5")))
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("QUOTES_BASE_URL", "https://quotes.internal/api")
	t.Setenv("QUOTES_API_KEY", "k-123")
	t.Setenv("QUOTES_TIMEOUT", "3s")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "https://quotes.internal/api", cfg.BaseURL)
	assert.Equal(t, "k-123", cfg.APIKey)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
}

func TestStaticProvider(t *testing.T) {
	on := date.New(2024, time.January, 2)
	s := NewStatic().
		Set("REL.NSE", decimal.NewFromInt(2850), decimal.NewFromInt(2840)).
		SetOn("REL.NSE", on, decimal.NewFromInt(2800))

	quotes, err := s.CurrentPrices(context.Background(), []string{"REL.NSE", "MISSING"})
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.True(t, quotes["REL.NSE"].Price.Equal(decimal.NewFromInt(2850)))

	histories, err := s.HistoricalPrices(context.Background(), []string{"REL.NSE"},
		date.NewRange(date.New(2024, time.January, 1), date.New(2024, time.January, 31)))
	require.NoError(t, err)
	assert.True(t, histories["REL.NSE"][on].Equal(decimal.NewFromInt(2800)))

	// outside the range nothing comes back
	histories, err = s.HistoricalPrices(context.Background(), []string{"REL.NSE"},
		date.NewRange(date.New(2024, time.February, 1), date.New(2024, time.February, 28)))
	require.NoError(t, err)
	assert.Empty(t, histories["REL.NSE"])
}
