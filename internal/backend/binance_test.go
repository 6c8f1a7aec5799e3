package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestBinanceAdapter_FetchCandles(t *testing.T) {
	t.Run("parses_kline_rows", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/v3/klines" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if got := r.URL.Query().Get("symbol"); got != "BTCUSDT" {
				t.Errorf("unexpected symbol %q", got)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[
				[1700000000000, "100.5", "110.0", "95.25", "105.75", "12.5", 1700003599999],
				[1700003600000, "105.75", "112.0", "104.0", "111.5", "8.25", 1700007199999]
			]`))
		}))
		defer server.Close()

		adapter := NewBinanceAdapterWithBaseURL(server.URL)
		candles, err := adapter.FetchCandles(context.Background(), "BTCUSDT",
			time.UnixMilli(1700000000000), time.UnixMilli(1700007200000), "1h")
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if len(candles) != 2 {
			t.Fatalf("expected 2 candles, got %d", len(candles))
		}
		c := candles[0]
		if c.Timestamp != 1700000000000 || c.Open != 100.5 || c.High != 110 ||
			c.Low != 95.25 || c.Close != 105.75 || c.Volume != 12.5 {
			t.Errorf("unexpected candle: %+v", c)
		}
		if c.Source != "binance" || c.AssetType != "crypto" || c.Interval != "1h" {
			t.Errorf("unexpected metadata: %+v", c)
		}
	})

	t.Run("surfaces_http_errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		adapter := NewBinanceAdapterWithBaseURL(server.URL)
		_, err := adapter.FetchCandles(context.Background(), "BTCUSDT",
			time.UnixMilli(0), time.UnixMilli(1000), "1h")
		if err == nil {
			t.Fatal("expected an error for a 429 response")
		}
	})

	t.Run("empty_range_returns_no_candles", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[]`))
		}))
		defer server.Close()

		adapter := NewBinanceAdapterWithBaseURL(server.URL)
		candles, err := adapter.FetchCandles(context.Background(), "BTCUSDT",
			time.UnixMilli(0), time.UnixMilli(1000), "1h")
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if len(candles) != 0 {
			t.Errorf("expected no candles, got %d", len(candles))
		}
	})
}
