package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"wolfquant/internal/models"
)

const binanceKlineLimit = 1000

// BinanceAdapter fetches spot klines from the public Binance REST API.
type BinanceAdapter struct {
	baseURL string
	client  *http.Client
}

// NewBinanceAdapter returns an adapter against the production endpoint.
func NewBinanceAdapter() *BinanceAdapter {
	return &BinanceAdapter{
		baseURL: "https://api.binance.com",
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// NewBinanceAdapterWithBaseURL is used by tests to point at a local server.
func NewBinanceAdapterWithBaseURL(baseURL string) *BinanceAdapter {
	a := NewBinanceAdapter()
	a.baseURL = baseURL
	return a
}

// FetchCandles pages through /api/v3/klines until the requested range is
// covered. Binance caps each response at 1000 bars.
func (a *BinanceAdapter) FetchCandles(ctx context.Context, symbol string, start, end time.Time, interval string) ([]models.Candle, error) {
	var out []models.Candle
	cursor := start.UnixMilli()
	endMs := end.UnixMilli()

	for cursor < endMs {
		batch, err := a.fetchPage(ctx, symbol, cursor, endMs, interval)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		out = append(out, batch...)
		// Next page starts one bar past the last timestamp returned.
		cursor = batch[len(batch)-1].Timestamp + 1
		if len(batch) < binanceKlineLimit {
			break
		}
	}
	return out, nil
}

func (a *BinanceAdapter) fetchPage(ctx context.Context, symbol string, startMs, endMs int64, interval string) ([]models.Candle, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("startTime", strconv.FormatInt(startMs, 10))
	q.Set("endTime", strconv.FormatInt(endMs, 10))
	q.Set("limit", strconv.Itoa(binanceKlineLimit))

	reqURL := a.baseURL + "/api/v3/klines?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("binance klines returned status %d", resp.StatusCode)
	}

	// Each kline is a JSON array:
	// [openTime, open, high, low, close, volume, closeTime, ...]
	// with prices and volume as strings.
	var rows [][]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode klines: %w", err)
	}

	candles := make([]models.Candle, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			return nil, fmt.Errorf("malformed kline row with %d fields", len(row))
		}
		var openTime int64
		if err := json.Unmarshal(row[0], &openTime); err != nil {
			return nil, fmt.Errorf("malformed kline open time: %w", err)
		}
		values := make([]float64, 5)
		for i := 1; i <= 5; i++ {
			var s string
			if err := json.Unmarshal(row[i], &s); err != nil {
				return nil, fmt.Errorf("malformed kline field %d: %w", i, err)
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("malformed kline number %q: %w", s, err)
			}
			values[i-1] = v
		}
		candles = append(candles, models.Candle{
			Symbol:    symbol,
			Source:    "binance",
			AssetType: "crypto",
			Timestamp: openTime,
			Open:      values[0],
			High:      values[1],
			Low:       values[2],
			Close:     values[3],
			Volume:    values[4],
			Interval:  interval,
		})
	}
	return candles, nil
}
