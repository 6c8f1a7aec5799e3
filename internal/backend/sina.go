package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"wolfquant/internal/models"
)

const sinaDateLayout = "2006-01-02"

// SinaFundAdapter fetches daily fund NAV history from the Sina finance
// API. Funds publish one net asset value per trading day, so the
// requested interval is ignored and every bar carries the NAV as its
// open, high, low and close.
type SinaFundAdapter struct {
	baseURL string
	client  *http.Client
}

// NewSinaFundAdapter returns an adapter against the production endpoint.
func NewSinaFundAdapter() *SinaFundAdapter {
	return &SinaFundAdapter{
		baseURL: "https://stock.finance.sina.com.cn/fundInfo",
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// NewSinaFundAdapterWithBaseURL is used by tests to point at a local server.
func NewSinaFundAdapterWithBaseURL(baseURL string) *SinaFundAdapter {
	a := NewSinaFundAdapter()
	a.baseURL = baseURL
	return a
}

// FetchCandles requests the NAV history for [start, end] in one call; the
// endpoint takes a date range and is not paged.
func (a *SinaFundAdapter) FetchCandles(ctx context.Context, symbol string, start, end time.Time, _ string) ([]models.Candle, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("start_date", start.UTC().Format(sinaDateLayout))
	q.Set("end_date", end.UTC().Format(sinaDateLayout))

	reqURL := a.baseURL + "/api/fund/history_nav?" + q.Encode()
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
		return nil, fmt.Errorf("sina history_nav returned status %d", resp.StatusCode)
	}

	// Each row is one trading day with the value as a string:
	// {"date": "2024-01-02", "nav": "1.2340"}
	var body struct {
		Data []struct {
			Date string `json:"date"`
			Nav  string `json:"nav"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode nav history: %w", err)
	}

	candles := make([]models.Candle, 0, len(body.Data))
	for _, row := range body.Data {
		day, err := time.ParseInLocation(sinaDateLayout, row.Date, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("malformed nav date %q: %w", row.Date, err)
		}
		nav, err := strconv.ParseFloat(row.Nav, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed nav %q: %w", row.Nav, err)
		}
		candles = append(candles, models.Candle{
			Symbol:    symbol,
			Source:    "sina",
			AssetType: "fund",
			Timestamp: day.UnixMilli(),
			Open:      nav,
			High:      nav,
			Low:       nav,
			Close:     nav,
			Volume:    0,
			Interval:  "1d",
		})
	}

	// The endpoint does not guarantee order.
	sort.Slice(candles, func(i, j int) bool { return candles[i].Timestamp < candles[j].Timestamp })
	return candles, nil
}
