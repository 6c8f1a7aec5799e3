package backend

import (
	"context"
	"errors"
	"testing"
	"time"

	"wolfquant/internal/gateway"
	"wolfquant/internal/models"
)

type stubAdapter struct {
	candles []models.Candle
	err     error
}

func (s *stubAdapter) FetchCandles(ctx context.Context, symbol string, start, end time.Time, interval string) ([]models.Candle, error) {
	return s.candles, s.err
}

func stubCandles(symbol string, n int) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		out[i] = models.Candle{
			Symbol:    symbol,
			Source:    "stub",
			AssetType: "crypto",
			Timestamp: int64(1700000000000 + i*3600000),
			Open:      100,
			High:      110,
			Low:       95,
			Close:     105,
			Volume:    12,
			Interval:  "1h",
		}
	}
	return out
}

func stubRegistry(adapter MarketAdapter) *AdapterRegistry {
	reg := NewAdapterRegistry()
	reg.Register("crypto", "stub", adapter)
	return reg
}

func startStubImport(t *testing.T, b *Backend) *models.ImportTask {
	t.Helper()

	task, err := b.startImport(context.Background(), &gateway.StartImportRequest{
		AssetType: "crypto",
		Symbol:    "BTCUSDT",
		Source:    "stub",
		StartTime: time.Now().Add(-24 * time.Hour),
		EndTime:   time.Now(),
		Interval:  "1h",
	})
	if err != nil {
		t.Fatalf("start import failed: %v", err)
	}
	return task
}

func waitForTerminal(t *testing.T, b *Backend, id string) *models.ImportTask {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		task, err := b.getImportTask(context.Background(), &gateway.GetImportTaskRequest{ID: id})
		if err != nil {
			t.Fatalf("fetch task failed: %v", err)
		}
		if task.Status.IsTerminal() {
			return task
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("task never reached a terminal status")
	return nil
}

func TestStartImport(t *testing.T) {
	t.Run("runs_to_completion", func(t *testing.T) {
		b := newTestBackend(t).WithAdapters(stubRegistry(&stubAdapter{candles: stubCandles("BTCUSDT", 3)}))
		task := startStubImport(t, b)

		if task.Status != models.ImportStatusPending {
			t.Errorf("expected pending task, got %s", task.Status)
		}

		done := waitForTerminal(t, b, task.ID)
		if done.Status != models.ImportStatusCompleted {
			t.Fatalf("expected completed, got %s (%v)", done.Status, done.Error)
		}
		if done.Progress != 100 || done.CompletedAt == nil {
			t.Errorf("expected full progress and completion time: %+v", done)
		}

		var count int64
		b.db.Model(&models.Candle{}).Where("symbol = ?", "BTCUSDT").Count(&count)
		if count != 3 {
			t.Errorf("expected 3 candles saved, got %d", count)
		}
	})

	t.Run("reimport_is_idempotent", func(t *testing.T) {
		b := newTestBackend(t).WithAdapters(stubRegistry(&stubAdapter{candles: stubCandles("BTCUSDT", 2)}))

		first := startStubImport(t, b)
		waitForTerminal(t, b, first.ID)
		second := startStubImport(t, b)
		waitForTerminal(t, b, second.ID)

		var count int64
		b.db.Model(&models.Candle{}).Count(&count)
		if count != 2 {
			t.Errorf("expected 2 candles after re-import, got %d", count)
		}
	})

	t.Run("adapter_failure_fails_task", func(t *testing.T) {
		b := newTestBackend(t).WithAdapters(stubRegistry(&stubAdapter{err: errors.New("rate limited")}))
		task := startStubImport(t, b)

		done := waitForTerminal(t, b, task.ID)
		if done.Status != models.ImportStatusFailed {
			t.Fatalf("expected failed, got %s", done.Status)
		}
		if done.Error == nil || *done.Error != "rate limited" {
			t.Errorf("expected failure reason recorded, got %v", done.Error)
		}
	})

	t.Run("unknown_source_rejected", func(t *testing.T) {
		b := newTestBackend(t).WithAdapters(stubRegistry(&stubAdapter{}))
		_, err := b.startImport(context.Background(), &gateway.StartImportRequest{
			AssetType: "crypto",
			Symbol:    "BTCUSDT",
			Source:    "nasdaq",
			StartTime: time.Now().Add(-time.Hour),
			EndTime:   time.Now(),
			Interval:  "1h",
		})
		assertCode(t, err, "UNKNOWN_SOURCE")
	})

	t.Run("inverted_time_range_rejected", func(t *testing.T) {
		b := newTestBackend(t).WithAdapters(stubRegistry(&stubAdapter{}))
		_, err := b.startImport(context.Background(), &gateway.StartImportRequest{
			AssetType: "crypto",
			Symbol:    "BTCUSDT",
			Source:    "stub",
			StartTime: time.Now(),
			EndTime:   time.Now().Add(-time.Hour),
			Interval:  "1h",
		})
		assertCode(t, err, "INVALID_TIME_RANGE")
	})
}

func TestGetImportTask(t *testing.T) {
	b := newTestBackend(t)
	_, err := b.getImportTask(context.Background(), &gateway.GetImportTaskRequest{
		ID: "0198c5f2-0000-7000-8000-000000000000",
	})
	assertCode(t, err, "TASK_NOT_FOUND")
}

func TestGetAvailableData(t *testing.T) {
	b := newTestBackend(t).WithAdapters(stubRegistry(&stubAdapter{candles: stubCandles("BTCUSDT", 4)}))
	task := startStubImport(t, b)
	waitForTerminal(t, b, task.ID)

	infos, err := b.getAvailableData(context.Background())
	if err != nil {
		t.Fatalf("get available data failed: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("expected one dataset, got %d", len(infos))
	}
	info := infos[0]
	if info.Symbol != "BTCUSDT" || info.Source != "stub" || info.CandleCount != 4 {
		t.Errorf("unexpected dataset summary: %+v", info)
	}
	if info.MinTimestamp >= info.MaxTimestamp {
		t.Errorf("expected a covered range, got %d..%d", info.MinTimestamp, info.MaxTimestamp)
	}
	if info.Intervals != "1h" {
		t.Errorf("expected interval list 1h, got %q", info.Intervals)
	}
}
