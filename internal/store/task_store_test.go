package store

import (
	"context"
	"testing"
	"time"

	"wolfquant/internal/backend"
	"wolfquant/internal/models"
	"wolfquant/internal/testutil"
)

type fixedAdapter struct{ candles []models.Candle }

func (a *fixedAdapter) FetchCandles(ctx context.Context, symbol string, start, end time.Time, interval string) ([]models.Candle, error) {
	return a.candles, nil
}

func TestTaskStore_StartImportAndRefresh(t *testing.T) {
	f := newFixture(t)
	f.login(t, "ivan")
	ctx := context.Background()

	reg := backend.NewAdapterRegistry()
	reg.Register("crypto", "stub", &fixedAdapter{candles: []models.Candle{{
		Symbol: "BTCUSDT", Source: "stub", AssetType: "crypto",
		Timestamp: 1700000000000, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 3,
		Interval: "1h",
	}}})
	f.backend.WithAdapters(reg)

	task, err := f.tasks.StartImport(ctx, "crypto", "BTCUSDT", "stub",
		time.Now().Add(-time.Hour), time.Now(), "1h")
	if err != nil {
		t.Fatalf("start import failed: %v", err)
	}
	if task.ID == "" || task.Status != models.ImportStatusPending {
		t.Errorf("unexpected task: %+v", task)
	}

	current, ok := f.tasks.Current()
	if !ok || current.ID != task.ID {
		t.Error("started task must become current")
	}
	if got := f.tasks.Tasks(); len(got) != 1 || got[0].ID != task.ID {
		t.Errorf("expected task prepended, got %+v", got)
	}

	// Poll until the background import completes.
	deadline := time.Now().Add(5 * time.Second)
	for {
		fetched, err := f.tasks.Fetch(ctx, task.ID)
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if fetched.Status.IsTerminal() {
			if fetched.Status != models.ImportStatusCompleted {
				t.Fatalf("expected completed, got %s", fetched.Status)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("import never completed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	tasks, err := f.tasks.Refresh(ctx)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Status != models.ImportStatusCompleted {
		t.Errorf("unexpected refreshed list: %+v", tasks)
	}
}

// A restarted shell sees historical tasks through Refresh and can fetch
// any of them by id.
func TestTaskStore_RefreshListsExistingTasks(t *testing.T) {
	f := newFixture(t)
	f.login(t, "mallory")
	ctx := context.Background()

	completed := testutil.CreateTestImportTask(t, f.db, models.ImportStatusCompleted)
	running := testutil.CreateTestImportTask(t, f.db, models.ImportStatusRunning)

	tasks, err := f.tasks.Refresh(ctx)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected both seeded tasks, got %+v", tasks)
	}
	seen := map[string]bool{}
	for _, task := range tasks {
		seen[task.ID] = true
	}
	if !seen[completed.ID] || !seen[running.ID] {
		t.Errorf("missing seeded task ids: %v", seen)
	}

	fetched, err := f.tasks.Fetch(ctx, running.ID)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if fetched.Status != models.ImportStatusRunning {
		t.Errorf("unexpected fetched task: %+v", fetched)
	}
}

func TestTaskStore_UpsertRejectsRegressions(t *testing.T) {
	f := newFixture(t)

	running := models.ImportTask{ID: "t1", Status: models.ImportStatusRunning, Progress: 50}
	f.tasks.upsert(running)

	// A stale pending snapshot must not move the task backwards.
	stale := models.ImportTask{ID: "t1", Status: models.ImportStatusPending, Progress: 0}
	applied := f.tasks.upsert(stale)
	if applied.Status != models.ImportStatusRunning {
		t.Errorf("expected running to win over stale pending, got %s", applied.Status)
	}
	got, _ := f.tasks.Get("t1")
	if got.Status != models.ImportStatusRunning || got.Progress != 50 {
		t.Errorf("collection regressed: %+v", got)
	}

	// Forward progress applies.
	done := models.ImportTask{ID: "t1", Status: models.ImportStatusCompleted, Progress: 100}
	applied = f.tasks.upsert(done)
	if applied.Status != models.ImportStatusCompleted {
		t.Errorf("expected completion applied, got %s", applied.Status)
	}
}

func TestTaskStore_UpsertPrependsUnknown(t *testing.T) {
	f := newFixture(t)

	f.tasks.upsert(models.ImportTask{ID: "old", Status: models.ImportStatusCompleted})
	f.tasks.upsert(models.ImportTask{ID: "new", Status: models.ImportStatusPending})

	got := f.tasks.Tasks()
	if len(got) != 2 || got[0].ID != "new" || got[1].ID != "old" {
		t.Errorf("expected newest first, got %+v", got)
	}
	current, ok := f.tasks.Current()
	if !ok || current.ID != "new" {
		t.Error("latest upsert must become current")
	}
}
