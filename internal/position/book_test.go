package position

import (
	"testing"

	"wolfquant/internal/models"
)

func intPtr(v int) *int { return &v }

func TestBook_SetHolding(t *testing.T) {
	t.Run("creates_entry_with_holding_fields", func(t *testing.T) {
		book := NewBook()
		book.SetHolding("BTC", 1500, 0.5)

		p, ok := book.Get("BTC")
		if !ok {
			t.Fatal("expected entry for BTC")
		}
		if p.Cost != 1500 || p.Amount != 0.5 {
			t.Errorf("expected cost=1500 amount=0.5, got cost=%v amount=%v", p.Cost, p.Amount)
		}
		if p.HasSchedule() {
			t.Error("expected no schedule fields on a fresh holding")
		}
	})

	t.Run("preserves_schedule_fields", func(t *testing.T) {
		book := NewBook()
		book.SetSchedule("BTC", models.FrequencyWeekly, intPtr(3), nil, 100)
		book.SetHolding("BTC", 2000, 1)

		p, _ := book.Get("BTC")
		if !p.HasSchedule() {
			t.Fatal("expected schedule to survive a holding write")
		}
		if p.InvestmentType != "weekly" || *p.DayOfWeek != 3 || *p.InvestmentAmount != 100 {
			t.Errorf("schedule fields changed: %+v", p)
		}
		if p.Cost != 2000 || p.Amount != 1 {
			t.Errorf("holding fields not applied: %+v", p)
		}
	})

	t.Run("last_write_wins", func(t *testing.T) {
		book := NewBook()
		book.SetHolding("BTC", 100, 1)
		book.SetHolding("BTC", 300, 3)

		p, _ := book.Get("BTC")
		if p.Cost != 300 || p.Amount != 3 {
			t.Errorf("expected latest write, got %+v", p)
		}
	})
}

func TestBook_SetSchedule(t *testing.T) {
	t.Run("creates_entry_without_holding", func(t *testing.T) {
		book := NewBook()
		book.SetSchedule("ETH", models.FrequencyMonthly, nil, intPtr(15), 250)

		p, ok := book.Get("ETH")
		if !ok {
			t.Fatal("expected entry for ETH")
		}
		if p.InvestmentType != "monthly" || *p.DayOfMonth != 15 || *p.InvestmentAmount != 250 {
			t.Errorf("unexpected schedule: %+v", p)
		}
		if p.Cost != 0 || p.Amount != 0 {
			t.Errorf("expected zero holding fields, got %+v", p)
		}
	})

	t.Run("preserves_holding_fields", func(t *testing.T) {
		book := NewBook()
		book.SetHolding("ETH", 900, 2)
		book.SetSchedule("ETH", models.FrequencyDaily, nil, nil, 10)

		p, _ := book.Get("ETH")
		if p.Cost != 900 || p.Amount != 2 {
			t.Errorf("holding fields changed: %+v", p)
		}
		if p.InvestmentType != "daily" {
			t.Errorf("expected daily schedule, got %q", p.InvestmentType)
		}
	})

	t.Run("unknown_frequency_maps_to_none", func(t *testing.T) {
		book := NewBook()
		book.SetSchedule("ETH", models.Frequency("QUARTERLY"), nil, nil, 10)

		p, _ := book.Get("ETH")
		if p.InvestmentType != "none" {
			t.Errorf("expected none token, got %q", p.InvestmentType)
		}
	})
}

func TestBook_ClearSchedule(t *testing.T) {
	t.Run("clears_only_schedule_fields", func(t *testing.T) {
		book := NewBook()
		book.SetHolding("BTC", 1000, 1)
		book.SetSchedule("BTC", models.FrequencyBiweekly, intPtr(5), nil, 75)
		book.ClearSchedule("BTC")

		p, ok := book.Get("BTC")
		if !ok {
			t.Fatal("entry should survive a schedule clear")
		}
		if p.HasSchedule() || p.DayOfWeek != nil || p.InvestmentAmount != nil {
			t.Errorf("schedule fields not cleared: %+v", p)
		}
		if p.Cost != 1000 || p.Amount != 1 {
			t.Errorf("holding fields lost: %+v", p)
		}
	})

	t.Run("missing_code_is_noop", func(t *testing.T) {
		book := NewBook()
		book.ClearSchedule("NOPE")
		if _, ok := book.Get("NOPE"); ok {
			t.Error("clear must not create entries")
		}
	})
}

func TestBook_Remove(t *testing.T) {
	book := NewBook()
	book.SetHolding("BTC", 1000, 1)
	book.SetSchedule("BTC", models.FrequencyDaily, nil, nil, 10)
	book.Remove("BTC")

	if _, ok := book.Get("BTC"); ok {
		t.Error("expected entry to be gone")
	}
}

func TestBook_Snapshot_IsACopy(t *testing.T) {
	book := NewBook()
	book.SetHolding("BTC", 1000, 1)

	snap := book.Snapshot()
	entry := snap["BTC"]
	entry.Cost = 9999
	snap["BTC"] = entry

	p, _ := book.Get("BTC")
	if p.Cost != 1000 {
		t.Error("mutating a snapshot must not affect the book")
	}
}

func TestBook_Reset(t *testing.T) {
	book := NewBook()
	book.SetHolding("BTC", 1000, 1)
	book.Reset()

	if len(book.Snapshot()) != 0 {
		t.Error("expected empty book after reset")
	}
}
