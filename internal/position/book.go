// Package position maintains the derived per-asset position projection.
// The book merges fields written independently by the asset store (holding
// cost and amount) and the plan store (recurring-investment schedule); it
// performs no I/O and never accepts direct external writes to the merged
// result.
package position

import (
	"sync"

	"wolfquant/internal/models"
)

// Position is the merged projection for one asset code. Cost and Amount
// come from the owning asset; the four schedule fields are present iff an
// active investment plan exists for the code.
type Position struct {
	Code             string   `json:"code"`
	Cost             float64  `json:"cost"`
	Amount           float64  `json:"amount"`
	InvestmentType   string   `json:"investment_type,omitempty"`
	DayOfWeek        *int     `json:"day_of_week,omitempty"`
	DayOfMonth       *int     `json:"day_of_month,omitempty"`
	InvestmentAmount *float64 `json:"investment_amount,omitempty"`
}

// HasSchedule reports whether plan-owned fields are set.
func (p Position) HasSchedule() bool {
	return p.InvestmentType != ""
}

// Book holds the projection, keyed by asset code. It is the only structure
// with two writers (asset store and plan store); its lock serializes their
// merges.
type Book struct {
	mu     sync.Mutex
	byCode map[string]*Position
}

// NewBook returns an empty position book.
func NewBook() *Book {
	return &Book{byCode: make(map[string]*Position)}
}

// SetHolding overwrites the asset-owned fields for code, creating the
// entry if needed. Schedule fields are left untouched.
func (b *Book) SetHolding(code string, cost, amount float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p := b.entry(code)
	p.Cost = cost
	p.Amount = amount
}

// Remove drops the whole entry for code. Called when the backing asset is
// deleted; its plans are deleted with it, so nothing survives the asset.
func (b *Book) Remove(code string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.byCode, code)
}

// SetSchedule overwrites the plan-owned fields for code from an active
// plan, creating the entry if needed. Holding fields are left untouched.
// Unknown frequency codes map to the "none" token rather than failing.
func (b *Book) SetSchedule(code string, freq models.Frequency, dayOfWeek, dayOfMonth *int, amount float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p := b.entry(code)
	p.InvestmentType = freq.Token()
	p.DayOfWeek = copyInt(dayOfWeek)
	p.DayOfMonth = copyInt(dayOfMonth)
	a := amount
	p.InvestmentAmount = &a
}

// ClearSchedule removes the plan-owned fields for code, preserving the
// holding fields. A code with no entry is a no-op.
func (b *Book) ClearSchedule(code string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.byCode[code]
	if !ok {
		return
	}
	p.InvestmentType = ""
	p.DayOfWeek = nil
	p.DayOfMonth = nil
	p.InvestmentAmount = nil
}

// Get returns a copy of the position for code.
func (b *Book) Get(code string) (Position, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.byCode[code]
	if !ok {
		return Position{}, false
	}
	return clone(p), true
}

// Snapshot returns a copy of the whole projection.
func (b *Book) Snapshot() map[string]Position {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[string]Position, len(b.byCode))
	for code, p := range b.byCode {
		out[code] = clone(p)
	}
	return out
}

// Reset clears the book. Used when the session ends.
func (b *Book) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.byCode = make(map[string]*Position)
}

func (b *Book) entry(code string) *Position {
	p, ok := b.byCode[code]
	if !ok {
		p = &Position{Code: code}
		b.byCode[code] = p
	}
	return p
}

func clone(p *Position) Position {
	out := *p
	out.DayOfWeek = copyInt(p.DayOfWeek)
	out.DayOfMonth = copyInt(p.DayOfMonth)
	if p.InvestmentAmount != nil {
		a := *p.InvestmentAmount
		out.InvestmentAmount = &a
	}
	return out
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}
