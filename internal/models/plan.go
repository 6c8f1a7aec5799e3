package models

import "time"

// Frequency is the recurrence of an investment plan. Values are the
// backend wire codes; the UI-facing lowercase tokens come from Token.
type Frequency string

const (
	FrequencyDaily    Frequency = "DAILY"
	FrequencyWeekly   Frequency = "WEEKLY"
	FrequencyBiweekly Frequency = "BIWEEKLY"
	FrequencyMonthly  Frequency = "MONTHLY"
)

// Valid reports whether f is a known frequency code.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly:
		return true
	}
	return false
}

// NeedsWeekday reports whether the frequency requires a day_of_week.
func (f Frequency) NeedsWeekday() bool {
	return f == FrequencyWeekly || f == FrequencyBiweekly
}

// Token returns the lowercase investment-type token for the UI projection.
// Unknown codes map to "none" rather than failing.
func (f Frequency) Token() string {
	switch f {
	case FrequencyDaily:
		return "daily"
	case FrequencyWeekly:
		return "weekly"
	case FrequencyBiweekly:
		return "biweekly"
	case FrequencyMonthly:
		return "monthly"
	default:
		return "none"
	}
}

// InvestmentPlan is a recurring contribution schedule for a single asset.
// DayOfWeek (1=Mon..7=Sun) is set iff the frequency is weekly or biweekly;
// DayOfMonth (1..31) iff monthly.
type InvestmentPlan struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserID        uint       `gorm:"index;not null" json:"user_id"`
	AssetID       uint       `gorm:"index;not null" json:"asset_id"`
	Name          string     `gorm:"not null" json:"name"`
	Frequency     Frequency  `gorm:"not null" json:"frequency"`
	DayOfWeek     *int       `json:"day_of_week"`
	DayOfMonth    *int       `json:"day_of_month"`
	Amount        float64    `gorm:"not null" json:"amount"`
	IsActive      bool       `gorm:"not null" json:"is_active"`
	LastExecuted  *time.Time `json:"last_executed"`
	NextExecution *time.Time `json:"next_execution"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Denormalized from the asset at query time for fast lookup.
	AssetName string `gorm:"-" json:"asset_name"`
	AssetCode string `gorm:"-" json:"asset_code"`
}
