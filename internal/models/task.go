package models

import "time"

// ImportStatus is the lifecycle state of an import task. Progression is
// monotonic: pending -> running -> completed | failed.
type ImportStatus string

const (
	ImportStatusPending   ImportStatus = "pending"
	ImportStatusRunning   ImportStatus = "running"
	ImportStatusCompleted ImportStatus = "completed"
	ImportStatusFailed    ImportStatus = "failed"
)

// IsTerminal reports whether no further transitions can occur.
func (s ImportStatus) IsTerminal() bool {
	return s == ImportStatusCompleted || s == ImportStatusFailed
}

// Rank orders statuses along the lifecycle so that upserts can reject
// transitions that would move a task backwards.
func (s ImportStatus) Rank() int {
	switch s {
	case ImportStatusPending:
		return 0
	case ImportStatusRunning:
		return 1
	case ImportStatusCompleted, ImportStatusFailed:
		return 2
	default:
		return -1
	}
}

// ImportTask is a background candle-import job. The id is a UUIDv7 string.
type ImportTask struct {
	ID          string       `gorm:"primaryKey" json:"id"`
	AssetType   string       `gorm:"not null" json:"asset_type"`
	Source      string       `gorm:"not null" json:"source"`
	Symbol      string       `gorm:"not null" json:"symbol"`
	StartTime   time.Time    `gorm:"not null" json:"start_time"`
	EndTime     time.Time    `gorm:"not null" json:"end_time"`
	Interval    string       `gorm:"not null" json:"interval"`
	Status      ImportStatus `gorm:"not null" json:"status"`
	Progress    float64      `gorm:"not null" json:"progress"`
	Error       *string      `json:"error"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	CompletedAt *time.Time   `json:"completed_at"`
}
