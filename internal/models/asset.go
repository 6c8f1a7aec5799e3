package models

import "time"

// AssetType is a backend-seeded classification for assets (crypto, fund, ...).
type AssetType struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"uniqueIndex;not null" json:"name"`
	Description *string `json:"description"`
}

// Group is a user-defined bucket of assets of a single type.
type Group struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"user_id"`
	Name        string    `gorm:"not null" json:"name"`
	AssetTypeID uint      `gorm:"not null" json:"asset_type_id"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Populated at query time, not persisted.
	AssetTypeName string `gorm:"-" json:"asset_type_name"`
}

// Asset is a tracked instrument owned by a user. Its code is stable and
// unique within a user and asset type. PositionAmount and PositionCost are
// set together or not at all: a position is all-or-nothing.
type Asset struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uint       `gorm:"uniqueIndex:idx_asset_code;not null" json:"user_id"`
	GroupID        *uint      `gorm:"index" json:"group_id"`
	AssetTypeID    uint       `gorm:"uniqueIndex:idx_asset_code;not null" json:"asset_type_id"`
	Code           string     `gorm:"uniqueIndex:idx_asset_code;not null" json:"code"`
	Name           string     `gorm:"not null" json:"name"`
	CurrentPrice   *float64   `json:"current_price"`
	PositionAmount *float64   `json:"position_amount"`
	PositionCost   *float64   `json:"position_cost"`
	LastUpdated    *time.Time `json:"last_updated"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// Populated at query time, not persisted.
	GroupName          *string  `gorm:"-" json:"group_name"`
	AssetTypeName      string   `gorm:"-" json:"asset_type_name"`
	TotalProfit        *float64 `gorm:"-" json:"total_profit"`
	TotalProfitPercent *float64 `gorm:"-" json:"total_profit_percent"`
}

// HasPosition reports whether the asset carries holding data.
func (a *Asset) HasPosition() bool {
	return a.PositionAmount != nil && a.PositionCost != nil
}
