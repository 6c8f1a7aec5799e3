package models

// Candle is one OHLCV bar imported from a market data source.
type Candle struct {
	ID        uint    `gorm:"primaryKey" json:"-"`
	Symbol    string  `gorm:"uniqueIndex:idx_candle_bar;not null" json:"symbol"`
	Source    string  `gorm:"uniqueIndex:idx_candle_bar;not null" json:"source"`
	AssetType string  `gorm:"not null" json:"asset_type"`
	Timestamp int64   `gorm:"uniqueIndex:idx_candle_bar;not null" json:"timestamp"`
	Open      float64 `gorm:"not null" json:"open"`
	High      float64 `gorm:"not null" json:"high"`
	Low       float64 `gorm:"not null" json:"low"`
	Close     float64 `gorm:"not null" json:"close"`
	Volume    float64 `gorm:"not null" json:"volume"`
	Interval  string  `gorm:"uniqueIndex:idx_candle_bar;not null" json:"interval"`
}

// DatasetInfo summarizes the candles available for one (type, source, symbol).
type DatasetInfo struct {
	AssetType    string `json:"asset_type"`
	Source       string `json:"source"`
	Symbol       string `json:"symbol"`
	MinTimestamp int64  `json:"min_timestamp"`
	MaxTimestamp int64  `json:"max_timestamp"`
	CandleCount  int64  `json:"candle_count"`
	Intervals    string `json:"intervals"`
}
