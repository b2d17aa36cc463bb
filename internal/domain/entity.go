package domain

import "time"

// InstrumentInfo is the persisted catalog row for a listed instrument.
// LastPrice carries the closing price across restarts so a relisted
// instrument resumes where it left off instead of snapping back to its
// seed price.
type InstrumentInfo struct {
	Symbol    string    `gorm:"primaryKey" json:"symbol"`
	Name      string    `json:"name"`
	LastPrice string    `json:"last_price"`
	IsActive  bool      `json:"is_active" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AppConfig is a persisted key-value setting.
type AppConfig struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
