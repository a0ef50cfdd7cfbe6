package model

import "time"

// ConsumableBalance is one durable ledger row. Key keeps the
// "consumable.balance.<product id>" scheme so the table reads like the
// flat key/value store it replaces.
type ConsumableBalance struct {
	Key       string `gorm:"primaryKey;size:128;not null"`
	Value     int    `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
