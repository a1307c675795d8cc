package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Site is a physical stock-holding location.
type Site struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Location  *string   `json:"location,omitempty" db:"location"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Material is a catalogue entry. Stock is tracked per (site, material).
type Material struct {
	ID           int64           `json:"id" db:"id"`
	Name         string          `json:"name" db:"name"`
	Unit         string          `json:"unit" db:"unit"`
	Description  *string         `json:"description,omitempty" db:"description"`
	CostPerUnit  decimal.Decimal `json:"cost_per_unit" db:"cost_per_unit"`
	MinimumLevel decimal.Decimal `json:"minimum_level" db:"minimum_level"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}
