package products

import "time"

// Product is a catalog entry. Code is the opaque product reference carried
// by purchase and sale line items; UnitPrice and UnitType are the
// authoritative values denormalized into line items at submission time.
type Product struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	UnitType  string    `json:"unit_type"`
	UnitPrice float64   `json:"unit_price"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
