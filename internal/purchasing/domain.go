package purchasing

import (
	"errors"
	"math"
	"time"
)

// LineStatus is the exclusive per-line state. A line is either active,
// cancelled, or returned; the two legacy booleans on the wire map onto
// this single value.
type LineStatus string

const (
	StatusNone      LineStatus = "NONE"
	StatusCancelled LineStatus = "CANCELLED"
	StatusReturned  LineStatus = "RETURNED"
)

// Valid reports whether the status is a known state.
func (s LineStatus) Valid() bool {
	switch s {
	case StatusNone, StatusCancelled, StatusReturned:
		return true
	}
	return false
}

// LineItem is one product row within a purchase order or purchase.
type LineItem struct {
	ProductID   string
	ProductName string
	Quantity    float64
	UnitPrice   float64
	UnitType    string
	Status      LineStatus
}

// LineTotal returns quantity * unit price. Unset or non-finite inputs
// count as zero so a malformed row can never poison the totals.
func (li LineItem) LineTotal() float64 {
	qty := sanitize(li.Quantity)
	price := sanitize(li.UnitPrice)
	return qty * price
}

// Totals are the four derived amounts of a purchase. They are recomputed
// from the item list on every change and never independently mutated.
type Totals struct {
	Subtotal       float64 `json:"subtotal"`
	CancelledTotal float64 `json:"cancelled_total"`
	ReturnTotal    float64 `json:"return_total"`
	GrandTotal     float64 `json:"grand_total"`
}

// PurchaseOrder is a requested set of line items against a vendor,
// identified by a human-assigned reference number.
type PurchaseOrder struct {
	ID                int64
	RefNum            string
	Vendor            string
	Attachment        string
	IsPurchaseCreated bool
	IsDeleted         bool
	Items             []LineItem
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Purchase is the realized goods receipt created against a purchase
// order. Its items may diverge from the order's via cancellation or
// return flags.
type Purchase struct {
	ID           int64
	RefNum       string
	Vendor       string
	InvoiceFile  string
	ReceivedBy   string
	Remarks      string
	PurchaseDate time.Time
	Items        []LineItem
	Totals       Totals
	IsDeleted    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

var (
	// ErrNotFound indicates record missing.
	ErrNotFound = errors.New("purchasing: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("purchasing: invalid input")
	// ErrDuplicateRef occurs when a reference number is already taken.
	ErrDuplicateRef = errors.New("purchasing: reference number already exists")
	// ErrOrderLocked occurs when mutating an order that already has a purchase.
	ErrOrderLocked = errors.New("purchasing: purchase order locked by existing purchase")
	// ErrLineLocked occurs when editing product or quantity of a
	// cancelled or returned line.
	ErrLineLocked = errors.New("purchasing: line locked by status")
)

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
