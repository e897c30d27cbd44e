package sales

import (
	"errors"
	"time"

	"github.com/procuredesk/procuredesk/internal/purchasing"
)

// Sale is a site delivery: goods sent out against a customer. Lines use
// the same item engine as purchasing, so cancelled or returned delivery
// lines fall out of the grand total the same way.
type Sale struct {
	ID           int64
	RefNum       string
	Customer     string
	SiteAddress  string
	DeliveredBy  string
	Remarks      string
	DeliveryDate time.Time
	Items        []purchasing.LineItem
	Totals       purchasing.Totals
	IsDeleted    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

var (
	// ErrNotFound indicates record missing.
	ErrNotFound = errors.New("sales: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("sales: invalid input")
	// ErrDuplicateRef occurs when a reference number is already taken.
	ErrDuplicateRef = errors.New("sales: reference number already exists")
)
