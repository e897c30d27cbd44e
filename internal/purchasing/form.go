package purchasing

import "time"

// PurchaseForm is the working state of the purchase create/edit screen.
// Items are re-seeded only when the selected reference number changes or
// on initial load, never while the user is editing within the same
// selection. Every mutation recomputes the four totals.
type PurchaseForm struct {
	RefNum       string
	Vendor       string
	Attachment   string
	ReceivedBy   string
	Remarks      string
	PurchaseDate time.Time
	Items        []LineItem
	Totals       Totals

	seeded bool
	dirty  bool
	epoch  uint64
}

// NewPurchaseForm returns an empty form with the single default row.
func NewPurchaseForm() *PurchaseForm {
	f := &PurchaseForm{Items: []LineItem{DefaultLineItem()}}
	f.recompute()
	return f
}

// Epoch identifies the current reference selection. Async lookups
// started under an older epoch must be discarded on arrival.
func (f *PurchaseForm) Epoch() uint64 {
	return f.epoch
}

// Dirty reports whether the user edited items since the last re-seed.
func (f *PurchaseForm) Dirty() bool {
	return f.dirty
}

// SelectReference handles a reference-number change: it re-seeds the
// item list from the matching order, sets the vendor, and carries the
// attachment forward (existing purchase invoice first, then the order's
// attachment). An unknown reference resets the form to the single
// default row and clears vendor and attachment.
//
// Re-selecting the current reference after edits began is a no-op; the
// re-seed must not overwrite in-progress work.
func (f *PurchaseForm) SelectReference(refNum string, orders []PurchaseOrder, existing *Purchase) {
	if refNum == f.RefNum && f.seeded && f.dirty {
		return
	}

	f.epoch++
	f.RefNum = refNum
	f.Items = ResolveItemsForReference(refNum, orders, existing)
	f.seeded = true
	f.dirty = false

	if order, ok := FindOrderByRef(refNum, orders); ok {
		f.Vendor = order.Vendor
		f.Attachment = resolveAttachment(order, existing)
	} else {
		f.Vendor = ""
		f.Attachment = ""
	}
	if existing != nil {
		f.ReceivedBy = existing.ReceivedBy
		f.Remarks = existing.Remarks
	}
	f.recompute()
}

// SetItemStatus applies one of the three exclusive states to a line and
// recomputes totals. All transitions are direct.
func (f *PurchaseForm) SetItemStatus(index int, status LineStatus) error {
	if index < 0 || index >= len(f.Items) {
		return ErrValidation
	}
	if !status.Valid() {
		return ErrValidation
	}
	f.Items[index].Status = status
	f.dirty = true
	f.recompute()
	return nil
}

// SetItemQuantity updates a line's quantity. Cancelled and returned
// lines are locked; quantities below one are rejected.
func (f *PurchaseForm) SetItemQuantity(index int, qty float64) error {
	if index < 0 || index >= len(f.Items) {
		return ErrValidation
	}
	if f.Items[index].Status != StatusNone {
		return ErrLineLocked
	}
	if qty < 1 {
		return ErrValidation
	}
	f.Items[index].Quantity = qty
	f.dirty = true
	f.recompute()
	return nil
}

// SetItemProduct swaps the product on a line. Unit price, unit type and
// name always come from the catalog value, never from user input.
// Locked lines reject the edit.
func (f *PurchaseForm) SetItemProduct(index int, productID, productName string, unitPrice float64, unitType string) error {
	if index < 0 || index >= len(f.Items) {
		return ErrValidation
	}
	if f.Items[index].Status != StatusNone {
		return ErrLineLocked
	}
	if productID == "" {
		return ErrValidation
	}
	item := &f.Items[index]
	item.ProductID = productID
	item.ProductName = productName
	item.UnitPrice = unitPrice
	item.UnitType = unitType
	f.dirty = true
	f.recompute()
	return nil
}

// ApplyResolvedProduct applies an asynchronous catalog lookup result.
// Results belonging to a superseded reference selection are discarded.
func (f *PurchaseForm) ApplyResolvedProduct(epoch uint64, index int, productName string, unitPrice float64, unitType string) bool {
	if epoch != f.epoch {
		return false
	}
	if index < 0 || index >= len(f.Items) {
		return false
	}
	item := &f.Items[index]
	item.ProductName = productName
	item.UnitPrice = unitPrice
	item.UnitType = unitType
	f.recompute()
	return true
}

func (f *PurchaseForm) recompute() {
	f.Totals = ComputeTotals(f.Items)
}
