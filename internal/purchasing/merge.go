package purchasing

// DefaultLineItem is the single empty row the items form falls back to.
// The form must never be left with zero rows.
func DefaultLineItem() LineItem {
	return LineItem{ProductID: "", Quantity: 1, UnitPrice: 0, UnitType: "", Status: StatusNone}
}

// FindOrderByRef locates a purchase order by reference number. Deleted
// orders are not eligible.
func FindOrderByRef(refNum string, orders []PurchaseOrder) (PurchaseOrder, bool) {
	for _, order := range orders {
		if order.RefNum == refNum && !order.IsDeleted {
			return order, true
		}
	}
	return PurchaseOrder{}, false
}

// ResolveItemsForReference builds the working item list for a purchase
// from the selected order's items, carrying forward cancellation and
// return flags from the purchase being edited (matched by ProductID).
//
// Misses degrade silently: an unknown reference, or an order with no
// items, yields the single default empty row. Items on the existing
// purchase that no longer appear on the order are dropped; the order's
// item set drives the merge.
func ResolveItemsForReference(refNum string, orders []PurchaseOrder, existing *Purchase) []LineItem {
	order, ok := FindOrderByRef(refNum, orders)
	if !ok || len(order.Items) == 0 {
		return []LineItem{DefaultLineItem()}
	}

	var existingByProduct map[string]LineStatus
	if existing != nil {
		existingByProduct = make(map[string]LineStatus, len(existing.Items))
		for _, item := range existing.Items {
			existingByProduct[item.ProductID] = item.Status
		}
	}

	items := make([]LineItem, 0, len(order.Items))
	for _, src := range order.Items {
		item := LineItem{
			ProductID:   src.ProductID,
			ProductName: src.ProductName,
			Quantity:    src.Quantity,
			UnitPrice:   src.UnitPrice,
			UnitType:    src.UnitType,
			Status:      StatusNone,
		}
		if status, ok := existingByProduct[src.ProductID]; ok {
			item.Status = status
		}
		items = append(items, item)
	}
	return items
}

// resolveAttachment picks the invoice/attachment carried onto the form:
// the existing purchase's invoice wins, then the order's attachment.
func resolveAttachment(order PurchaseOrder, existing *Purchase) string {
	if existing != nil && existing.InvoiceFile != "" {
		return existing.InvoiceFile
	}
	return order.Attachment
}
