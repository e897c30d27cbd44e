package purchasing

import "time"

// ExtractItemsByCancelled projects a purchase list down to the items
// whose cancelled-ness equals keep. With keep=true it produces the
// cancelled-items report; with keep=false the active view that hides
// cancelled lines from the default table. Purchases whose filtered item
// list ends up empty are dropped entirely, and the source list is never
// mutated.
func ExtractItemsByCancelled(purchases []Purchase, keep bool) []Purchase {
	result := make([]Purchase, 0, len(purchases))
	for _, p := range purchases {
		var kept []LineItem
		for _, item := range p.Items {
			if (item.Status == StatusCancelled) == keep {
				kept = append(kept, item)
			}
		}
		if len(kept) == 0 {
			continue
		}
		filtered := p
		filtered.Items = kept
		filtered.Totals = ComputeTotals(kept)
		result = append(result, filtered)
	}
	return result
}

// ExtractItemsByReturned is the returned-flag counterpart.
func ExtractItemsByReturned(purchases []Purchase, keep bool) []Purchase {
	result := make([]Purchase, 0, len(purchases))
	for _, p := range purchases {
		var kept []LineItem
		for _, item := range p.Items {
			if (item.Status == StatusReturned) == keep {
				kept = append(kept, item)
			}
		}
		if len(kept) == 0 {
			continue
		}
		filtered := p
		filtered.Items = kept
		filtered.Totals = ComputeTotals(kept)
		result = append(result, filtered)
	}
	return result
}

// CancelledItemRow is one flattened line of the cancelled-items report.
type CancelledItemRow struct {
	RefNum       string    `json:"ref_num"`
	Vendor       string    `json:"vendor"`
	PurchaseDate time.Time `json:"purchase_date"`
	ProductID    string    `json:"product_id"`
	ProductName  string    `json:"product_name"`
	Quantity     float64   `json:"quantity"`
	UnitPrice    float64   `json:"unit_price"`
	UnitType     string    `json:"unit_type"`
	Total        float64   `json:"total"`
}

// CancelledItemRows flattens multiple purchases into per-item
// cancellation report rows.
func CancelledItemRows(purchases []Purchase) []CancelledItemRow {
	var rows []CancelledItemRow
	for _, p := range ExtractItemsByCancelled(purchases, true) {
		for _, item := range p.Items {
			rows = append(rows, CancelledItemRow{
				RefNum:       p.RefNum,
				Vendor:       p.Vendor,
				PurchaseDate: p.PurchaseDate,
				ProductID:    item.ProductID,
				ProductName:  item.ProductName,
				Quantity:     item.Quantity,
				UnitPrice:    item.UnitPrice,
				UnitType:     item.UnitType,
				Total:        item.LineTotal(),
			})
		}
	}
	return rows
}
