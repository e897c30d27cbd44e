package purchasing

// ComputeTotals folds a list of line items into the four purchase totals.
// Each item lands in exactly one bucket: cancelled is checked first, then
// returned, else active. A line carrying both legacy flags therefore
// counts as cancelled. The grand total equals the subtotal; cancelled and
// returned amounts are excluded up front, not subtracted after.
func ComputeTotals(items []LineItem) Totals {
	var t Totals
	for _, item := range items {
		total := item.LineTotal()
		switch item.Status {
		case StatusCancelled:
			t.CancelledTotal += total
		case StatusReturned:
			t.ReturnTotal += total
		default:
			t.Subtotal += total
		}
	}
	t.GrandTotal = t.Subtotal
	return t
}
