package purchasing

// LineItemDTO is the wire shape of a line item. The backend contract
// carries two booleans; the domain carries the exclusive LineStatus.
type LineItemDTO struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName,omitempty"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	UnitType    string  `json:"unitType"`
	IsCancelled bool    `json:"isCancelled"`
	IsReturn    bool    `json:"isReturn"`
	Total       float64 `json:"total,omitempty"`
}

// StatusFromFlags maps the two wire booleans to the exclusive status.
// Data arriving with both flags set (possible only via direct API
// manipulation) resolves to cancelled, matching the totals tie-break.
func StatusFromFlags(isCancelled, isReturn bool) LineStatus {
	switch {
	case isCancelled:
		return StatusCancelled
	case isReturn:
		return StatusReturned
	default:
		return StatusNone
	}
}

// FromDTO converts a wire line item into the domain shape.
func FromDTO(d LineItemDTO) LineItem {
	return LineItem{
		ProductID:   d.ProductID,
		ProductName: d.ProductName,
		Quantity:    d.Quantity,
		UnitPrice:   d.UnitPrice,
		UnitType:    d.UnitType,
		Status:      StatusFromFlags(d.IsCancelled, d.IsReturn),
	}
}

// ToDTO converts a domain line item into the wire shape. The emitted
// flags are never both true.
func ToDTO(li LineItem) LineItemDTO {
	return LineItemDTO{
		ProductID:   li.ProductID,
		ProductName: li.ProductName,
		Quantity:    li.Quantity,
		UnitPrice:   li.UnitPrice,
		UnitType:    li.UnitType,
		IsCancelled: li.Status == StatusCancelled,
		IsReturn:    li.Status == StatusReturned,
		Total:       li.LineTotal(),
	}
}

// FromDTOs converts a wire item list.
func FromDTOs(dtos []LineItemDTO) []LineItem {
	items := make([]LineItem, 0, len(dtos))
	for _, d := range dtos {
		items = append(items, FromDTO(d))
	}
	return items
}

// ToDTOs converts a domain item list.
func ToDTOs(items []LineItem) []LineItemDTO {
	dtos := make([]LineItemDTO, 0, len(items))
	for _, li := range items {
		dtos = append(dtos, ToDTO(li))
	}
	return dtos
}
