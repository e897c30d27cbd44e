package purchasing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Multipart field names for purchase submissions. The line items travel
// as a JSON array in the items field next to the invoice file part.
const (
	fieldRefNum       = "ref_num"
	fieldReceivedBy   = "received_by"
	fieldRemarks      = "remarks"
	fieldPurchaseDate = "purchase_date"
	fieldItems        = "items"
	fieldInvoice      = "invoice"
)

// maxSubmitMemory caps the in-memory part of a multipart submission.
const maxSubmitMemory = 10 << 20

// parseSubmitForm reads a purchase create/update submission from a
// multipart form. The invoice file is optional and handled separately.
func parseSubmitForm(r *http.Request) (PurchaseInput, error) {
	if err := r.ParseMultipartForm(maxSubmitMemory); err != nil {
		return PurchaseInput{}, fmt.Errorf("%w: malformed multipart form", ErrValidation)
	}

	input := PurchaseInput{
		RefNum:     strings.TrimSpace(r.FormValue(fieldRefNum)),
		ReceivedBy: strings.TrimSpace(r.FormValue(fieldReceivedBy)),
		Remarks:    strings.TrimSpace(r.FormValue(fieldRemarks)),
	}

	if raw := r.FormValue(fieldPurchaseDate); raw != "" {
		parsed, err := parsePurchaseDate(raw)
		if err != nil {
			return PurchaseInput{}, err
		}
		input.PurchaseDate = parsed
	}

	if raw := r.FormValue(fieldItems); raw != "" {
		var dtos []LineItemDTO
		if err := json.Unmarshal([]byte(raw), &dtos); err != nil {
			return PurchaseInput{}, fmt.Errorf("%w: items must be a JSON array", ErrValidation)
		}
		input.Items = make([]PurchaseLineInput, 0, len(dtos))
		for _, dto := range dtos {
			input.Items = append(input.Items, PurchaseLineInput{
				ProductID:   dto.ProductID,
				Quantity:    dto.Quantity,
				IsCancelled: dto.IsCancelled,
				IsReturn:    dto.IsReturn,
			})
		}
	}

	return input, nil
}

func parsePurchaseDate(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: purchase_date must be RFC3339 or YYYY-MM-DD", ErrValidation)
}

// orderResponse is the wire shape of a purchase order.
type orderResponse struct {
	ID                int64         `json:"id"`
	RefNum            string        `json:"ref_num"`
	Vendor            string        `json:"vendor"`
	Attachment        string        `json:"attachment,omitempty"`
	IsPurchaseCreated bool          `json:"is_purchase_created"`
	Items             []LineItemDTO `json:"items"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

func toOrderResponse(order PurchaseOrder) orderResponse {
	return orderResponse{
		ID:                order.ID,
		RefNum:            order.RefNum,
		Vendor:            order.Vendor,
		Attachment:        order.Attachment,
		IsPurchaseCreated: order.IsPurchaseCreated,
		Items:             ToDTOs(order.Items),
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}
}

func toOrderResponses(orders []PurchaseOrder) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		out = append(out, toOrderResponse(order))
	}
	return out
}

// purchaseResponse is the wire shape of a purchase, totals included.
type purchaseResponse struct {
	ID           int64         `json:"id"`
	RefNum       string        `json:"ref_num"`
	Vendor       string        `json:"vendor"`
	InvoiceFile  string        `json:"invoice_file,omitempty"`
	ReceivedBy   string        `json:"received_by"`
	Remarks      string        `json:"remarks,omitempty"`
	PurchaseDate time.Time     `json:"purchase_date"`
	Items        []LineItemDTO `json:"items"`
	Totals       Totals        `json:"totals"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

func toPurchaseResponse(purchase Purchase) purchaseResponse {
	return purchaseResponse{
		ID:           purchase.ID,
		RefNum:       purchase.RefNum,
		Vendor:       purchase.Vendor,
		InvoiceFile:  purchase.InvoiceFile,
		ReceivedBy:   purchase.ReceivedBy,
		Remarks:      purchase.Remarks,
		PurchaseDate: purchase.PurchaseDate,
		Items:        ToDTOs(purchase.Items),
		Totals:       purchase.Totals,
		CreatedAt:    purchase.CreatedAt,
		UpdatedAt:    purchase.UpdatedAt,
	}
}

func toPurchaseResponses(purchases []Purchase) []purchaseResponse {
	out := make([]purchaseResponse, 0, len(purchases))
	for _, purchase := range purchases {
		out = append(out, toPurchaseResponse(purchase))
	}
	return out
}
