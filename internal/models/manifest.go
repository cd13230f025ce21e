package models

import "time"

// OrderStatus is the production pipeline stage of an order. The set is
// closed; any value outside it is rejected at every transition site.
type OrderStatus string

const (
	StatusSubmitted   OrderStatus = "submitted"
	StatusPSDDone     OrderStatus = "psd_done"
	StatusPreviewSent OrderStatus = "preview_sent"
	StatusApproved    OrderStatus = "approved"
	StatusPrintDone   OrderStatus = "print_done"
)

// AllOrderStatuses lists every valid status in pipeline order. The
// workflow does not enforce forward-only transitions; reprints and
// re-approvals move orders backwards on purpose.
var AllOrderStatuses = []OrderStatus{
	StatusSubmitted,
	StatusPSDDone,
	StatusPreviewSent,
	StatusApproved,
	StatusPrintDone,
}

// ParseOrderStatus validates membership in the closed status set.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case StatusSubmitted, StatusPSDDone, StatusPreviewSent, StatusApproved, StatusPrintDone:
		return OrderStatus(s), true
	}
	return "", false
}

// Valid reports whether the status is a member of the closed set.
func (s OrderStatus) Valid() bool {
	_, ok := ParseOrderStatus(string(s))
	return ok
}

// OrderFiles records what the customer uploaded: special files keyed by
// their form field (one per field), and the general photo sequence in
// upload order.
type OrderFiles struct {
	Special map[string]string `json:"special"`
	General []string          `json:"general"`
}

// OrderManifest is the order.json document stored in each order folder.
// It is created once at submission; afterwards only Status and
// LastUpdated change, through the order workflow.
type OrderManifest struct {
	SchemaVersion string            `json:"schemaVersion"`
	OrderID       string            `json:"orderId"`
	CustomerName  string            `json:"customerName"`
	CustomerSlug  string            `json:"customerSlug"`
	CreatedAt     time.Time         `json:"createdAt"`
	Fields        map[string]string `json:"fields"`
	Files         OrderFiles        `json:"files"`
	Status        OrderStatus       `json:"status"`
	LastUpdated   *time.Time        `json:"lastUpdated,omitempty"`
}
