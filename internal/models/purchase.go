package models

import "time"

type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "pending"
	PurchaseCompleted PurchaseStatus = "completed"
	PurchaseReverted  PurchaseStatus = "reverted"
)

// Purchase is the client-visible record of a purchase submission. The ledger
// receipt itself is keyed (product, buyer); this record carries the
// pending/completed/reverted lifecycle the client polls.
type Purchase struct {
	ID        string         `json:"id"`
	ProductID uint64         `json:"product_id"`
	Buyer     string         `json:"buyer"`
	Amount    uint64         `json:"amount"`
	Status    PurchaseStatus `json:"status"`
	Reason    string         `json:"reason,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
