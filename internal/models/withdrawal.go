package models

import "time"

// Withdrawal tracks one payout of a seller's full accumulated balance.
// Amount is filled in at settlement, when the balance is read and zeroed.
type Withdrawal struct {
	ID        string         `json:"id"`
	Seller    string         `json:"seller"`
	Amount    uint64         `json:"amount"`
	Status    PurchaseStatus `json:"status"`
	Reason    string         `json:"reason,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
