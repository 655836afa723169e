package models

import "time"

// Product is one catalog entry. Ids are sequential from 0 and never reused;
// a product is only ever deactivated, never removed.
type Product struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	DownloadLink string    `json:"download_link,omitempty"`
	Price        uint64    `json:"price"`
	Seller       string    `json:"seller"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}
