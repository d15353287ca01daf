package domain

import "time"

// Settings is the single-row site configuration record.
type Settings struct {
	StoreName                  string    `json:"storeName"`
	SupportEmail               string    `json:"supportEmail"`
	Currency                   string    `json:"currency"`
	OrderNumberPrefix          string    `json:"orderNumberPrefix"`
	Maintenance                bool      `json:"maintenance"`
	FlatShippingCents          int64     `json:"flatShippingCents"`
	FreeShippingThresholdCents int64     `json:"freeShippingThresholdCents"`
	UpdatedAt                  time.Time `json:"updatedAt"`
}

// ShippingFor returns the shipping charge for a given subtotal.
func (s Settings) ShippingFor(subtotalCents int64) int64 {
	if s.FreeShippingThresholdCents > 0 && subtotalCents >= s.FreeShippingThresholdCents {
		return 0
	}
	return s.FlatShippingCents
}
