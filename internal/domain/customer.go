package domain

import "time"

// Address stores a shipping or billing address attached to a customer,
// and is embedded as a snapshot on orders.
type Address struct {
	ID         string `json:"id,omitempty"`
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	StreetName string `json:"streetName,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// Customer represents a registered storefront account.
type Customer struct {
	ID                       string    `json:"id"`
	Email                    string    `json:"email"`
	PasswordHash             string    `json:"-"`
	FirstName                string    `json:"firstName,omitempty"`
	LastName                 string    `json:"lastName,omitempty"`
	Addresses                []Address `json:"addresses,omitempty"`
	DefaultShippingAddressID string    `json:"defaultShippingAddressId,omitempty"`
	DefaultBillingAddressID  string    `json:"defaultBillingAddressId,omitempty"`
	IsActive                 bool      `json:"isActive"`
	CreatedAt                time.Time `json:"createdAt"`
}
