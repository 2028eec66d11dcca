package core

import "fmt"

// Cents is an exact integer amount of money in the smallest currency unit.
// All budget arithmetic happens in Cents so repeated small mutations cannot
// accumulate floating-point drift.
type Cents int64

// String formats the amount as a decimal value, e.g. 1250 -> "12.50".
func (c Cents) String() string {
	sign := ""
	v := c
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// Product is a catalog record as supplied by the external product catalog.
// Price is always the current effective price; OriginalPrice, when greater
// than Price, denotes a discount. Incoming products are untrusted and must
// pass through SanitizeProduct before touching any state machine.
type Product struct {
	ID            string `json:"id"`
	Barcode       string `json:"barcode"`
	Name          string `json:"name"`
	Price         Cents  `json:"price"`
	OriginalPrice Cents  `json:"original_price,omitempty"`
	Description   string `json:"description,omitempty"`
	ImageURL      string `json:"image_url,omitempty"`
	Brand         string `json:"brand"`
	Category      string `json:"category"`
	StoreID       string `json:"store_id"`
}

// Discounted reports whether the product carries a visible discount.
func (p Product) Discounted() bool {
	return p.OriginalPrice > 0 && p.OriginalPrice > p.Price
}

// Defaults applied by SanitizeProduct for missing fields.
const (
	DefaultProductName  = "Unnamed Product"
	DefaultProductBrand = "Unknown Brand"
	DefaultCategory     = "Uncategorized"
)

// SanitizeProduct coerces a possibly malformed catalog record to safe
// defaults at the point of entry, so bad upstream data can never corrupt a
// cart invariant. Negative prices are treated as missing.
func SanitizeProduct(p Product) Product {
	if p.Name == "" {
		p.Name = DefaultProductName
	}
	if p.Brand == "" {
		p.Brand = DefaultProductBrand
	}
	if p.Category == "" {
		p.Category = DefaultCategory
	}
	if p.Price < 0 {
		p.Price = 0
	}
	if p.OriginalPrice < 0 {
		p.OriginalPrice = 0
	}
	return p
}
