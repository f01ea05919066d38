package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PlaceholderImagePath is the public path served for beans without an image.
const PlaceholderImagePath = "/images/placeholder.jpg"

// PriceScale is the number of decimal places kept for a price.
const PriceScale = 2

// MaxStoredPrice is the largest price the decimal(7,2) column can hold.
var MaxStoredPrice = decimal.New(9999999, -PriceScale)

// Bean represents a coffee bean on sale on exactly one calendar date.
// SaleDate carries a unique index so two beans can never share a date,
// even when two writers race past the application-level check.
type Bean struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Name         string          `gorm:"size:60;not null" json:"name"`
	SaleDate     Date            `gorm:"type:date;uniqueIndex;not null" json:"saleDate"`
	Aroma        string          `gorm:"size:60" json:"aroma,omitempty"`
	ColourHex    string          `gorm:"size:7" json:"colourHex,omitempty"`
	PricePer100g decimal.Decimal `gorm:"type:decimal(7,2);not null" json:"pricePer100g"`
	ImagePath    string          `json:"imagePath"`
}

func (b *Bean) TableName() string {
	return "beans"
}

// HasCustomImage reports whether the bean references an uploaded image
// rather than the placeholder.
func (b *Bean) HasCustomImage() bool {
	return b.ImagePath != "" && b.ImagePath != PlaceholderImagePath
}

// Normalize trims every text field and fixes the price to PriceScale places.
func (b *Bean) Normalize() {
	b.Name = strings.TrimSpace(b.Name)
	b.Aroma = strings.TrimSpace(b.Aroma)
	b.ColourHex = strings.TrimSpace(b.ColourHex)
	b.ImagePath = strings.TrimSpace(b.ImagePath)
	b.PricePer100g = b.PricePer100g.Round(PriceScale)
}
