package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Most products are priced per variant; a product
// without variants may carry a direct price instead.
type Product struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	Images      []string         `json:"images"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Variants    []Variant        `json:"variants"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Variant is a priced size/color option of a product. Stock is informational
// and never decremented by checkout.
type Variant struct {
	ID    string          `json:"id"`
	Size  string          `json:"size"`
	Color string          `json:"color"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

// FindVariant returns the variant with the given id, or nil.
func (p *Product) FindVariant(variantID string) *Variant {
	if variantID == "" {
		return nil
	}
	for i := range p.Variants {
		if p.Variants[i].ID == variantID {
			return &p.Variants[i]
		}
	}
	return nil
}

// UnitPrice resolves the price of one unit. With a variant id the matching
// variant's price is used and an unknown variant prices at zero. Without one
// the product's direct price is used, or zero when it has none.
func (p *Product) UnitPrice(variantID string) decimal.Decimal {
	if variantID != "" {
		if v := p.FindVariant(variantID); v != nil {
			return v.Price
		}
		return decimal.Zero
	}
	if p.Price != nil {
		return *p.Price
	}
	return decimal.Zero
}

// ProductSummary is the product detail embedded in cart lines.
type ProductSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Images      []string `json:"images"`
}

// Summary returns the product fields shown alongside a cart line.
func (p *Product) Summary() ProductSummary {
	return ProductSummary{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Images:      p.Images,
	}
}
