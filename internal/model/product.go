package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Product represents a catalog entry (quantity-based, not individual tracking).
// Code is the external item code and never changes after creation; ID is the
// database key.
type Product struct {
	ID          int64           `json:"id"`
	Code        int64           `json:"item_code"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       decimal.Decimal `json:"qty"`
}

func (p *Product) String() string {
	return fmt.Sprintf("%s [code %d with unit price %s and stock %s]",
		p.Description, p.Code, p.Price, p.Stock)
}
