package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product es un artículo del catálogo. El precio se guarda en la moneda
// base (USD); la conversión a otras monedas ocurre en la capa de moneda.
type Product struct {
	ID          string          `json:"id"`
	SellerID    string          `json:"sellerId"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	ModelURL    string          `json:"modelUrl,omitempty"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   *time.Time      `json:"updatedAt,omitempty"`
}
