package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Promotion es una campaña de descuento del sitio. El descuento es un
// porcentaje sobre el precio en moneda base; las fechas acotan su
// vigencia y pueden quedar abiertas.
type Promotion struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description,omitempty"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	ImageURL        string          `json:"imageUrl,omitempty"`
	StartsAt        *time.Time      `json:"startsAt,omitempty"`
	EndsAt          *time.Time      `json:"endsAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}
