package storefront

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"homego/internal/domain"
	"homego/internal/kv"
)

const cartKey = "cart"

// Cargos fijos del checkout.
var (
	TaxRate     = decimal.NewFromFloat(0.08)
	ShippingFee = decimal.NewFromFloat(9.99)
)

// CartItem es una línea del carrito. El precio unitario queda congelado
// al momento de agregar el producto.
type CartItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

// Summary es el resumen de checkout en moneda base.
type Summary struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ChangeFunc recibe la notificación cartUpdated.
type ChangeFunc func(items []CartItem, total decimal.Decimal, count int)

// Cart es el carrito persistido del cliente.
type Cart struct {
	logger *zap.Logger
	local  kv.Store

	mu       sync.Mutex
	items    []CartItem
	onChange []ChangeFunc
}

// NewCart construye el carrito recuperando el contenido persistido.
func NewCart(logger *zap.Logger, local kv.Store) *Cart {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Cart{logger: logger, local: local}
	if local != nil {
		raw, err := local.Get(cartKey)
		switch {
		case err == nil:
			if err := json.Unmarshal([]byte(raw), &c.items); err != nil {
				logger.Warn("decode persisted cart failed", zap.Error(err))
				c.items = nil
			}
		case !errors.Is(err, kv.ErrNotFound):
			logger.Warn("read persisted cart failed", zap.Error(err))
		}
	}
	return c
}

// Add suma quantity unidades del producto, fusionando con la línea
// existente si ya estaba en el carrito.
func (c *Cart) Add(product domain.Product, quantity int) {
	if quantity <= 0 {
		quantity = 1
	}
	c.mu.Lock()
	found := false
	for i := range c.items {
		if c.items[i].ProductID == product.ID {
			c.items[i].Quantity += quantity
			found = true
			break
		}
	}
	if !found {
		c.items = append(c.items, CartItem{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  quantity,
		})
	}
	c.mu.Unlock()
	c.commit()
}

// Remove quita la línea del producto.
func (c *Cart) Remove(productID string) {
	c.mu.Lock()
	kept := c.items[:0]
	for _, it := range c.items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	c.items = kept
	c.mu.Unlock()
	c.commit()
}

// UpdateQuantity ajusta la cantidad de una línea por delta; las líneas
// que llegan a cero se eliminan.
func (c *Cart) UpdateQuantity(productID string, delta int) {
	c.mu.Lock()
	kept := c.items[:0]
	for _, it := range c.items {
		if it.ProductID == productID {
			it.Quantity += delta
		}
		if it.Quantity > 0 {
			kept = append(kept, it)
		}
	}
	c.items = kept
	c.mu.Unlock()
	c.commit()
}

// Clear vacía el carrito.
func (c *Cart) Clear() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
	c.commit()
}

// Items devuelve una copia de las líneas.
func (c *Cart) Items() []CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]CartItem(nil), c.items...)
}

// Count devuelve la cantidad total de unidades.
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, it := range c.items {
		count += it.Quantity
	}
	return count
}

// Total devuelve la suma de líneas en moneda base, sin cargos.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subtotalLocked()
}

// Checkout calcula el resumen de pago: subtotal, envío fijo e impuesto.
func (c *Cart) Checkout() Summary {
	subtotal := c.Total()
	tax := subtotal.Mul(TaxRate)
	return Summary{
		Subtotal: subtotal,
		Shipping: ShippingFee,
		Tax:      tax,
		Total:    subtotal.Add(ShippingFee).Add(tax),
	}
}

// OnChange registra un observador de cartUpdated.
func (c *Cart) OnChange(fn ChangeFunc) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = append(c.onChange, fn)
}

func (c *Cart) subtotalLocked() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// commit persiste el carrito y notifica a los observadores.
func (c *Cart) commit() {
	c.mu.Lock()
	items := append([]CartItem(nil), c.items...)
	total := c.subtotalLocked()
	observers := append([]ChangeFunc(nil), c.onChange...)
	c.mu.Unlock()

	if c.local != nil {
		raw, err := json.Marshal(items)
		if err == nil {
			err = c.local.Set(cartKey, string(raw))
		}
		if err != nil {
			c.logger.Warn("persist cart failed", zap.Error(err))
		}
	}

	count := 0
	for _, it := range items {
		count += it.Quantity
	}
	for _, fn := range observers {
		fn(items, total, count)
	}
}
