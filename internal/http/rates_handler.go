package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"homego/internal/currency"
)

// RatesHandler sirve la tabla de monedas del servidor para que los
// clientes de la tienda refresquen contra la propia API en vez del
// proveedor externo.
type RatesHandler struct {
	logger *zap.Logger
	store  *currency.Store
}

func NewRatesHandler(logger *zap.Logger, store *currency.Store) *RatesHandler {
	return &RatesHandler{logger: logger, store: store}
}

// List maneja GET /api/rates: monedas soportadas con símbolo, nombre y
// tasa contra la base.
func (h *RatesHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"base":          currency.BaseCurrency,
		"currencies":    h.store.Currencies(),
		"lastRefreshed": h.store.LastRefreshed(),
	})
}

// Latest maneja GET /api/rates/latest/:code con el mismo contrato que
// el proveedor externo: tasas re-expresadas contra :code.
func (h *RatesHandler) Latest(c *gin.Context) {
	base := strings.ToUpper(c.Param("code"))
	currencies := h.store.Currencies()

	var baseRate decimal.Decimal
	known := false
	for _, cur := range currencies {
		if cur.Code == base {
			baseRate = cur.Rate
			known = true
			break
		}
	}
	if !known || baseRate.IsZero() {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown currency"})
		return
	}

	rates := make(map[string]decimal.Decimal, len(currencies))
	for _, cur := range currencies {
		rates[cur.Code] = cur.Rate.Div(baseRate)
	}
	c.JSON(http.StatusOK, gin.H{"rates": rates})
}
