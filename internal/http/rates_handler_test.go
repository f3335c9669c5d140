package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"homego/internal/currency"
)

func newRatesRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	store := currency.NewStore(zap.NewNop(), nil, nil)
	h := NewRatesHandler(zap.NewNop(), store)

	r := gin.New()
	r.GET("/api/rates", h.List)
	r.GET("/api/rates/latest/:code", h.Latest)
	return r
}

func getRates(t *testing.T, r *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRatesListIncludesDefaultTable(t *testing.T) {
	rec := getRates(t, newRatesRouter(), "/api/rates")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Base       string              `json:"base"`
		Currencies []currency.Currency `json:"currencies"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Base != currency.BaseCurrency {
		t.Fatalf("base: %q", body.Base)
	}
	if len(body.Currencies) != 4 {
		t.Fatalf("expected 4 currencies, got %d", len(body.Currencies))
	}
}

func TestRatesLatestRebasesAgainstRequestedCode(t *testing.T) {
	rec := getRates(t, newRatesRouter(), "/api/rates/latest/EUR")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Rates map[string]decimal.Decimal `json:"rates"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Rates["EUR"].Equal(decimal.NewFromInt(1)) {
		t.Fatalf("EUR against itself: %s", body.Rates["EUR"])
	}
	// USD por EUR = 1 / 0.92.
	want := decimal.NewFromInt(1).Div(decimal.NewFromFloat(0.92))
	if !body.Rates["USD"].Equal(want) {
		t.Fatalf("USD rate: got %s, want %s", body.Rates["USD"], want)
	}
}

func TestRatesLatestUnknownCurrencyReturns404(t *testing.T) {
	rec := getRates(t, newRatesRouter(), "/api/rates/latest/JPY")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
