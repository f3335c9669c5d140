package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// HTTPProvider obtiene tasas de un proveedor estilo
// GET <base-url>/latest/<CODE> -> {"rates": {"EUR": 0.92, ...}}.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

// NewHTTPProvider construye un proveedor de tasas apuntando a baseURL.
func NewHTTPProvider(baseURL string) *HTTPProvider {
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type latestResponse struct {
	Rates map[string]float64 `json:"rates"`
}

// Latest devuelve las tasas vigentes contra base. Los códigos que la
// tienda no reconozca son simplemente ignorados por quien consume.
func (p *HTTPProvider) Latest(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/latest/"+base, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("rates http error: status=%d", resp.StatusCode)
	}

	var lr latestResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(lr.Rates) == 0 {
		return nil, fmt.Errorf("rates empty response")
	}

	out := make(map[string]decimal.Decimal, len(lr.Rates))
	for code, rate := range lr.Rates {
		out[code] = decimal.NewFromFloat(rate)
	}
	return out, nil
}
