package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"homego/internal/domain"
)

// TokenSource entrega la credencial bearer vigente, o cadena vacía si
// no hay sesión.
type TokenSource interface {
	Token() string
}

// Client habla con la API REST de la tienda para catálogo, órdenes y
// tickets. La autenticación sale del TokenSource en cada llamada.
type Client struct {
	baseURL string
	tokens  TokenSource
	client  *http.Client
}

func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Products lista el catálogo, opcionalmente filtrado por categoría.
func (c *Client) Products(ctx context.Context, category string) ([]domain.Product, error) {
	path := "/products"
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}
	var out struct {
		Products []domain.Product `json:"products"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Products, nil
}

// Product trae un producto puntual.
func (c *Client) Product(ctx context.Context, id string) (domain.Product, error) {
	var out struct {
		Product domain.Product `json:"product"`
	}
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, &out); err != nil {
		return domain.Product{}, err
	}
	return out.Product, nil
}

// PlaceOrder manda las líneas del carrito; el servidor recalcula los
// precios.
func (c *Client) PlaceOrder(ctx context.Context, items []CartItem) (domain.Order, error) {
	type line struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}
	lines := make([]line, 0, len(items))
	for _, it := range items {
		lines = append(lines, line{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	var out struct {
		Order domain.Order `json:"order"`
	}
	if err := c.do(ctx, http.MethodPost, "/orders", map[string]interface{}{"items": lines}, &out); err != nil {
		return domain.Order{}, err
	}
	return out.Order, nil
}

// Orders lista las órdenes visibles para la sesión actual.
func (c *Client) Orders(ctx context.Context) ([]domain.Order, error) {
	var out struct {
		Orders []domain.Order `json:"orders"`
	}
	if err := c.do(ctx, http.MethodGet, "/orders", nil, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

// OpenTicket crea un ticket de soporte.
func (c *Client) OpenTicket(ctx context.Context, subject, message string) (domain.SupportTicket, error) {
	var out struct {
		Ticket domain.SupportTicket `json:"ticket"`
	}
	body := map[string]interface{}{"subject": subject, "message": message}
	if err := c.do(ctx, http.MethodPost, "/support-tickets", body, &out); err != nil {
		return domain.SupportTicket{}, err
	}
	return out.Ticket, nil
}

// Tickets lista los tickets de la sesión actual.
func (c *Client) Tickets(ctx context.Context) ([]domain.SupportTicket, error) {
	var out struct {
		Tickets []domain.SupportTicket `json:"tickets"`
	}
	if err := c.do(ctx, http.MethodGet, "/support-tickets", nil, &out); err != nil {
		return nil, err
	}
	return out.Tickets, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(payload, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("api error: %s (status=%d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("api error: status=%d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
