package storefront

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestClientSendsBearerFromTokenSource(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]interface{}{"orders": []interface{}{}})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, staticToken("abc123"))
	if _, err := client.Orders(context.Background()); err != nil {
		t.Fatalf("orders: %v", err)
	}
	if gotAuth != "Bearer abc123" {
		t.Fatalf("authorization header: %q", gotAuth)
	}
}

func TestClientSkipsAuthHeaderWithoutSession(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]interface{}{"products": []interface{}{}})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, staticToken(""))
	if _, err := client.Products(context.Background(), ""); err != nil {
		t.Fatalf("products: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("expected no authorization header, got %q", gotAuth)
	}
}

func TestClientPlaceOrderSendsOnlyIDAndQuantity(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/orders" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"order": map[string]interface{}{"id": "o1"}})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, staticToken("tok"))
	order, err := client.PlaceOrder(context.Background(), []CartItem{{ProductID: "p1", Name: "Silla", Quantity: 2}})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if order.ID != "o1" {
		t.Fatalf("order id: %q", order.ID)
	}

	items, ok := gotBody["items"].([]interface{})
	if !ok || len(items) != 1 {
		t.Fatalf("items payload: %+v", gotBody)
	}
	line := items[0].(map[string]interface{})
	if line["productId"] != "p1" || line["quantity"] != float64(2) {
		t.Fatalf("line: %+v", line)
	}
	// El precio lo fija el servidor; el cliente no lo manda.
	if _, found := line["unitPrice"]; found {
		t.Fatalf("client must not send prices: %+v", line)
	}
}

func TestClientSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "mixed sellers"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, staticToken("tok"))
	_, err := client.PlaceOrder(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "mixed sellers") {
		t.Fatalf("expected api error message, got %v", err)
	}
}

func TestClientProductsCategoryFilter(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(map[string]interface{}{"products": []interface{}{}})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, staticToken(""))
	if _, err := client.Products(context.Background(), "living room"); err != nil {
		t.Fatalf("products: %v", err)
	}
	if gotQuery != "category=living+room" {
		t.Fatalf("query: %q", gotQuery)
	}
}
