package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"homego/internal/domain"
	"homego/internal/repository"
)

type mockProductRepo struct {
	bySeller map[string]int
	total    int
}

func (m *mockProductRepo) Create(context.Context, domain.Product) error { return nil }
func (m *mockProductRepo) GetByID(context.Context, string) (domain.Product, error) {
	return domain.Product{}, nil
}
func (m *mockProductRepo) List(context.Context, repository.ProductFilter) ([]domain.Product, error) {
	return nil, nil
}
func (m *mockProductRepo) Update(context.Context, domain.Product) error { return nil }
func (m *mockProductRepo) Delete(context.Context, string) error         { return nil }
func (m *mockProductRepo) CountBySeller(_ context.Context, sellerID string) (int, error) {
	return m.bySeller[sellerID], nil
}
func (m *mockProductRepo) CountAll(context.Context) (int, error) { return m.total, nil }

type mockOrderRepo struct {
	sellerOrders int
	sellerSales  decimal.Decimal
	totalOrders  int
	totalRevenue decimal.Decimal
}

func (m *mockOrderRepo) Create(context.Context, domain.Order) error { return nil }
func (m *mockOrderRepo) GetByID(context.Context, string) (domain.Order, error) {
	return domain.Order{}, nil
}
func (m *mockOrderRepo) List(context.Context, repository.OrderFilter) ([]domain.Order, error) {
	return nil, nil
}
func (m *mockOrderRepo) UpdateStatus(context.Context, string, string) error { return nil }
func (m *mockOrderRepo) StatsBySeller(context.Context, string) (int, decimal.Decimal, error) {
	return m.sellerOrders, m.sellerSales, nil
}
func (m *mockOrderRepo) Totals(context.Context) (int, decimal.Decimal, error) {
	return m.totalOrders, m.totalRevenue, nil
}

func TestStatsSeller(t *testing.T) {
	products := &mockProductRepo{bySeller: map[string]int{"s1": 7}}
	orders := &mockOrderRepo{sellerOrders: 12, sellerSales: decimal.NewFromFloat(1499.50)}
	svc := NewStatsService(nil, products, orders, nil)

	stats, err := svc.Seller(context.Background(), "s1")
	if err != nil {
		t.Fatalf("seller stats: %v", err)
	}
	if stats.TotalProducts != 7 || stats.TotalOrders != 12 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if !stats.TotalSales.Equal(decimal.NewFromFloat(1499.50)) {
		t.Fatalf("sales: %s", stats.TotalSales)
	}
}

func TestStatsAdmin(t *testing.T) {
	users := newMockUserRepo()
	for _, u := range []domain.User{
		{ID: "s1", Email: "s1@example.com", Role: domain.RoleSeller},
		{ID: "s2", Email: "s2@example.com", Role: domain.RoleSeller},
		{ID: "c1", Email: "c1@example.com", Role: domain.RoleCustomer},
	} {
		if err := users.Create(context.Background(), u); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}

	tickets := newMockTicketRepo()
	seed := []string{domain.TicketOpen, domain.TicketOpen, domain.TicketInProgress, domain.TicketClosed}
	for i, status := range seed {
		tickets.byTicketID[string(rune('a'+i))] = domain.SupportTicket{TicketID: string(rune('a' + i)), Status: status}
	}

	svc := NewStatsService(
		users,
		&mockProductRepo{total: 40},
		&mockOrderRepo{totalOrders: 25, totalRevenue: decimal.NewFromInt(9000)},
		tickets,
	)

	stats, err := svc.Admin(context.Background())
	if err != nil {
		t.Fatalf("admin stats: %v", err)
	}
	if stats.TotalSellers != 2 || stats.TotalProducts != 40 || stats.TotalOrders != 25 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if !stats.TotalRevenue.Equal(decimal.NewFromInt(9000)) {
		t.Fatalf("revenue: %s", stats.TotalRevenue)
	}
	if stats.Tickets.Total != 4 || stats.Tickets.Open != 2 || stats.Tickets.InProgress != 1 || stats.Tickets.Closed != 1 {
		t.Fatalf("ticket breakdown: %+v", stats.Tickets)
	}
}
