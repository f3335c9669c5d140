package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"homego/internal/domain"
	"homego/internal/repository"
)

// StatsService arma los números de los dashboards de vendedor y admin.
type StatsService struct {
	users    repository.UserRepository
	products repository.ProductRepository
	orders   repository.OrderRepository
	tickets  repository.TicketRepository
}

func NewStatsService(users repository.UserRepository, products repository.ProductRepository, orders repository.OrderRepository, tickets repository.TicketRepository) *StatsService {
	return &StatsService{
		users:    users,
		products: products,
		orders:   orders,
		tickets:  tickets,
	}
}

type SellerStats struct {
	TotalProducts int             `json:"totalProducts"`
	TotalOrders   int             `json:"totalOrders"`
	TotalSales    decimal.Decimal `json:"totalSales"`
}

type TicketStats struct {
	Total      int `json:"total"`
	Open       int `json:"open"`
	InProgress int `json:"inProgress"`
	Resolved   int `json:"resolved"`
	Closed     int `json:"closed"`
}

type AdminStats struct {
	TotalSellers  int             `json:"totalSellers"`
	TotalProducts int             `json:"totalProducts"`
	TotalOrders   int             `json:"totalOrders"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	Tickets       TicketStats     `json:"tickets"`
}

// Seller resume catálogo y ventas de un vendedor.
func (s *StatsService) Seller(ctx context.Context, sellerID string) (SellerStats, error) {
	if s.products == nil || s.orders == nil {
		return SellerStats{}, errors.New("stats service not configured")
	}
	products, err := s.products.CountBySeller(ctx, sellerID)
	if err != nil {
		return SellerStats{}, err
	}
	orders, sales, err := s.orders.StatsBySeller(ctx, sellerID)
	if err != nil {
		return SellerStats{}, err
	}
	return SellerStats{
		TotalProducts: products,
		TotalOrders:   orders,
		TotalSales:    sales,
	}, nil
}

// Admin resume la plataforma completa para el dashboard de admin.
func (s *StatsService) Admin(ctx context.Context) (AdminStats, error) {
	if s.users == nil || s.products == nil || s.orders == nil || s.tickets == nil {
		return AdminStats{}, errors.New("stats service not configured")
	}
	sellers, err := s.users.CountByRole(ctx, domain.RoleSeller)
	if err != nil {
		return AdminStats{}, err
	}
	products, err := s.products.CountAll(ctx)
	if err != nil {
		return AdminStats{}, err
	}
	orders, revenue, err := s.orders.Totals(ctx)
	if err != nil {
		return AdminStats{}, err
	}
	byStatus, err := s.tickets.CountByStatus(ctx)
	if err != nil {
		return AdminStats{}, err
	}

	tickets := TicketStats{
		Open:       byStatus[domain.TicketOpen],
		InProgress: byStatus[domain.TicketInProgress],
		Resolved:   byStatus[domain.TicketResolved],
		Closed:     byStatus[domain.TicketClosed],
	}
	for _, n := range byStatus {
		tickets.Total += n
	}

	return AdminStats{
		TotalSellers:  sellers,
		TotalProducts: products,
		TotalOrders:   orders,
		TotalRevenue:  revenue,
		Tickets:       tickets,
	}, nil
}
