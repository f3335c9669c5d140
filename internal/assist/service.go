package assist

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"homego/internal/domain"
	"homego/internal/repository"
)

// Service arma el prompt del asistente de soporte con contexto del
// usuario y del catálogo, y delega la respuesta al Responder.
type Service struct {
	logger    *zap.Logger
	responder Responder
	products  repository.ProductRepository
	orders    repository.OrderRepository
}

func NewService(logger *zap.Logger, responder Responder, products repository.ProductRepository, orders repository.OrderRepository) *Service {
	return &Service{
		logger:    logger,
		responder: responder,
		products:  products,
		orders:    orders,
	}
}

// Ask responde la consulta de un usuario autenticado. El contexto de
// catálogo u órdenes se agrega solo cuando la pregunta lo sugiere; si
// la búsqueda falla se responde igual, sin ese contexto.
func (s *Service) Ask(ctx context.Context, user domain.User, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("empty message")
	}
	prompt := s.buildPrompt(ctx, user, message)
	return s.responder.Reply(ctx, prompt)
}

func (s *Service) buildPrompt(ctx context.Context, user domain.User, message string) string {
	var b strings.Builder
	b.WriteString("You are HomeGo Assistant, a helpful assistant for the HomeGo furniture e-commerce platform.\n\n")
	b.WriteString("Current user context:\n")
	fmt.Fprintf(&b, "- User name: %s\n", user.FullName)
	fmt.Fprintf(&b, "- User type: %s\n", user.Role)
	fmt.Fprintf(&b, "- User email: %s\n", user.Email)

	if extra := s.lookupContext(ctx, user, message); extra != "" {
		b.WriteString("\nAdditional context:\n")
		b.WriteString(extra)
		b.WriteString("\n")
	}

	b.WriteString("\nInstructions:\n")
	b.WriteString("- Be friendly, helpful, and concise\n")
	b.WriteString("- Provide specific information about products, orders, and services\n")
	b.WriteString("- If asked about specific products or orders, use the context provided\n")
	b.WriteString("- For support requests, guide users appropriately\n")
	b.WriteString("- Keep responses under 150 words unless detailed information is specifically requested\n")

	fmt.Fprintf(&b, "\nUser message: %s\n\nProvide a helpful response:", message)
	return b.String()
}

func (s *Service) lookupContext(ctx context.Context, user domain.User, message string) string {
	lower := strings.ToLower(message)
	var parts []string

	if s.products != nil && (strings.Contains(lower, "product") || strings.Contains(lower, "furniture") || strings.Contains(lower, "price")) {
		products, err := s.products.List(ctx, repository.ProductFilter{})
		if err != nil {
			s.logger.Debug("assistant product lookup failed", zap.Error(err))
		} else if len(products) > 0 {
			if len(products) > 5 {
				products = products[:5]
			}
			lines := make([]string, 0, len(products))
			for _, p := range products {
				lines = append(lines, fmt.Sprintf("%s ($%s)", p.Name, p.Price.StringFixed(2)))
			}
			parts = append(parts, "Available products: "+strings.Join(lines, ", "))
		}
	}

	if s.orders != nil && (strings.Contains(lower, "order") || strings.Contains(lower, "track")) {
		orders, err := s.orders.List(ctx, repository.OrderFilter{CustomerID: user.ID})
		if err != nil {
			s.logger.Debug("assistant order lookup failed", zap.Error(err))
		} else if len(orders) > 0 {
			latest := orders[0]
			parts = append(parts, fmt.Sprintf("User has %d order(s). Latest order: %s, status: %s", len(orders), latest.ID, latest.Status))
		}
	}

	return strings.Join(parts, "\n")
}
