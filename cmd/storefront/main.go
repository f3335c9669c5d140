package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"homego/internal/config"
	"homego/internal/currency"
	"homego/internal/kv"
	"homego/internal/session"
	"homego/internal/storefront"
)

func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadClientConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	local, err := kv.NewSQLiteStore(cfg.LocalStore)
	if err != nil {
		log.Fatalf("abrir almacén local: %v", err)
	}
	defer local.Close()

	bus := session.NewBroadcaster()
	bus.Subscribe(func(ev session.Event) {
		if ev.Kind == session.SignedIn && ev.User != nil {
			fmt.Printf(">> sesión iniciada: %s (%s)\n", ev.User.FullName, ev.User.Role)
		} else {
			fmt.Println(">> sesión cerrada")
		}
	})

	authAPI := session.NewHTTPAuthAPI(cfg.APIBaseURL)
	sessions := session.NewStore(logger, authAPI, local, bus)
	sessions.Init(ctx)

	rates := currency.NewStore(logger, local, currency.NewHTTPProvider(cfg.RatesBaseURL))
	if rates.NeedsUpdate() {
		if _, err := rates.UpdateRates(ctx); err != nil {
			fmt.Println("aviso: no se pudieron refrescar las tasas, se usa la tabla local")
		}
	}

	cart := storefront.NewCart(logger, local)
	api := storefront.NewClient(cfg.APIBaseURL, sessions)

	fmt.Println("===== HomeGo =====")
	fmt.Println("comandos: register login logout whoami products add remove cart checkout orders currency rates ticket tickets quit")

	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}

		switch args[0] {
		case "quit", "exit":
			return
		case "register":
			doRegister(ctx, reader, sessions)
		case "login":
			doLogin(ctx, reader, sessions)
		case "logout":
			sessions.Logout()
		case "whoami":
			if user := sessions.User(); user != nil {
				fmt.Printf("%s <%s> rol=%s\n", user.FullName, user.Email, user.Role)
			} else {
				fmt.Println("sin sesión")
			}
		case "products":
			doProducts(ctx, api, rates)
		case "add":
			doAdd(ctx, args, api, cart)
		case "remove":
			if len(args) < 2 {
				fmt.Println("uso: remove <product-id>")
				continue
			}
			cart.Remove(args[1])
		case "cart":
			doCart(cart, rates)
		case "checkout":
			doCheckout(ctx, api, cart, rates, sessions)
		case "orders":
			doOrders(ctx, api, rates)
		case "currency":
			if len(args) < 2 {
				fmt.Printf("moneda activa: %s\n", rates.Active())
				continue
			}
			if err := rates.SetCurrency(strings.ToUpper(args[1])); err != nil {
				fmt.Println("moneda desconocida")
			}
		case "rates":
			doRates(ctx, rates)
		case "ticket":
			doTicket(ctx, reader, api, sessions)
		case "tickets":
			doTickets(ctx, api)
		default:
			fmt.Println("comando desconocido:", args[0])
		}
	}
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func doRegister(ctx context.Context, reader *bufio.Reader, sessions *session.Store) {
	email := prompt(reader, "email: ")
	fullName := prompt(reader, "nombre: ")
	password := prompt(reader, "password: ")
	role := prompt(reader, "rol [customer]: ")

	user, err := sessions.Register(ctx, email, password, fullName, role)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrUserAlreadyExists):
			fmt.Println("ese email ya está registrado")
		case errors.Is(err, session.ErrNetwork):
			fmt.Println("no se pudo contactar al servidor")
		default:
			fmt.Println("registro falló:", err)
		}
		return
	}
	fmt.Printf("bienvenido, %s\n", user.FullName)
}

func doLogin(ctx context.Context, reader *bufio.Reader, sessions *session.Store) {
	email := prompt(reader, "email: ")
	password := prompt(reader, "password: ")

	_, err := sessions.Login(ctx, email, password)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrInvalidCredentials):
			fmt.Println("credenciales inválidas")
		case errors.Is(err, session.ErrNetwork):
			fmt.Println("no se pudo contactar al servidor")
		default:
			fmt.Println("login falló:", err)
		}
	}
}

func doProducts(ctx context.Context, api *storefront.Client, rates *currency.Store) {
	products, err := api.Products(ctx, "")
	if err != nil {
		fmt.Println("no se pudo listar el catálogo:", err)
		return
	}
	if len(products) == 0 {
		fmt.Println("catálogo vacío")
		return
	}
	for _, p := range products {
		price := rates.Format(p.Price, currency.FormatOptions{ShowCode: true})
		fmt.Printf("%-36s  %-30s %s\n", p.ID, p.Name, price)
	}
}

func doAdd(ctx context.Context, args []string, api *storefront.Client, cart *storefront.Cart) {
	if len(args) < 2 {
		fmt.Println("uso: add <product-id> [cantidad]")
		return
	}
	quantity := 1
	if len(args) >= 3 {
		if n, err := strconv.Atoi(args[2]); err == nil {
			quantity = n
		}
	}
	product, err := api.Product(ctx, args[1])
	if err != nil {
		fmt.Println("producto no encontrado:", err)
		return
	}
	cart.Add(product, quantity)
	fmt.Printf("agregado %dx %s (%d items en el carrito)\n", quantity, product.Name, cart.Count())
}

func doCart(cart *storefront.Cart, rates *currency.Store) {
	items := cart.Items()
	if len(items) == 0 {
		fmt.Println("carrito vacío")
		return
	}
	for _, it := range items {
		fmt.Printf("%dx %-30s %s\n", it.Quantity, it.Name, rates.Format(it.UnitPrice, currency.FormatOptions{}))
	}
	summary := cart.Checkout()
	fmt.Printf("subtotal %s  envío %s  impuesto %s  total %s\n",
		rates.Format(summary.Subtotal, currency.FormatOptions{}),
		rates.Format(summary.Shipping, currency.FormatOptions{}),
		rates.Format(summary.Tax, currency.FormatOptions{}),
		rates.Format(summary.Total, currency.FormatOptions{ShowCode: true}),
	)
}

func doCheckout(ctx context.Context, api *storefront.Client, cart *storefront.Cart, rates *currency.Store, sessions *session.Store) {
	if _, err := sessions.RequireAuth(ctx); err != nil {
		fmt.Println("necesitás iniciar sesión para comprar")
		return
	}
	items := cart.Items()
	if len(items) == 0 {
		fmt.Println("carrito vacío")
		return
	}
	order, err := api.PlaceOrder(ctx, items)
	if err != nil {
		fmt.Println("no se pudo crear la orden:", err)
		return
	}
	cart.Clear()
	fmt.Printf("orden %s creada, total %s\n", order.ID, rates.Format(order.Total, currency.FormatOptions{ShowCode: true}))
}

func doOrders(ctx context.Context, api *storefront.Client, rates *currency.Store) {
	orders, err := api.Orders(ctx)
	if err != nil {
		fmt.Println("no se pudieron listar las órdenes:", err)
		return
	}
	if len(orders) == 0 {
		fmt.Println("sin órdenes")
		return
	}
	for _, o := range orders {
		fmt.Printf("%-36s  %-10s %s\n", o.ID, o.Status, rates.Format(o.Total, currency.FormatOptions{ShowCode: true}))
	}
}

func doRates(ctx context.Context, rates *currency.Store) {
	if _, err := rates.UpdateRates(ctx); err != nil {
		fmt.Println("refresh de tasas falló, se mantiene la tabla vigente")
	}
	for _, cur := range rates.Currencies() {
		fmt.Printf("%s %-15s %s\n", cur.Code, cur.Name, cur.Rate.String())
	}
}

func doTicket(ctx context.Context, reader *bufio.Reader, api *storefront.Client, sessions *session.Store) {
	if _, err := sessions.RequireAuth(ctx); err != nil {
		fmt.Println("necesitás iniciar sesión para abrir un ticket")
		return
	}
	subject := prompt(reader, "asunto: ")
	message := prompt(reader, "mensaje: ")
	ticket, err := api.OpenTicket(ctx, subject, message)
	if err != nil {
		fmt.Println("no se pudo abrir el ticket:", err)
		return
	}
	fmt.Printf("ticket %s abierto\n", ticket.TicketID)
}

func doTickets(ctx context.Context, api *storefront.Client) {
	tickets, err := api.Tickets(ctx)
	if err != nil {
		fmt.Println("no se pudieron listar los tickets:", err)
		return
	}
	if len(tickets) == 0 {
		fmt.Println("sin tickets")
		return
	}
	for _, t := range tickets {
		fmt.Printf("%-20s %-12s %s\n", t.TicketID, t.Status, t.Subject)
	}
}
