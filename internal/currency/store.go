package currency

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"homego/internal/kv"
)

// BaseCurrency es la moneda con tasa fija 1 contra la que se expresan
// todas las demás tasas.
const BaseCurrency = "USD"

// FreshnessThreshold es la ventana tras la cual una tabla de tasas
// persistida se considera vencida.
const FreshnessThreshold = 24 * time.Hour

const (
	activeCurrencyKey = "currency"
	rateTableKey      = "currency:rates"
)

var ErrUnknownCurrency = errors.New("unknown currency")

// Currency describe una moneda soportada por la tienda.
type Currency struct {
	Code   string          `json:"code"`
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Rate   decimal.Decimal `json:"rate"`
}

// RateProvider obtiene tasas de cambio en vivo expresadas contra base.
type RateProvider interface {
	Latest(ctx context.Context, base string) (map[string]decimal.Decimal, error)
}

// ChangeFunc recibe la notificación currencyChanged con el nuevo código
// y su símbolo.
type ChangeFunc func(code, symbol string)

// FormatOptions controla el render de un monto. Decimals en nil usa 2;
// un puntero explícito se respeta tal cual, incluido cero.
type FormatOptions struct {
	Currency string
	Decimals *int
	ShowCode bool
}

// Decimals construye el puntero para FormatOptions.Decimals.
func Decimals(n int) *int {
	return &n
}

// rateSnapshot es la forma persistida de la tabla junto a su timestamp.
type rateSnapshot struct {
	Rates     map[string]decimal.Decimal `json:"rates"`
	FetchedAt time.Time                  `json:"fetchedAt"`
}

// Store mantiene la tabla de tasas, la moneda activa y el formato de
// precios. La tabla arranca con un snapshot estático y puede ser
// reemplazada por un refresh remoto exitoso.
type Store struct {
	logger   *zap.Logger
	local    kv.Store
	provider RateProvider
	now      func() time.Time

	mu            sync.RWMutex
	rates         map[string]decimal.Decimal
	symbols       map[string]string
	names         map[string]string
	active        string
	lastRefreshed time.Time
	onChange      []ChangeFunc
}

// staticRates es el snapshot de respaldo con el que arranca la tienda.
func staticRates() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"USD": decimal.NewFromInt(1),
		"INR": decimal.NewFromFloat(83.12),
		"EUR": decimal.NewFromFloat(0.92),
		"GBP": decimal.NewFromFloat(0.79),
	}
}

// NewStore construye el Store con el snapshot estático, recupera la
// moneda activa persistida y recarga la tabla persistida si existe.
// No hace llamadas de red: el caller decide cuándo refrescar.
func NewStore(logger *zap.Logger, local kv.Store, provider RateProvider) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		logger:   logger,
		local:    local,
		provider: provider,
		now:      time.Now,
		rates:    staticRates(),
		symbols: map[string]string{
			"USD": "$",
			"INR": "₹",
			"EUR": "€",
			"GBP": "£",
		},
		names: map[string]string{
			"USD": "US Dollar",
			"INR": "Indian Rupee",
			"EUR": "Euro",
			"GBP": "British Pound",
		},
		active: BaseCurrency,
	}

	if local != nil {
		if code, err := local.Get(activeCurrencyKey); err == nil {
			if _, ok := s.rates[code]; ok {
				s.active = code
			}
		}
		// Una tabla persistida vencida sigue siendo mejor que el
		// snapshot estático; NeedsUpdate la marca para refresh.
		if snap, err := s.loadSnapshot(); err == nil {
			s.applySnapshot(snap)
		}
	}

	return s
}

// Active devuelve el código de la moneda seleccionada.
func (s *Store) Active() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Rate devuelve la tasa almacenada para code, o la tasa base (1) si el
// código es desconocido. Nunca falla.
func (s *Store) Rate(code string) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.rates[code]; ok {
		return r
	}
	return decimal.NewFromInt(1)
}

// Symbol devuelve el símbolo de la moneda, o el de la base si no se
// conoce el código. Con code vacío usa la moneda activa.
func (s *Store) Symbol(code string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if code == "" {
		code = s.active
	}
	if sym, ok := s.symbols[code]; ok {
		return sym
	}
	return "$"
}

// Name devuelve el nombre legible de la moneda. Con code vacío usa la
// moneda activa.
func (s *Store) Name(code string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if code == "" {
		code = s.active
	}
	if n, ok := s.names[code]; ok {
		return n
	}
	return "US Dollar"
}

// Convert pasa un monto en moneda base a la moneda destino. Con code
// vacío usa la moneda activa.
func (s *Store) Convert(amountInBase decimal.Decimal, code string) decimal.Decimal {
	s.mu.RLock()
	if code == "" {
		code = s.active
	}
	rate, ok := s.rates[code]
	s.mu.RUnlock()
	if !ok {
		rate = decimal.NewFromInt(1)
	}
	return amountInBase.Mul(rate)
}

// ConvertBetween convierte un monto entre dos monedas pasando por la
// base. Falla con ErrUnknownCurrency si alguna tasa falta o es cero,
// en lugar de propagar infinitos.
func (s *Store) ConvertBetween(amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	s.mu.RLock()
	fromRate, fromOK := s.rates[from]
	toRate, toOK := s.rates[to]
	s.mu.RUnlock()

	if !fromOK || fromRate.IsZero() {
		return decimal.Decimal{}, ErrUnknownCurrency
	}
	if !toOK {
		return decimal.Decimal{}, ErrUnknownCurrency
	}
	return amount.Div(fromRate).Mul(toRate), nil
}

// Format convierte y renderiza un monto en base con símbolo, decimales
// fijos y separadores de miles. Función pura de sus entradas más la
// moneda activa.
func (s *Store) Format(amountInBase decimal.Decimal, opts FormatOptions) string {
	code := opts.Currency
	if code == "" {
		code = s.Active()
	}
	decimals := 2
	if opts.Decimals != nil && *opts.Decimals >= 0 {
		decimals = *opts.Decimals
	}

	converted := s.Convert(amountInBase, code)
	formatted := groupThousands(converted.StringFixed(int32(decimals)))

	if opts.ShowCode {
		return s.Symbol(code) + formatted + " " + code
	}
	return s.Symbol(code) + formatted
}

// groupThousands inserta separadores de miles en la parte entera de un
// número decimal ya formateado.
func groupThousands(fixed string) string {
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}
	intPart := fixed
	fracPart := ""
	if i := strings.IndexByte(fixed, '.'); i >= 0 {
		intPart, fracPart = fixed[:i], fixed[i:]
	}

	var b strings.Builder
	b.WriteString(sign)
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
		if len(intPart) > lead {
			b.WriteByte(',')
		}
	}
	for i := lead; i < len(intPart); i += 3 {
		b.WriteString(intPart[i : i+3])
		if i+3 < len(intPart) {
			b.WriteByte(',')
		}
	}
	b.WriteString(fracPart)
	return b.String()
}

// SetCurrency cambia la moneda activa. Rechaza códigos desconocidos sin
// mutar estado; en éxito persiste el código y notifica currencyChanged.
func (s *Store) SetCurrency(code string) error {
	s.mu.Lock()
	if _, ok := s.rates[code]; !ok {
		s.mu.Unlock()
		return ErrUnknownCurrency
	}
	s.active = code
	symbol := s.symbols[code]
	observers := append([]ChangeFunc(nil), s.onChange...)
	s.mu.Unlock()

	if s.local != nil {
		if err := s.local.Set(activeCurrencyKey, code); err != nil {
			s.logger.Warn("persist active currency failed", zap.Error(err))
		}
	}
	for _, fn := range observers {
		fn(code, symbol)
	}
	return nil
}

// OnChange registra un observador de cambios de moneda.
func (s *Store) OnChange(fn ChangeFunc) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// Currencies lista las monedas disponibles ordenadas por código.
func (s *Store) Currencies() []Currency {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Currency, 0, len(s.rates))
	for code, rate := range s.rates {
		out = append(out, Currency{
			Code:   code,
			Symbol: s.symbols[code],
			Name:   s.names[code],
			Rate:   rate,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// NeedsUpdate indica si nunca hubo un refresh exitoso o si el último
// es más viejo que el umbral de frescura.
func (s *Store) NeedsUpdate() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastRefreshed.IsZero() {
		return true
	}
	return s.now().Sub(s.lastRefreshed) >= FreshnessThreshold
}

// LastRefreshed devuelve el timestamp del último refresh exitoso, o
// cero si nunca hubo uno.
func (s *Store) LastRefreshed() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRefreshed
}

// UpdateRates intenta un fetch remoto de tasas. En éxito sobrescribe
// solo los códigos que la tienda conoce, persiste la tabla con su
// timestamp y devuelve la tabla actualizada. En fallo recurre primero a
// una tabla persistida aún fresca y después a la tabla en memoria; el
// error se devuelve como informe pero la tabla retornada siempre es
// usable.
func (s *Store) UpdateRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	if s.provider == nil {
		return s.snapshotRates(), errors.New("rate provider not configured")
	}

	remote, err := s.provider.Latest(ctx, BaseCurrency)
	if err != nil {
		s.logger.Warn("rate refresh failed, keeping best available table", zap.Error(err))
		s.fallbackToPersisted()
		return s.snapshotRates(), err
	}

	fetchedAt := s.now()
	s.mu.Lock()
	for code := range s.rates {
		if code == BaseCurrency {
			continue
		}
		if r, ok := remote[code]; ok && !r.IsZero() {
			s.rates[code] = r
		}
	}
	s.rates[BaseCurrency] = decimal.NewFromInt(1)
	s.lastRefreshed = fetchedAt
	snap := rateSnapshot{Rates: copyRates(s.rates), FetchedAt: fetchedAt}
	s.mu.Unlock()

	if err := s.persistSnapshot(snap); err != nil {
		s.logger.Warn("persist rate table failed", zap.Error(err))
	}
	s.logger.Info("exchange rates refreshed", zap.Time("fetchedAt", fetchedAt))
	return s.snapshotRates(), nil
}

// fallbackToPersisted recarga la tabla persistida si todavía es fresca,
// o si en memoria solo está el snapshot estático. En cualquier otro
// caso la tabla en memoria queda como está.
func (s *Store) fallbackToPersisted() {
	snap, err := s.loadSnapshot()
	if err != nil {
		return
	}
	s.mu.RLock()
	neverRefreshed := s.lastRefreshed.IsZero()
	s.mu.RUnlock()
	if !neverRefreshed && s.now().Sub(snap.FetchedAt) >= FreshnessThreshold {
		return
	}
	s.applySnapshot(snap)
}

func (s *Store) applySnapshot(snap rateSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for code := range s.rates {
		if code == BaseCurrency {
			continue
		}
		if r, ok := snap.Rates[code]; ok && !r.IsZero() {
			s.rates[code] = r
		}
	}
	s.rates[BaseCurrency] = decimal.NewFromInt(1)
	s.lastRefreshed = snap.FetchedAt
}

func (s *Store) loadSnapshot() (rateSnapshot, error) {
	if s.local == nil {
		return rateSnapshot{}, kv.ErrNotFound
	}
	raw, err := s.local.Get(rateTableKey)
	if err != nil {
		return rateSnapshot{}, err
	}
	var snap rateSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return rateSnapshot{}, err
	}
	return snap, nil
}

func (s *Store) persistSnapshot(snap rateSnapshot) error {
	if s.local == nil {
		return nil
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.local.Set(rateTableKey, string(raw))
}

func (s *Store) snapshotRates() map[string]decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyRates(s.rates)
}

func copyRates(in map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
