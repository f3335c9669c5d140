package currency

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"homego/internal/kv"
)

type mockProvider struct {
	rates map[string]decimal.Decimal
	err   error
	calls int
}

func (m *mockProvider) Latest(_ context.Context, _ string) (map[string]decimal.Decimal, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.rates, nil
}

func TestFormatDefaults(t *testing.T) {
	s := NewStore(nil, nil, nil)

	if got := s.Format(decimal.NewFromInt(100), FormatOptions{}); got != "$100.00" {
		t.Fatalf("format 100: got %q", got)
	}
	if got := s.Format(decimal.NewFromInt(100000), FormatOptions{}); got != "$100,000.00" {
		t.Fatalf("format 100000: got %q", got)
	}
	if got := s.Format(decimal.NewFromFloat(-1234.5), FormatOptions{}); got != "$-1,234.50" {
		t.Fatalf("format negative: got %q", got)
	}
}

func TestFormatCurrencyAndCode(t *testing.T) {
	s := NewStore(nil, nil, nil)

	got := s.Format(decimal.NewFromInt(10), FormatOptions{Currency: "INR", ShowCode: true})
	if got != "₹831.20 INR" {
		t.Fatalf("format inr: got %q", got)
	}
	got = s.Format(decimal.NewFromInt(100), FormatOptions{Currency: "EUR"})
	if got != "€92.00" {
		t.Fatalf("format eur: got %q", got)
	}
}

func TestFormatExplicitDecimals(t *testing.T) {
	s := NewStore(nil, nil, nil)

	if got := s.Format(decimal.NewFromFloat(1234.56), FormatOptions{Decimals: Decimals(0)}); got != "$1,235" {
		t.Fatalf("format zero decimals: got %q", got)
	}
	if got := s.Format(decimal.NewFromFloat(10.5), FormatOptions{Decimals: Decimals(3)}); got != "$10.500" {
		t.Fatalf("format three decimals: got %q", got)
	}
	if got := s.Format(decimal.NewFromInt(10), FormatOptions{Decimals: Decimals(-1)}); got != "$10.00" {
		t.Fatalf("format negative decimals: got %q", got)
	}
}

func TestFormatRoundsHalfAwayFromZero(t *testing.T) {
	s := NewStore(nil, nil, nil)
	if got := s.Format(decimal.NewFromFloat(10.005), FormatOptions{}); got != "$10.01" {
		t.Fatalf("format 10.005: got %q", got)
	}
}

func TestConvertUnknownCurrencyFallsBackToBase(t *testing.T) {
	s := NewStore(nil, nil, nil)
	got := s.Convert(decimal.NewFromInt(42), "XXX")
	if !got.Equal(decimal.NewFromInt(42)) {
		t.Fatalf("convert unknown: got %s", got)
	}
	if got := s.Rate("XXX"); !got.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("rate unknown: got %s", got)
	}
}

func TestConvertBetween(t *testing.T) {
	s := NewStore(nil, nil, nil)

	same, err := s.ConvertBetween(decimal.NewFromInt(50), "EUR", "EUR")
	if err != nil {
		t.Fatalf("convert identity: %v", err)
	}
	if !same.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("convert identity: got %s", same)
	}

	if _, err := s.ConvertBetween(decimal.NewFromInt(1), "XXX", "EUR"); !errors.Is(err, ErrUnknownCurrency) {
		t.Fatalf("expected ErrUnknownCurrency, got %v", err)
	}
	if _, err := s.ConvertBetween(decimal.NewFromInt(1), "EUR", "XXX"); !errors.Is(err, ErrUnknownCurrency) {
		t.Fatalf("expected ErrUnknownCurrency, got %v", err)
	}
}

func TestSetCurrencyRejectsUnknown(t *testing.T) {
	local := kv.NewMemoryStore()
	s := NewStore(nil, local, nil)

	if err := s.SetCurrency("ARS"); !errors.Is(err, ErrUnknownCurrency) {
		t.Fatalf("expected ErrUnknownCurrency, got %v", err)
	}
	if s.Active() != "USD" {
		t.Fatalf("active should stay USD, got %s", s.Active())
	}
	if _, err := local.Get("currency"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("nothing should be persisted, got %v", err)
	}
}

func TestSetCurrencyPersistsAndNotifies(t *testing.T) {
	local := kv.NewMemoryStore()
	s := NewStore(nil, local, nil)

	var gotCode, gotSymbol string
	s.OnChange(func(code, symbol string) {
		gotCode, gotSymbol = code, symbol
	})

	if err := s.SetCurrency("INR"); err != nil {
		t.Fatalf("set currency: %v", err)
	}
	if gotCode != "INR" || gotSymbol != "₹" {
		t.Fatalf("observer got %q %q", gotCode, gotSymbol)
	}

	persisted, err := local.Get("currency")
	if err != nil || persisted != "INR" {
		t.Fatalf("persisted currency: %q err=%v", persisted, err)
	}

	// Un store nuevo sobre el mismo almacén recupera la selección.
	s2 := NewStore(nil, local, nil)
	if s2.Active() != "INR" {
		t.Fatalf("restored active: got %s", s2.Active())
	}
}

func TestNeedsUpdateThreshold(t *testing.T) {
	s := NewStore(nil, nil, &mockProvider{rates: map[string]decimal.Decimal{"EUR": decimal.NewFromFloat(0.9)}})
	if !s.NeedsUpdate() {
		t.Fatalf("fresh store should need update")
	}

	if _, err := s.UpdateRates(context.Background()); err != nil {
		t.Fatalf("update rates: %v", err)
	}
	if s.NeedsUpdate() {
		t.Fatalf("just refreshed, should not need update")
	}

	s.now = func() time.Time { return time.Now().UTC().Add(25 * time.Hour) }
	if !s.NeedsUpdate() {
		t.Fatalf("25h later should need update")
	}
}

func TestUpdateRatesMergesOnlyKnownCodes(t *testing.T) {
	provider := &mockProvider{rates: map[string]decimal.Decimal{
		"EUR": decimal.NewFromFloat(0.95),
		"JPY": decimal.NewFromFloat(151.2),
		"USD": decimal.NewFromFloat(1.07),
		"GBP": decimal.Zero,
	}}
	s := NewStore(nil, kv.NewMemoryStore(), provider)

	rates, err := s.UpdateRates(context.Background())
	if err != nil {
		t.Fatalf("update rates: %v", err)
	}
	if !rates["EUR"].Equal(decimal.NewFromFloat(0.95)) {
		t.Fatalf("eur not updated: %s", rates["EUR"])
	}
	if _, ok := rates["JPY"]; ok {
		t.Fatalf("unknown code must not be added")
	}
	if !rates["USD"].Equal(decimal.NewFromInt(1)) {
		t.Fatalf("base rate must stay exactly 1, got %s", rates["USD"])
	}
	// Una tasa cero del proveedor no pisa la vigente.
	if !rates["GBP"].Equal(decimal.NewFromFloat(0.79)) {
		t.Fatalf("zero remote rate must be ignored, got %s", rates["GBP"])
	}
}

func TestUpdateRatesFailureKeepsUsableTable(t *testing.T) {
	provider := &mockProvider{err: errors.New("boom")}
	s := NewStore(nil, nil, provider)

	rates, err := s.UpdateRates(context.Background())
	if err == nil {
		t.Fatalf("expected error report")
	}
	if !rates["INR"].Equal(decimal.NewFromFloat(83.12)) {
		t.Fatalf("static table must survive, got %s", rates["INR"])
	}
	// La moneda activa y el formato siguen funcionando.
	if got := s.Format(decimal.NewFromInt(5), FormatOptions{}); got != "$5.00" {
		t.Fatalf("format after failure: %q", got)
	}
}

func TestUpdateRatesFailureFallsBackToFreshPersisted(t *testing.T) {
	local := kv.NewMemoryStore()
	snap := rateSnapshot{
		Rates: map[string]decimal.Decimal{
			"USD": decimal.NewFromInt(1),
			"EUR": decimal.NewFromFloat(0.88),
		},
		FetchedAt: time.Now().UTC().Add(-1 * time.Hour),
	}
	raw, _ := json.Marshal(snap)
	if err := local.Set("currency:rates", string(raw)); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}

	s := NewStore(nil, local, &mockProvider{err: errors.New("boom")})
	rates, err := s.UpdateRates(context.Background())
	if err == nil {
		t.Fatalf("expected error report")
	}
	if !rates["EUR"].Equal(decimal.NewFromFloat(0.88)) {
		t.Fatalf("persisted rate expected, got %s", rates["EUR"])
	}
}

func TestStalePersistedTableStillLoadsAndSurvivesFailedRefresh(t *testing.T) {
	local := kv.NewMemoryStore()
	snap := rateSnapshot{
		Rates: map[string]decimal.Decimal{
			"USD": decimal.NewFromInt(1),
			"INR": decimal.NewFromFloat(84.50),
		},
		FetchedAt: time.Now().UTC().Add(-25 * time.Hour),
	}
	raw, _ := json.Marshal(snap)
	if err := local.Set("currency:rates", string(raw)); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}

	s := NewStore(nil, local, &mockProvider{err: errors.New("boom")})
	if !s.Rate("INR").Equal(decimal.NewFromFloat(84.50)) {
		t.Fatalf("stale persisted table should load, got %s", s.Rate("INR"))
	}
	if !s.NeedsUpdate() {
		t.Fatalf("stale table should be flagged for refresh")
	}

	rates, err := s.UpdateRates(context.Background())
	if err == nil {
		t.Fatalf("expected error report")
	}
	if !rates["INR"].Equal(decimal.NewFromFloat(84.50)) {
		t.Fatalf("stale table should survive failed refresh, got %s", rates["INR"])
	}
}

func TestUpdateRatesPersistsSnapshotForNextStart(t *testing.T) {
	local := kv.NewMemoryStore()
	provider := &mockProvider{rates: map[string]decimal.Decimal{"GBP": decimal.NewFromFloat(0.81)}}

	s := NewStore(nil, local, provider)
	if _, err := s.UpdateRates(context.Background()); err != nil {
		t.Fatalf("update rates: %v", err)
	}

	s2 := NewStore(nil, local, nil)
	if !s2.Rate("GBP").Equal(decimal.NewFromFloat(0.81)) {
		t.Fatalf("restored rate: got %s", s2.Rate("GBP"))
	}
	if s2.LastRefreshed().IsZero() {
		t.Fatalf("restored store should carry the refresh timestamp")
	}
}

func TestCurrenciesSorted(t *testing.T) {
	s := NewStore(nil, nil, nil)
	currencies := s.Currencies()
	if len(currencies) != 4 {
		t.Fatalf("expected 4 currencies, got %d", len(currencies))
	}
	want := []string{"EUR", "GBP", "INR", "USD"}
	for i, cur := range currencies {
		if cur.Code != want[i] {
			t.Fatalf("order: got %s at %d", cur.Code, i)
		}
	}
}
