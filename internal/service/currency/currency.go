package currency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/expensehub/expense-backend-go/internal/pkg/exchange"
	"github.com/shopspring/decimal"
)

var (
	ErrRateUnavailable = errors.New("exchange rate unavailable")
	ErrCountryNotFound = errors.New("country not found")
)

const (
	ratesTTL     = 1 * time.Hour
	countriesTTL = 24 * time.Hour
)

// CurrencyService fronts the upstream exchange APIs with TTL caches.
// Expired entries are still served when a refresh fails, so conversion
// keeps working through upstream outages.
type CurrencyService struct {
	client    *exchange.Client
	rates     *exchange.KeyedTTLCache[exchange.Rates]
	countries *exchange.TTLCache[[]exchange.CountryCurrency]
}

func NewCurrencyService(client *exchange.Client) *CurrencyService {
	return &CurrencyService{
		client:    client,
		rates:     exchange.NewKeyedTTLCache[exchange.Rates](ratesTTL),
		countries: exchange.NewTTLCache[[]exchange.CountryCurrency](countriesTTL),
	}
}

// NewCurrencyServiceWithClock wires an explicit clock into the caches.
func NewCurrencyServiceWithClock(client *exchange.Client, now func() time.Time) *CurrencyService {
	return &CurrencyService{
		client:    client,
		rates:     exchange.NewKeyedTTLCacheWithClock[exchange.Rates](ratesTTL, now),
		countries: exchange.NewTTLCacheWithClock[[]exchange.CountryCurrency](countriesTTL, now),
	}
}

// GetRates returns the rate table for a base currency, refreshing at
// most once per TTL window.
func (s *CurrencyService) GetRates(ctx context.Context, baseCurrency string) (exchange.Rates, error) {
	base := strings.ToUpper(baseCurrency)

	if rates, ok := s.rates.Get(base); ok {
		return rates, nil
	}

	rates, err := s.client.FetchRates(ctx, base)
	if err != nil {
		// Serve the stale copy rather than fail the caller.
		if stale, ok := s.rates.GetStale(base); ok {
			return stale, nil
		}
		return exchange.Rates{}, fmt.Errorf("failed to fetch exchange rates: %w", err)
	}

	s.rates.Put(base, rates)
	return rates, nil
}

// Convert converts amount from one currency to another and returns the
// converted amount together with the rate used. Same-currency
// conversion is the identity and never touches the upstream API.
func (s *CurrencyService) Convert(ctx context.Context, amount decimal.Decimal, fromCurrency, toCurrency string) (decimal.Decimal, decimal.Decimal, error) {
	from := strings.ToUpper(fromCurrency)
	to := strings.ToUpper(toCurrency)

	if from == to {
		return amount, decimal.NewFromInt(1), nil
	}

	rates, err := s.GetRates(ctx, from)
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, err
	}

	rate, ok := rates.Rates[to]
	if !ok {
		return decimal.Decimal{}, decimal.Decimal{}, fmt.Errorf("%w: %s", ErrRateUnavailable, to)
	}

	return amount.Mul(rate), rate, nil
}

// ListCountries returns the country/currency table, falling back to a
// built-in list when the upstream is down and nothing is cached yet.
func (s *CurrencyService) ListCountries(ctx context.Context) ([]exchange.CountryCurrency, error) {
	if countries, ok := s.countries.Get(); ok {
		return countries, nil
	}

	countries, err := s.client.FetchCountries(ctx)
	if err != nil {
		if stale, ok := s.countries.GetStale(); ok {
			return stale, nil
		}
		return exchange.FallbackCountries(), nil
	}

	s.countries.Put(countries)
	return countries, nil
}

// CurrencyForCountry resolves a country name to its currency code,
// case-insensitively.
func (s *CurrencyService) CurrencyForCountry(ctx context.Context, country string) (string, error) {
	countries, err := s.ListCountries(ctx)
	if err != nil {
		return "", err
	}

	for _, c := range countries {
		if strings.EqualFold(c.Country, country) {
			return c.CurrencyCode, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrCountryNotFound, country)
}
