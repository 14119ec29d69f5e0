package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultRatesBaseURL = "https://api.exchangerate-api.com/v4/latest"
	defaultCountriesURL = "https://restcountries.com/v3.1/all?fields=name,currencies"
)

// Rates is the exchange-rate table for one base currency.
type Rates struct {
	Base  string                     `json:"base"`
	Date  string                     `json:"date"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

type CountryCurrency struct {
	Country        string `json:"country"`
	CurrencyCode   string `json:"currency_code"`
	CurrencyName   string `json:"currency_name"`
	CurrencySymbol string `json:"currency_symbol"`
}

// Client fetches exchange rates and country/currency data from the
// public upstream APIs. Callers are expected to cache results.
type Client struct {
	httpClient   *http.Client
	ratesBaseURL string
	countriesURL string
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

func WithRatesBaseURL(u string) Option {
	return func(c *Client) { c.ratesBaseURL = u }
}

func WithCountriesURL(u string) Option {
	return func(c *Client) { c.countriesURL = u }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		ratesBaseURL: defaultRatesBaseURL,
		countriesURL: defaultCountriesURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) FetchRates(ctx context.Context, baseCurrency string) (Rates, error) {
	endpoint := fmt.Sprintf("%s/%s", c.ratesBaseURL, url.PathEscape(baseCurrency))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Rates{}, fmt.Errorf("build rates request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Rates{}, fmt.Errorf("fetch exchange rates for %s: %w", baseCurrency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Rates{}, fmt.Errorf("fetch exchange rates for %s: unexpected status %d", baseCurrency, resp.StatusCode)
	}

	var rates Rates
	if err := json.NewDecoder(resp.Body).Decode(&rates); err != nil {
		return Rates{}, fmt.Errorf("decode exchange rates: %w", err)
	}
	return rates, nil
}

type countryPayload struct {
	Name struct {
		Common   string `json:"common"`
		Official string `json:"official"`
	} `json:"name"`
	Currencies map[string]struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	} `json:"currencies"`
}

func (c *Client) FetchCountries(ctx context.Context) ([]CountryCurrency, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.countriesURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build countries request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch countries: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch countries: unexpected status %d", resp.StatusCode)
	}

	var payload []countryPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode countries: %w", err)
	}

	var countries []CountryCurrency
	for _, entry := range payload {
		// Most countries have one currency, some have several;
		// emit one row per currency.
		for code, currency := range entry.Currencies {
			symbol := currency.Symbol
			if symbol == "" {
				symbol = code
			}
			countries = append(countries, CountryCurrency{
				Country:        entry.Name.Common,
				CurrencyCode:   code,
				CurrencyName:   currency.Name,
				CurrencySymbol: symbol,
			})
		}
	}

	sort.Slice(countries, func(i, j int) bool {
		if countries[i].Country != countries[j].Country {
			return countries[i].Country < countries[j].Country
		}
		return countries[i].CurrencyCode < countries[j].CurrencyCode
	})
	return countries, nil
}

// FallbackCountries is served when the upstream API is unavailable and
// no cached copy exists.
func FallbackCountries() []CountryCurrency {
	return []CountryCurrency{
		{Country: "Australia", CurrencyCode: "AUD", CurrencyName: "Australian Dollar", CurrencySymbol: "A$"},
		{Country: "Brazil", CurrencyCode: "BRL", CurrencyName: "Brazilian Real", CurrencySymbol: "R$"},
		{Country: "Canada", CurrencyCode: "CAD", CurrencyName: "Canadian Dollar", CurrencySymbol: "CA$"},
		{Country: "China", CurrencyCode: "CNY", CurrencyName: "Chinese Yuan", CurrencySymbol: "¥"},
		{Country: "France", CurrencyCode: "EUR", CurrencyName: "Euro", CurrencySymbol: "€"},
		{Country: "Germany", CurrencyCode: "EUR", CurrencyName: "Euro", CurrencySymbol: "€"},
		{Country: "India", CurrencyCode: "INR", CurrencyName: "Indian Rupee", CurrencySymbol: "₹"},
		{Country: "Japan", CurrencyCode: "JPY", CurrencyName: "Japanese Yen", CurrencySymbol: "¥"},
		{Country: "Mexico", CurrencyCode: "MXN", CurrencyName: "Mexican Peso", CurrencySymbol: "Mex$"},
		{Country: "South Africa", CurrencyCode: "ZAR", CurrencyName: "South African Rand", CurrencySymbol: "R"},
		{Country: "United Kingdom", CurrencyCode: "GBP", CurrencyName: "British Pound Sterling", CurrencySymbol: "£"},
		{Country: "United States", CurrencyCode: "USD", CurrencyName: "United States Dollar", CurrencySymbol: "$"},
	}
}
