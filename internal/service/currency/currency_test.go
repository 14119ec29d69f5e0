package currency

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/expensehub/expense-backend-go/internal/pkg/exchange"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when told to, so cache expiry is deterministic.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// ratesServer serves a fixed USD rate table and counts requests. Set
// failing to return 503s instead.
type ratesServer struct {
	mu       sync.Mutex
	requests int
	failing  bool
	server   *httptest.Server
}

func newRatesServer(t *testing.T) *ratesServer {
	t.Helper()
	rs := &ratesServer{}
	rs.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.mu.Lock()
		rs.requests++
		failing := rs.failing
		rs.mu.Unlock()

		if failing {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"base":"USD","date":"2025-06-01","rates":{"EUR":0.9,"JPY":150}}`)
	}))
	t.Cleanup(rs.server.Close)
	return rs
}

func (rs *ratesServer) setFailing(v bool) {
	rs.mu.Lock()
	rs.failing = v
	rs.mu.Unlock()
}

func (rs *ratesServer) requestCount() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.requests
}

func newTestService(t *testing.T, rs *ratesServer, countriesURL string, clock *fakeClock) *CurrencyService {
	t.Helper()
	opts := []exchange.Option{exchange.WithRatesBaseURL(rs.server.URL)}
	if countriesURL != "" {
		opts = append(opts, exchange.WithCountriesURL(countriesURL))
	}
	return NewCurrencyServiceWithClock(exchange.NewClient(opts...), clock.Now)
}

func TestConvert_UsesFetchedRate(t *testing.T) {
	rs := newRatesServer(t)
	svc := newTestService(t, rs, "", newFakeClock())

	converted, rate, err := svc.Convert(context.Background(), decimal.NewFromInt(100), "usd", "eur")
	require.NoError(t, err)

	assert.True(t, converted.Equal(decimal.NewFromInt(90)), "converted = %s", converted)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.9")), "rate = %s", rate)
}

func TestConvert_SameCurrencySkipsUpstream(t *testing.T) {
	rs := newRatesServer(t)
	svc := newTestService(t, rs, "", newFakeClock())

	converted, rate, err := svc.Convert(context.Background(), decimal.NewFromInt(42), "USD", "USD")
	require.NoError(t, err)

	assert.True(t, converted.Equal(decimal.NewFromInt(42)))
	assert.True(t, rate.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, 0, rs.requestCount())
}

func TestConvert_MissingRate(t *testing.T) {
	rs := newRatesServer(t)
	svc := newTestService(t, rs, "", newFakeClock())

	_, _, err := svc.Convert(context.Background(), decimal.NewFromInt(100), "USD", "XXX")
	assert.ErrorIs(t, err, ErrRateUnavailable)
}

func TestGetRates_CachedWithinTTL(t *testing.T) {
	rs := newRatesServer(t)
	clock := newFakeClock()
	svc := newTestService(t, rs, "", clock)

	_, err := svc.GetRates(context.Background(), "USD")
	require.NoError(t, err)
	_, err = svc.GetRates(context.Background(), "USD")
	require.NoError(t, err)
	assert.Equal(t, 1, rs.requestCount())

	clock.Advance(2 * time.Hour)
	_, err = svc.GetRates(context.Background(), "USD")
	require.NoError(t, err)
	assert.Equal(t, 2, rs.requestCount())
}

func TestGetRates_ServesStaleOnUpstreamFailure(t *testing.T) {
	rs := newRatesServer(t)
	clock := newFakeClock()
	svc := newTestService(t, rs, "", clock)

	_, err := svc.GetRates(context.Background(), "USD")
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	rs.setFailing(true)

	rates, err := svc.GetRates(context.Background(), "USD")
	require.NoError(t, err)
	assert.True(t, rates.Rates["EUR"].Equal(decimal.RequireFromString("0.9")))
}

func TestGetRates_FailsWithNothingCached(t *testing.T) {
	rs := newRatesServer(t)
	rs.setFailing(true)
	svc := newTestService(t, rs, "", newFakeClock())

	_, err := svc.GetRates(context.Background(), "USD")
	assert.Error(t, err)
}

func TestListCountries_FallsBackWhenUpstreamDown(t *testing.T) {
	rs := newRatesServer(t)
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(down.Close)
	svc := newTestService(t, rs, down.URL, newFakeClock())

	countries, err := svc.ListCountries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, exchange.FallbackCountries(), countries)
}

func TestCurrencyForCountry(t *testing.T) {
	rs := newRatesServer(t)
	countriesSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"name":{"common":"United States"},"currencies":{"USD":{"name":"United States dollar","symbol":"$"}}},
			{"name":{"common":"Japan"},"currencies":{"JPY":{"name":"Japanese yen","symbol":"¥"}}}
		]`)
	}))
	t.Cleanup(countriesSrv.Close)
	svc := newTestService(t, rs, countriesSrv.URL, newFakeClock())

	code, err := svc.CurrencyForCountry(context.Background(), "united states")
	require.NoError(t, err)
	assert.Equal(t, "USD", code)

	_, err = svc.CurrencyForCountry(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, ErrCountryNotFound)
}
