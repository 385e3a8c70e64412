package fyers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optioneer/market"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient("APP-100", "token", nil)
	c.http.SetBaseURL(srv.URL)
	return c
}

func TestQuote(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quotes", r.URL.Path)
		assert.Equal(t, "NSE:NIFTY50-INDEX", r.URL.Query().Get("symbols"))
		assert.Equal(t, "APP-100:token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"s":"ok","d":[{"n":"NSE:NIFTY50-INDEX","s":"ok","v":{"lp":24510.35,"tt":1725270600}}]}`))
	})

	q, err := c.Quote(context.Background(), "NSE:NIFTY50-INDEX")
	require.NoError(t, err)
	assert.Equal(t, "NSE:NIFTY50-INDEX", q.Symbol)
	assert.InDelta(t, 24510.35, q.LTP, 1e-9)
	assert.True(t, q.Live())
	assert.Equal(t, int64(1725270600), q.Time.Unix())
}

func TestQuote_BadPayload(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"s":"error","d":[]}`))
	})

	_, err := c.Quote(context.Background(), "NSE:NIFTY50-INDEX")
	assert.Error(t, err)
}

func TestQuote_HTTPError(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})

	_, err := c.Quote(context.Background(), "NSE:NIFTY50-INDEX")
	assert.Error(t, err)
}

func TestChain(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/options-chain-v3", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"s": "ok",
			"data": {
				"expiryData": [
					{"date": "24-09-2024", "expiry": "1727151300"},
					{"date": "not-a-date", "expiry": "garbage"}
				],
				"optionsChain": [
					{"symbol": "NSE:NIFTY50-INDEX", "strike_price": -1, "option_type": "", "ltp": 24510},
					{"symbol": "NSE:NIFTY24SEP24500CE", "strike_price": 24500, "option_type": "CE", "expiry_ts": 1727151300, "ltp": 120.5, "oi": 1250000, "iv": 14.2},
					{"symbol": "NSE:NIFTY24SEP24500PE", "strike_price": 24500, "option_type": "PE", "expiry_ts": 1727151300, "ltp": 98.2, "oi": 980000, "iv": 15.1},
					{"symbol": "NSE:BROKEN", "strike_price": 24500, "option_type": "XX", "expiry_ts": 1727151300, "ltp": 1}
				]
			}
		}`))
	})

	chain, err := c.Chain(context.Background(), "NSE:NIFTY50-INDEX")
	require.NoError(t, err)

	// The unparseable expiry and the malformed rows are dropped at
	// the boundary.
	require.Len(t, chain.Expiries, 1)
	assert.Equal(t, int64(1727151300), chain.Expiries[0].Epoch)

	require.Len(t, chain.Rows, 2)
	assert.Equal(t, market.Call, chain.Rows[0].Type)
	assert.Equal(t, market.Put, chain.Rows[1].Type)
	assert.InDelta(t, 14.2, chain.Rows[0].IV, 1e-9)
}

func TestCandles(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/history", r.URL.Path)
		assert.Equal(t, "D", r.URL.Query().Get("resolution"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"s":"ok","candles":[
			[1725235200, 24400, 24550, 24380, 24500, 250000],
			[1725321600, 24500, 24600, 24450, 24580, 230000],
			[1725408000, 24580, 24620, 24500, 24510, 210000]
		]}`))
	})

	candles, err := c.Candles(context.Background(), "NSE:NIFTY50-INDEX", "D", 2)
	require.NoError(t, err)

	// Trimmed to the requested count, most recent kept, oldest first.
	require.Len(t, candles, 2)
	assert.InDelta(t, 24580.0, candles[0].C, 1e-9)
	assert.InDelta(t, 24510.0, candles[1].C, 1e-9)
}

func TestSessionLoginURL(t *testing.T) {
	t.Parallel()

	s := NewSession("APP-100", "secret", "https://localhost")
	u := s.LoginURL()

	assert.Contains(t, u, "generate-authcode")
	assert.Contains(t, u, "client_id=APP-100")
	assert.Contains(t, u, "response_type=code")
}

func TestSessionExchange(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/validate-authcode", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"s":"ok","access_token":"eyJ0eXAi.access.token"}`))
	}))
	t.Cleanup(srv.Close)

	s := NewSession("APP-100", "secret", "https://localhost")
	s.http.SetBaseURL(srv.URL)

	tok, err := s.Exchange(context.Background(), "authcode123")
	require.NoError(t, err)
	assert.Equal(t, "eyJ0eXAi.access.token", tok)
}

func TestSessionExchange_Rejected(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"s":"error","message":"invalid auth code"}`))
	}))
	t.Cleanup(srv.Close)

	s := NewSession("APP-100", "secret", "https://localhost")
	s.http.SetBaseURL(srv.URL)

	_, err := s.Exchange(context.Background(), "bad")
	assert.ErrorContains(t, err, "invalid auth code")
}
