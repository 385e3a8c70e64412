package fyers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"optioneer/market"
)

const (
	// DataURL is the Fyers market-data API base.
	DataURL = "https://api-t1.fyers.in/data"
	// APIURL is the Fyers auth/session API base.
	APIURL = "https://api-t1.fyers.in/api/v3"
)

// Client is a Fyers market-data client implementing market.Gateway.
// Every response is validated at this boundary; the engine only ever
// sees the typed entities from the market package.
type Client struct {
	http  *resty.Client
	appID string
	log   *zap.Logger
}

// NewClient builds a client with the app id and access token obtained
// from the token bootstrap.
func NewClient(appID, accessToken string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}

	http := resty.New()
	http.SetBaseURL(DataURL)
	http.SetTimeout(30 * time.Second)
	http.SetHeader("Authorization", appID+":"+accessToken)

	return &Client{http: http, appID: appID, log: log}
}

type quotesResponse struct {
	S string `json:"s"`
	D []struct {
		N string `json:"n"`
		S string `json:"s"`
		V struct {
			LP float64 `json:"lp"`
			TT int64   `json:"tt"`
		} `json:"v"`
	} `json:"d"`
}

// Spot returns the current index level.
func (c *Client) Spot(ctx context.Context, symbol string) (market.Quote, error) {
	return c.Quote(ctx, symbol)
}

// Quote fetches the last traded price for one symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (market.Quote, error) {
	var out quotesResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("symbols", symbol).
		SetResult(&out).
		Get("/quotes")
	if err != nil {
		return market.Quote{}, fmt.Errorf("fyers quotes: %w", err)
	}
	if resp.IsError() {
		return market.Quote{}, fmt.Errorf("fyers quotes: status %s", resp.Status())
	}
	if out.S != "ok" || len(out.D) == 0 {
		return market.Quote{}, fmt.Errorf("fyers quotes: no data for %q", symbol)
	}

	d := out.D[0]
	return market.Quote{
		Symbol: d.N,
		LTP:    d.V.LP,
		Time:   time.Unix(d.V.TT, 0),
	}, nil
}

type chainResponse struct {
	S    string `json:"s"`
	Data struct {
		ExpiryData []struct {
			Date   string `json:"date"`   // "26-09-2024"
			Expiry string `json:"expiry"` // epoch seconds as string
		} `json:"expiryData"`
		OptionsChain []struct {
			Symbol      string  `json:"symbol"`
			StrikePrice float64 `json:"strike_price"`
			OptionType  string  `json:"option_type"`
			ExpiryTS    int64   `json:"expiry_ts"`
			LTP         float64 `json:"ltp"`
			OI          int64   `json:"oi"`
			IV          float64 `json:"iv"`
		} `json:"optionsChain"`
	} `json:"data"`
}

// Chain fetches the option-chain snapshot for an underlying. Rows the
// upstream reports malformed (unknown option type, zero strike) are
// dropped here rather than handed to the engine.
func (c *Client) Chain(ctx context.Context, underlying string) (market.OptionChain, error) {
	var out chainResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("symbol", underlying).
		SetQueryParam("strikecount", "30").
		SetResult(&out).
		Get("/options-chain-v3")
	if err != nil {
		return market.OptionChain{}, fmt.Errorf("fyers chain: %w", err)
	}
	if resp.IsError() {
		return market.OptionChain{}, fmt.Errorf("fyers chain: status %s", resp.Status())
	}
	if out.S != "ok" {
		return market.OptionChain{}, fmt.Errorf("fyers chain: bad payload for %q", underlying)
	}

	chain := market.OptionChain{Underlying: underlying}

	for _, e := range out.Data.ExpiryData {
		epoch, err := strconv.ParseInt(e.Expiry, 10, 64)
		if err != nil {
			c.log.Warn("chain expiry unparseable",
				zap.String("date", e.Date), zap.String("expiry", e.Expiry))
			continue
		}
		chain.Expiries = append(chain.Expiries, market.Expiry{
			Epoch: epoch,
			Date:  time.Unix(epoch, 0),
		})
	}

	for _, r := range out.Data.OptionsChain {
		typ := market.OptionType(r.OptionType)
		if typ != market.Call && typ != market.Put {
			if r.OptionType != "" { // underlying row has no type
				c.log.Warn("chain row dropped", zap.String("symbol", r.Symbol))
			}
			continue
		}
		if r.StrikePrice <= 0 {
			continue
		}
		chain.Rows = append(chain.Rows, market.ChainRow{
			Symbol: r.Symbol,
			Strike: r.StrikePrice,
			Type:   typ,
			Expiry: r.ExpiryTS,
			LTP:    r.LTP,
			OI:     r.OI,
			IV:     r.IV,
		})
	}

	return chain, nil
}

type historyResponse struct {
	S       string      `json:"s"`
	Candles [][]float64 `json:"candles"` // [ts, o, h, l, c, v]
}

// Candles fetches up to count recent bars, oldest first.
func (c *Client) Candles(ctx context.Context, symbol, resolution string, count int) ([]market.Candle, error) {
	to := time.Now()
	from := to.AddDate(0, 0, -barWindowDays(resolution, count))

	var out historyResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol":      symbol,
			"resolution":  resolution,
			"date_format": "0",
			"range_from":  strconv.FormatInt(from.Unix(), 10),
			"range_to":    strconv.FormatInt(to.Unix(), 10),
		}).
		SetResult(&out).
		Get("/history")
	if err != nil {
		return nil, fmt.Errorf("fyers history: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fyers history: status %s", resp.Status())
	}
	if out.S != "ok" {
		return nil, fmt.Errorf("fyers history: bad payload for %q", symbol)
	}

	candles := make([]market.Candle, 0, len(out.Candles))
	for _, row := range out.Candles {
		if len(row) < 6 {
			continue
		}
		candles = append(candles, market.Candle{
			Time:   time.Unix(int64(row[0]), 0),
			O:      row[1],
			H:      row[2],
			L:      row[3],
			C:      row[4],
			Volume: int64(row[5]),
		})
	}

	if len(candles) > count {
		candles = candles[len(candles)-count:]
	}
	return candles, nil
}

// barWindowDays sizes the history request window generously enough to
// cover count bars of the given resolution, weekends included.
func barWindowDays(resolution string, count int) int {
	if resolution == "D" {
		return count*2 + 7
	}
	// Intraday: assume ~6 trading hours per day.
	mins, err := strconv.Atoi(resolution)
	if err != nil {
		mins = 60
	}
	days := count*mins/(6*60) + 7
	return days * 2
}
