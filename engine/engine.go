package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"optioneer/config"
	"optioneer/filter"
	"optioneer/greeks"
	"optioneer/indicators"
	"optioneer/internal/id"
	"optioneer/journal"
	"optioneer/ledger"
	"optioneer/market"
	"optioneer/store"
)

// Engine owns the ledger and drives it: one scan cycle per tick of the
// scheduler, plus optional push-stream updates. All ledger mutation and
// persistence is serialized behind the mutex; network fetches happen
// outside it.
type Engine struct {
	mu      sync.Mutex
	cfg     *config.Config
	gw      market.Gateway
	gate    *filter.Filter
	state   *ledger.State
	store   *store.Store
	journal journal.Journal
	log     *zap.Logger

	clock func() time.Time

	lastCycle time.Time
}

// New loads the persisted ledger and returns an engine ready to run.
func New(cfg *config.Config, gw market.Gateway, st *store.Store, j journal.Journal, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}

	e := &Engine{
		cfg:     cfg,
		gw:      gw,
		gate:    filter.New(cfg.Entry),
		store:   st,
		journal: j,
		log:     log,
		clock:   time.Now,
	}
	e.state = st.Load(e.clock())

	e.log.Info("ledger loaded",
		zap.Int("open_positions", len(e.state.Positions)),
		zap.Int("closed_trades", len(e.state.History)),
		zap.Float64("capital", e.state.Capital()))

	return e
}

// Run drives scan cycles at the given interval until ctx is done. The
// first cycle runs immediately.
func (e *Engine) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.RunCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.RunCycle(ctx)
		}
	}
}

// RunCycle performs one sequential scan: month rollover, a management
// pass over every open position, then an entry attempt. No failure in
// the cycle is fatal; anything that goes wrong is logged and retried
// on the next tick.
func (e *Engine) RunCycle(ctx context.Context) {
	now := e.clock()

	e.mu.Lock()
	if e.state.Rollover(now) {
		e.log.Info("month rollover, counters reset",
			zap.String("month", e.state.Counters.CurrentMonth))
		e.saveLocked()
	}
	open := make([]string, 0, len(e.state.Positions))
	for _, p := range e.state.Positions {
		open = append(open, p.Instrument)
	}
	e.mu.Unlock()

	// Quotes are fetched outside the lock; a failed fetch skips that
	// position for this cycle and nothing else.
	quotes := make([]market.Quote, 0, len(open))
	for _, instr := range open {
		q, err := e.gw.Quote(ctx, instr)
		if err != nil {
			e.log.Warn("quote unavailable",
				zap.String("instrument", instr), zap.Error(err))
			continue
		}
		quotes = append(quotes, q)
	}

	e.mu.Lock()
	for _, q := range quotes {
		e.applyQuoteLocked(q, now)
	}
	e.lastCycle = now
	e.mu.Unlock()

	if err := e.attemptEntry(ctx, now); err != nil {
		e.log.Error("entry attempt failed", zap.Error(err))
	}
}

// OnTick reacts to one push-stream price update by running the same
// position-management pass the timer runs. The mutex makes concurrent
// stop checks on the same position impossible.
func (e *Engine) OnTick(tick market.Tick) {
	if tick.LTP <= 0 {
		return
	}
	now := tick.Time
	if now.IsZero() {
		now = e.clock()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.applyQuoteLocked(market.Quote{Symbol: tick.Symbol, LTP: tick.LTP, Time: now}, now)
}

// applyQuoteLocked advances one position with a fresh quote. Callers
// hold the mutex.
func (e *Engine) applyQuoteLocked(q market.Quote, now time.Time) {
	p := e.state.FindOpen(q.Symbol)
	if p == nil || !q.Live() {
		return
	}

	switch p.ApplyQuote(q.LTP, e.cfg.Stops, now) {
	case ledger.StopHit:
		realized := p.RealizedLoss(e.cfg.Stops)
		e.state.Close(p, realized)

		if err := e.journal.RecordTrade(journal.TradeRecord{
			PositionID:   p.ID,
			Instrument:   p.Instrument,
			Quantity:     p.Quantity,
			EntryPremium: p.EntryPremium,
			ExitPremium:  p.ExitPremium,
			OpenTime:     p.EntryTime,
			CloseTime:    p.CloseTime,
			RealizedPL:   realized,
			Reason:       p.CloseReason,
		}); err != nil {
			e.log.Error("journal trade failed", zap.Error(err))
		}
		if err := e.journal.RecordEquity(journal.EquitySnapshot{
			Time:    now,
			Capital: e.state.Capital(),
		}); err != nil {
			e.log.Error("journal equity failed", zap.Error(err))
		}

		e.log.Info("position closed",
			zap.String("instrument", p.Instrument),
			zap.Float64("exit_premium", p.ExitPremium),
			zap.Float64("realized_pl", realized),
			zap.Int("consecutive_losses", e.state.Counters.ConsecutiveLosses),
			zap.Float64("capital", e.state.Capital()))
		e.saveLocked()

	case ledger.StopRaised:
		e.log.Info("stop raised",
			zap.String("instrument", p.Instrument),
			zap.Float64("ltp", q.LTP),
			zap.Float64("stop", p.CurrentStop))
		e.saveLocked()
	}
}

// attemptEntry runs the full acceptance gate and opens a position when
// everything passes. Every rejection path returns nil: a failed
// attempt aborts silently and the next cycle tries again.
func (e *Engine) attemptEntry(ctx context.Context, now time.Time) error {
	e.mu.Lock()
	m := filter.MonthState{
		TradesThisMonth:   e.state.Counters.TradesThisMonth,
		ConsecutiveLosses: e.state.Counters.ConsecutiveLosses,
	}
	openCount := len(e.state.Positions)
	e.mu.Unlock()

	if openCount >= e.cfg.Entry.MaxOpenPositions {
		return nil
	}
	if d := e.gate.CanOpen(m, now); !d.Allowed {
		e.log.Debug("entry gated", zap.Any("violations", d.Violations))
		return nil
	}

	spot, err := e.gw.Spot(ctx, e.cfg.Market.Underlying)
	if err != nil {
		return fmt.Errorf("spot: %w", err)
	}
	if !spot.Live() {
		return nil
	}

	if e.cfg.Entry.Trend.Enabled {
		ok, err := e.trendOK(ctx, spot.LTP)
		if err != nil {
			e.log.Warn("trend gate unavailable, skipping entry", zap.Error(err))
			return nil
		}
		if !ok {
			return nil
		}
	}

	chain, err := e.gw.Chain(ctx, e.cfg.Market.Underlying)
	if err != nil {
		return fmt.Errorf("chain: %w", err)
	}

	typ := market.OptionType(e.cfg.Market.OptionType)
	cand, ok := SelectCandidate(chain, spot.LTP, typ,
		e.cfg.Entry.MinDTE, e.cfg.Market.StrikeStep, e.cfg.Market.StrikeOffset, now)
	if !ok {
		return nil
	}

	q, err := e.gw.Quote(ctx, cand.Row.Symbol)
	if err != nil || !q.Live() {
		return nil
	}
	premium := q.LTP

	// Cheap band rejection before the greeks evaluation.
	if !e.cfg.Entry.Premium.Contains(premium) {
		return nil
	}

	g, gok := greeks.Compute(typ, spot.LTP, cand.Strike, cand.DTE, cand.Row.IV,
		e.cfg.Market.RiskFreeRate, e.cfg.Market.DividendYield)

	if d := e.gate.Check(g, gok, premium, cand.Row.IV, cand.DTE); !d.Allowed {
		e.log.Info("candidate rejected",
			zap.String("instrument", cand.Row.Symbol),
			zap.Any("violations", d.Violations))
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Re-check under the lock: a push tick may have closed a position
	// or moved the counters while we were on the network.
	m = filter.MonthState{
		TradesThisMonth:   e.state.Counters.TradesThisMonth,
		ConsecutiveLosses: e.state.Counters.ConsecutiveLosses,
	}
	if len(e.state.Positions) >= e.cfg.Entry.MaxOpenPositions || !e.gate.CanOpen(m, now).Allowed {
		return nil
	}

	p := &ledger.Position{
		ID:            id.New(),
		Instrument:    cand.Row.Symbol,
		EntryPremium:  premium,
		Quantity:      e.cfg.Market.Quantity(),
		EntryTime:     now,
		CurrentStop:   premium - e.cfg.Stops.InitialStopPoints,
		Status:        ledger.StatusOpen,
		GreeksAtEntry: g,
		IVAtEntry:     cand.Row.IV,
		DTEAtEntry:    cand.DTE,
	}
	e.state.Open(p)

	e.log.Info("position opened",
		zap.String("instrument", p.Instrument),
		zap.Float64("entry_premium", p.EntryPremium),
		zap.Float64("quantity", p.Quantity),
		zap.Float64("stop", p.CurrentStop),
		zap.Float64("dte", p.DTEAtEntry),
		zap.Int("trades_this_month", e.state.Counters.TradesThisMonth))
	e.saveLocked()

	return nil
}

// trendOK samples historical bars and gates the entry on spot being on
// the right side of the EMA for the configured option type.
func (e *Engine) trendOK(ctx context.Context, spot float64) (bool, error) {
	tc := e.cfg.Entry.Trend

	candles, err := e.gw.Candles(ctx, e.cfg.Market.Underlying, tc.Resolution, tc.Period*3)
	if err != nil {
		return false, err
	}
	ema, err := indicators.EMA(candles, tc.Period)
	if err != nil {
		return false, err
	}

	if market.OptionType(e.cfg.Market.OptionType) == market.Put {
		return spot < ema, nil
	}
	return spot > ema, nil
}

// saveLocked persists the ledger. A failed save is logged and retried
// implicitly on the next mutation; in-memory state stays authoritative.
func (e *Engine) saveLocked() {
	if err := e.store.Save(e.state); err != nil {
		e.log.Error("state save failed", zap.Error(err))
	}
}

// Status is a point-in-time view for the health endpoint.
type Status struct {
	LastCycle         time.Time `json:"last_cycle"`
	OpenPositions     int       `json:"open_positions"`
	ClosedTrades      int       `json:"closed_trades"`
	Capital           float64   `json:"capital"`
	TradesThisMonth   int       `json:"trades_this_month"`
	ConsecutiveLosses int       `json:"consecutive_losses"`
}

// OpenInstruments lists the instruments of the currently open
// positions, for tick-stream subscription.
func (e *Engine) OpenInstruments() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]string, 0, len(e.state.Positions))
	for _, p := range e.state.Positions {
		out = append(out, p.Instrument)
	}
	return out
}

func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Status{
		LastCycle:         e.lastCycle,
		OpenPositions:     len(e.state.Positions),
		ClosedTrades:      len(e.state.History),
		Capital:           e.state.Capital(),
		TradesThisMonth:   e.state.Counters.TradesThisMonth,
		ConsecutiveLosses: e.state.Counters.ConsecutiveLosses,
	}
}
