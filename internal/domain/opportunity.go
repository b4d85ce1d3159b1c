package domain

import (
	"fmt"
	"strings"
)

// Kind discriminates the closed set of opportunity variants. Every consumer
// that switches on Kind (scorer, cost estimator, executor) must handle all
// values and treat anything else as an error rather than falling through to
// a generic branch.
type Kind string

const (
	KindYesNoImbalance  Kind = "yes_no_imbalance"
	KindCrossMarket     Kind = "cross_market"
	KindMultiLeg        Kind = "multi_leg"
	KindCorrelated      Kind = "correlated_events"
	KindOrderBookSpread Kind = "order_book_spread"
	KindTimeBased       Kind = "time_based"
)

// Kinds lists every opportunity kind. Used by config validation and tests.
func Kinds() []Kind {
	return []Kind{
		KindYesNoImbalance,
		KindCrossMarket,
		KindMultiLeg,
		KindCorrelated,
		KindOrderBookSpread,
		KindTimeBased,
	}
}

// Opportunity is a candidate arbitrage detected by a single strategy pass.
// Implementations are immutable value objects; the interface is sealed so the
// variant set stays closed.
type Opportunity interface {
	Kind() Kind
	// MarketIDs returns the ids of every participating market.
	MarketIDs() []string
	// ProfitPct is the gross profit estimate as a percentage of cost.
	ProfitPct() float64
	// ExpectedProfitUSD is the absolute profit estimate for the canonical
	// $100 reference position.
	ExpectedProfitUSD() float64
	// Summary is a human-readable one-line description for logs and alerts.
	Summary() string

	sealed()
}

// ImbalanceAction is the direction of a YES/NO imbalance trade.
type ImbalanceAction string

const (
	ImbalanceBuyBoth  ImbalanceAction = "buy_both"
	ImbalanceSellBoth ImbalanceAction = "sell_both"
)

// ImbalanceOpportunity arises when a market's YES and NO prices do not sum
// to 1.0: buy both sides below 1.0, or sell both sides above it.
type ImbalanceOpportunity struct {
	Market           Snapshot
	YesPrice         float64
	NoPrice          float64
	PriceSum         float64
	Imbalance        float64
	Action           ImbalanceAction
	ProfitPercentage float64
	ExpectedProfit   float64
}

func (o ImbalanceOpportunity) Kind() Kind                 { return KindYesNoImbalance }
func (o ImbalanceOpportunity) MarketIDs() []string        { return []string{o.Market.MarketID} }
func (o ImbalanceOpportunity) ProfitPct() float64         { return o.ProfitPercentage }
func (o ImbalanceOpportunity) ExpectedProfitUSD() float64 { return o.ExpectedProfit }
func (o ImbalanceOpportunity) sealed()                    {}

func (o ImbalanceOpportunity) Summary() string {
	return fmt.Sprintf(
		"YES/NO imbalance: %s | YES %.3f NO %.3f sum %.3f | %s | profit %.2f%%",
		truncate(o.Market.Question, 50), o.YesPrice, o.NoPrice, o.PriceSum,
		o.Action, o.ProfitPercentage,
	)
}

// CrossMarketOpportunity is a price discrepancy for the same outcome of the
// same event listed on two markets: buy where the ask is low, sell where the
// bid is high.
type CrossMarketOpportunity struct {
	BuyMarket        Snapshot
	SellMarket       Snapshot
	Outcome          Outcome
	BuyPrice         float64
	SellPrice        float64
	ProfitPercentage float64
	ExpectedProfit   float64
}

func (o CrossMarketOpportunity) Kind() Kind { return KindCrossMarket }
func (o CrossMarketOpportunity) MarketIDs() []string {
	return []string{o.BuyMarket.MarketID, o.SellMarket.MarketID}
}
func (o CrossMarketOpportunity) ProfitPct() float64         { return o.ProfitPercentage }
func (o CrossMarketOpportunity) ExpectedProfitUSD() float64 { return o.ExpectedProfit }
func (o CrossMarketOpportunity) sealed()                    {}

func (o CrossMarketOpportunity) Summary() string {
	return fmt.Sprintf(
		"cross-market: buy %s @ %.3f on %s, sell @ %.3f on %s | profit %.2f%%",
		o.Outcome, o.BuyPrice, truncate(o.BuyMarket.MarketID, 8),
		o.SellPrice, truncate(o.SellMarket.MarketID, 8), o.ProfitPercentage,
	)
}

// LegAction is the trade action of one leg in a multi-leg chain.
type LegAction string

const (
	LegActionBuy  LegAction = "buy"
	LegActionSell LegAction = "sell"
)

// Leg is one buy/sell action within a multi-market combination.
type Leg struct {
	MarketID string
	Action   LegAction
	Outcome  Outcome
	Price    float64
	Question string
}

// MultiLegOpportunity is a combinatorial chain across three or more related
// markets whose combined cost is below the maximum payout.
type MultiLegOpportunity struct {
	Legs             []Leg
	ProfitPercentage float64
	ExpectedProfit   float64
	Complexity       int // number of legs
}

func (o MultiLegOpportunity) Kind() Kind { return KindMultiLeg }
func (o MultiLegOpportunity) MarketIDs() []string {
	ids := make([]string, len(o.Legs))
	for i, leg := range o.Legs {
		ids[i] = leg.MarketID
	}
	return ids
}
func (o MultiLegOpportunity) ProfitPct() float64         { return o.ProfitPercentage }
func (o MultiLegOpportunity) ExpectedProfitUSD() float64 { return o.ExpectedProfit }
func (o MultiLegOpportunity) sealed()                    {}

func (o MultiLegOpportunity) Summary() string {
	ids := make([]string, len(o.Legs))
	for i, leg := range o.Legs {
		ids[i] = truncate(leg.MarketID, 8)
	}
	return fmt.Sprintf(
		"multi-leg (%d legs): %s | profit %.2f%%",
		o.Complexity, strings.Join(ids, ", "), o.ProfitPercentage,
	)
}

// CorrelationType classifies the assumed relationship between two events.
type CorrelationType string

const (
	CorrelationPositive CorrelationType = "positive"
	CorrelationNegative CorrelationType = "negative"
)

// CorrelatedOpportunity is a mispricing between two related events where one
// market's price implies a bound on the other's.
type CorrelatedOpportunity struct {
	Primary            Snapshot
	Correlated         Snapshot
	Correlation        CorrelationType
	PrimaryOutcome     Outcome
	CorrelatedOutcome  Outcome
	ImpliedProbability float64
	ActualProbability  float64
	Mispricing         float64
	ProfitPercentage   float64
	ExpectedProfit     float64
}

func (o CorrelatedOpportunity) Kind() Kind { return KindCorrelated }
func (o CorrelatedOpportunity) MarketIDs() []string {
	return []string{o.Primary.MarketID, o.Correlated.MarketID}
}
func (o CorrelatedOpportunity) ProfitPct() float64         { return o.ProfitPercentage }
func (o CorrelatedOpportunity) ExpectedProfitUSD() float64 { return o.ExpectedProfit }
func (o CorrelatedOpportunity) sealed()                    {}

func (o CorrelatedOpportunity) Summary() string {
	return fmt.Sprintf(
		"correlated events (%s): %s vs %s | mispricing %.3f | profit %.2f%%",
		o.Correlation, truncate(o.Primary.Question, 30),
		truncate(o.Correlated.Question, 30), o.Mispricing, o.ProfitPercentage,
	)
}

// SpreadOpportunity is a wide bid-ask spread suitable for passive market
// making. Profit is probabilistic, not risk-free; the scorer reflects that in
// its confidence and risk components.
type SpreadOpportunity struct {
	Market           Snapshot
	Outcome          Outcome
	BidPrice         float64
	AskPrice         float64
	SpreadPct        float64
	MidPrice         float64
	Liquidity        float64
	ProfitPercentage float64
	ExpectedProfit   float64
}

func (o SpreadOpportunity) Kind() Kind                 { return KindOrderBookSpread }
func (o SpreadOpportunity) MarketIDs() []string        { return []string{o.Market.MarketID} }
func (o SpreadOpportunity) ProfitPct() float64         { return o.ProfitPercentage }
func (o SpreadOpportunity) ExpectedProfitUSD() float64 { return o.ExpectedProfit }
func (o SpreadOpportunity) sealed()                    {}

func (o SpreadOpportunity) Summary() string {
	return fmt.Sprintf(
		"order-book spread: %s on %s | bid %.3f ask %.3f spread %.2f%% | profit $%.2f",
		o.Outcome, truncate(o.Market.Question, 50),
		o.BidPrice, o.AskPrice, o.SpreadPct, o.ExpectedProfit,
	)
}

// TimePattern labels the price behaviour detected by the time-based strategy.
type TimePattern string

const (
	PatternPanicSelling    TimePattern = "panic_selling"
	PatternLastMinute      TimePattern = "last_minute_mispricing"
	PatternVolatilitySpike TimePattern = "volatility_spike"
)

// TimeBasedOpportunity is a near-resolution mispricing: the current price has
// diverged from its rolling historical mean and is expected to revert.
type TimeBasedOpportunity struct {
	Market            Snapshot
	Outcome           Outcome
	CurrentPrice      float64
	HistoricalAvg     float64
	PriceChangePct    float64
	HoursToResolution float64
	VolatilityScore   float64
	Pattern           TimePattern
	ProfitPercentage  float64
	ExpectedProfit    float64
	Confidence        float64 // 0-1
}

func (o TimeBasedOpportunity) Kind() Kind                 { return KindTimeBased }
func (o TimeBasedOpportunity) MarketIDs() []string        { return []string{o.Market.MarketID} }
func (o TimeBasedOpportunity) ProfitPct() float64         { return o.ProfitPercentage }
func (o TimeBasedOpportunity) ExpectedProfitUSD() float64 { return o.ExpectedProfit }
func (o TimeBasedOpportunity) sealed()                    {}

func (o TimeBasedOpportunity) Summary() string {
	return fmt.Sprintf(
		"time-based (%s): %s on %s | price %.3f avg %.3f change %+.2f%% | resolves in %.1fh | profit $%.2f",
		o.Pattern, o.Outcome, truncate(o.Market.Question, 50),
		o.CurrentPrice, o.HistoricalAvg, o.PriceChangePct,
		o.HoursToResolution, o.ExpectedProfit,
	)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
