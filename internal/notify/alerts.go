package notify

import (
	"fmt"
	"strings"

	"github.com/polyarb/arbot/internal/domain"
)

// Event types emitted by the detection and execution loops. These are the
// values operators list under notify.events to opt in.
const (
	EventOpportunityDetected = "opportunity_detected"
	EventOrderFilled         = "order_filled"
	EventStopLoss            = "stop_loss"
	EventError               = "error"
)

// FormatOpportunity renders a scored opportunity as an alert title and body.
func FormatOpportunity(sc domain.ScoredOpportunity) (title, message string) {
	opp := sc.Opportunity

	title = fmt.Sprintf("Arbitrage: %s +%.2f%%", opp.Kind(), opp.ProfitPct())

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", opp.Summary())
	fmt.Fprintf(&b, "Markets: %s\n", strings.Join(opp.MarketIDs(), ", "))
	fmt.Fprintf(&b, "Expected profit: $%.2f\n", opp.ExpectedProfitUSD())
	fmt.Fprintf(&b, "Score: %.1f (confidence %.0f, risk %.0f)",
		sc.Score, sc.ConfidenceScore, sc.RiskScore)

	return title, b.String()
}

// FormatTrade renders an executed fill as an alert title and body.
func FormatTrade(t domain.Trade) (title, message string) {
	title = fmt.Sprintf("Order filled: %s %s", t.Side, t.MarketID)
	message = fmt.Sprintf("%s %s %.2f @ %.4f (strategy %s)",
		t.Side, t.Outcome, t.Size, t.Price, t.Strategy)
	return title, message
}

// FormatStopLoss renders a stop-loss closure as an alert title and body.
func FormatStopLoss(pos domain.Position) (title, message string) {
	title = fmt.Sprintf("Stop loss: %s", pos.MarketID)
	message = fmt.Sprintf("%s position closed at %.4f (entry %.4f, return %.2f%%)",
		pos.Outcome, pos.CurrentPrice, pos.EntryPrice, pos.ReturnPct())
	return title, message
}
