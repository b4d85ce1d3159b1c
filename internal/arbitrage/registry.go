package arbitrage

import (
	"fmt"
	"log/slog"

	"github.com/polyarb/arbot/internal/domain"
)

// StrategySetConfig selects and parameterizes the enabled strategies.
type StrategySetConfig struct {
	Enabled             []string
	MinProfitPct        float64
	ImbalanceThreshold  float64
	MaxLegs             int
	MinMispricing       float64
	MinSpreadPct        float64
	TimeWindowHours     float64
	VolatilityThreshold float64
}

// BuildStrategies constructs the enabled strategies in the order they are
// listed. An unrecognized name is a configuration error.
func BuildStrategies(cfg StrategySetConfig, logger *slog.Logger) ([]Strategy, error) {
	strategies := make([]Strategy, 0, len(cfg.Enabled))

	for _, name := range cfg.Enabled {
		switch domain.Kind(name) {
		case domain.KindYesNoImbalance:
			strategies = append(strategies, NewImbalance(ImbalanceConfig{
				MinProfitPct:       cfg.MinProfitPct,
				ImbalanceThreshold: cfg.ImbalanceThreshold,
			}, logger))
		case domain.KindCrossMarket:
			strategies = append(strategies, NewCrossMarket(CrossMarketConfig{
				MinProfitPct: cfg.MinProfitPct,
			}, logger))
		case domain.KindMultiLeg:
			// combinatorial baskets carry more execution risk, so the bar
			// for them is twice the base threshold
			strategies = append(strategies, NewMultiLeg(MultiLegConfig{
				MinProfitPct: cfg.MinProfitPct * 2,
				MaxLegs:      cfg.MaxLegs,
			}, logger))
		case domain.KindCorrelated:
			strategies = append(strategies, NewCorrelated(CorrelatedConfig{
				MinProfitPct:  cfg.MinProfitPct,
				MinMispricing: cfg.MinMispricing,
			}, logger))
		case domain.KindOrderBookSpread:
			strategies = append(strategies, NewSpread(SpreadConfig{
				MinProfitPct: cfg.MinProfitPct,
				MinSpreadPct: cfg.MinSpreadPct,
			}, logger))
		case domain.KindTimeBased:
			strategies = append(strategies, NewTimeBased(TimeBasedConfig{
				MinProfitPct:        cfg.MinProfitPct,
				TimeWindowHours:     cfg.TimeWindowHours,
				VolatilityThreshold: cfg.VolatilityThreshold,
			}, logger))
		default:
			return nil, fmt.Errorf("unknown strategy %q", name)
		}
	}

	logger.Info("strategies initialized", slog.Int("count", len(strategies)))
	return strategies, nil
}
