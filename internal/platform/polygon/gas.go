// Package polygon provides Polygon network access for gas price estimation.
package polygon

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/polyarb/arbot/internal/domain"
)

const gweiPerWei = 1e9

// rpcClient is the slice of ethclient the gas source needs; narrowed for
// testing.
type rpcClient interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

// GasSource implements domain.GasPriceSource against a Polygon JSON-RPC
// endpoint. When no endpoint is configured, or a query fails, it falls back
// to a fixed gwei value so cost estimation never blocks a detection pass.
type GasSource struct {
	client       rpcClient
	fallbackGwei float64
	logger       *slog.Logger
}

// NewGasSource dials the given RPC URL. An empty URL yields a source that
// always quotes the fallback.
func NewGasSource(rpcURL string, fallbackGwei float64, logger *slog.Logger) (*GasSource, error) {
	gs := &GasSource{
		fallbackGwei: fallbackGwei,
		logger:       logger.With(slog.String("component", "gas_source")),
	}

	if rpcURL == "" {
		return gs, nil
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("polygon: dial %s: %w", rpcURL, err)
	}
	gs.client = client
	return gs, nil
}

// GasPriceGwei returns the suggested gas price in gwei, or the fallback when
// the RPC is unavailable.
func (gs *GasSource) GasPriceGwei(ctx context.Context) (float64, error) {
	if gs.client == nil {
		return gs.fallbackGwei, nil
	}

	wei, err := gs.client.SuggestGasPrice(ctx)
	if err != nil {
		gs.logger.Warn("gas price query failed, using fallback",
			slog.String("error", err.Error()),
			slog.Float64("fallback_gwei", gs.fallbackGwei))
		return gs.fallbackGwei, nil
	}

	gwei, _ := new(big.Float).Quo(
		new(big.Float).SetInt(wei),
		big.NewFloat(gweiPerWei),
	).Float64()

	if gwei <= 0 {
		return gs.fallbackGwei, nil
	}
	return gwei, nil
}

// Compile-time interface check.
var _ domain.GasPriceSource = (*GasSource)(nil)
