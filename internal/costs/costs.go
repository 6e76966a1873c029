// Package costs estimates the total cost of taking both sides of a candidate
// trade. All values are percentages of notional so they can be subtracted
// directly from gross profit.
package costs

import "github.com/alanyoungcy/dexmon/internal/domain"

// Config holds the cost-model parameters. Fee percentages derive from each
// record's own fee rate; slippage, gas, and tip come from configuration.
type Config struct {
	// EstimatedSlippagePct is the flat per-comparison slippage estimate used
	// when no trade size is supplied.
	EstimatedSlippagePct float64
	GasCostPct           float64
	TipCostPct           float64
	// MaxSlippagePct caps the liquidity-aware estimate.
	MaxSlippagePct float64
}

// Total returns the itemized cost of buying on buy and selling on sell.
func Total(buy, sell domain.PriceRecord, cfg Config) domain.CostBreakdown {
	return domain.CostBreakdown{
		BuyFeePct:   buy.FeeRate * 100,
		SellFeePct:  sell.FeeRate * 100,
		SlippagePct: cfg.EstimatedSlippagePct,
		GasPct:      cfg.GasCostPct,
		TipPct:      cfg.TipCostPct,
	}
}

// TotalForSize is the liquidity-aware variant: slippage is estimated as trade
// size over the thinner side's liquidity, capped at MaxSlippagePct. It falls
// back to the flat estimate when size or liquidity is unavailable.
func TotalForSize(buy, sell domain.PriceRecord, tradeSize float64, cfg Config) domain.CostBreakdown {
	bd := Total(buy, sell, cfg)

	minLiq := buy.Liquidity
	if sell.Liquidity < minLiq {
		minLiq = sell.Liquidity
	}
	if tradeSize <= 0 || minLiq <= 0 {
		return bd
	}

	slip := tradeSize / minLiq * 100
	if cfg.MaxSlippagePct > 0 && slip > cfg.MaxSlippagePct {
		slip = cfg.MaxSlippagePct
	}
	bd.SlippagePct = slip
	return bd
}

// NetProfitPct subtracts the cost breakdown from gross profit.
func NetProfitPct(grossPct float64, bd domain.CostBreakdown) float64 {
	return grossPct - bd.TotalPct()
}
