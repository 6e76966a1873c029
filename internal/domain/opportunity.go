package domain

import (
	"fmt"
	"time"
)

// OpportunityType tags the detection strategy that produced an opportunity.
type OpportunityType string

const (
	OpportunitySpatial     OpportunityType = "spatial"
	OpportunityStatistical OpportunityType = "statistical"
	OpportunityTriangular  OpportunityType = "triangular"
)

// CostBreakdown itemizes the estimated costs (all in percent of notional)
// deducted from gross profit.
type CostBreakdown struct {
	BuyFeePct   float64 `json:"buy_fee_pct"`
	SellFeePct  float64 `json:"sell_fee_pct"`
	SlippagePct float64 `json:"slippage_pct"`
	GasPct      float64 `json:"gas_pct"`
	TipPct      float64 `json:"tip_pct"`
}

// TotalPct returns the sum of all cost components.
func (c CostBreakdown) TotalPct() float64 {
	return c.BuyFeePct + c.SellFeePct + c.SlippagePct + c.GasPct + c.TipPct
}

// Opportunity is a validated arbitrage window. It is immutable once emitted;
// the core does not track its later fate.
type Opportunity struct {
	ID              string          `json:"id"`
	Type            OpportunityType `json:"type"`
	Pair            string          `json:"pair"`
	BuyVenue        string          `json:"buy_venue"`
	SellVenue       string          `json:"sell_venue"`
	BuyPrice        float64         `json:"buy_price"`
	SellPrice       float64         `json:"sell_price"`
	GrossProfitPct  float64         `json:"gross_profit_pct"`
	NetProfitPct    float64         `json:"net_profit_pct"`
	RecommendedSize float64         `json:"recommended_size"`
	Confidence      float64         `json:"confidence"` // [0,1]
	DetectedAt      time.Time       `json:"detected_at"`
	Costs           CostBreakdown   `json:"costs"`
}

// Summary returns a one-line human-readable description for logs and alerts.
func (o Opportunity) Summary() string {
	return fmt.Sprintf("%s: %s | buy %s @ %.4f -> sell %s @ %.4f | net %.2f%%",
		o.Type, o.Pair, o.BuyVenue, o.BuyPrice, o.SellVenue, o.SellPrice, o.NetProfitPct)
}

// Advisory is a statistical-breakdown signal (|z| beyond the stop threshold).
// It warns that a tracked spread relationship may have broken down; it is not
// a profit opportunity and is surfaced on its own path.
type Advisory struct {
	Pair       string    `json:"pair"`
	ZScore     float64   `json:"z_score"`
	Spread     float64   `json:"spread"`
	ObservedAt time.Time `json:"observed_at"`
}
