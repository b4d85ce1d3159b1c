package domain

import "time"

// ScoredOpportunity wraps an Opportunity with its five sub-scores and the
// weighted composite. All scores are in [0,100]; for RiskScore and
// ExecutionDifficulty higher is worse. Created by the scorer and never
// mutated afterwards.
type ScoredOpportunity struct {
	Opportunity            Opportunity
	Score                  float64
	ProfitScore            float64
	CapitalEfficiencyScore float64
	ConfidenceScore        float64
	RiskScore              float64
	ExecutionDifficulty    float64
}

// OpportunityRecord is the flattened, storage-friendly form of a scored
// opportunity used by the append-only history store and the S3 archiver.
type OpportunityRecord struct {
	ID                     string    `json:"id"`
	Kind                   Kind      `json:"kind"`
	MarketIDs              []string  `json:"market_ids"`
	ProfitPct              float64   `json:"profit_pct"`
	ExpectedProfitUSD      float64   `json:"expected_profit_usd"`
	Score                  float64   `json:"score"`
	ProfitScore            float64   `json:"profit_score"`
	CapitalEfficiencyScore float64   `json:"capital_efficiency"`
	ConfidenceScore        float64   `json:"confidence"`
	RiskScore              float64   `json:"risk"`
	ExecutionDifficulty    float64   `json:"execution_difficulty"`
	Detail                 string    `json:"detail"`
	DetectedAt             time.Time `json:"detected_at"`
}

// Record flattens the scored opportunity for persistence.
func (s ScoredOpportunity) Record(id string, detectedAt time.Time) OpportunityRecord {
	return OpportunityRecord{
		ID:                     id,
		Kind:                   s.Opportunity.Kind(),
		MarketIDs:              s.Opportunity.MarketIDs(),
		ProfitPct:              s.Opportunity.ProfitPct(),
		ExpectedProfitUSD:      s.Opportunity.ExpectedProfitUSD(),
		Score:                  s.Score,
		ProfitScore:            s.ProfitScore,
		CapitalEfficiencyScore: s.CapitalEfficiencyScore,
		ConfidenceScore:        s.ConfidenceScore,
		RiskScore:              s.RiskScore,
		ExecutionDifficulty:    s.ExecutionDifficulty,
		Detail:                 s.Opportunity.Summary(),
		DetectedAt:             detectedAt,
	}
}
