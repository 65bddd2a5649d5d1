package models

import (
	"fmt"
	"strings"
)

// AnalysisMode selects the model tier used for a stock analysis.
type AnalysisMode string

const (
	// ModeFlash uses the fast model with thinking disabled
	ModeFlash AnalysisMode = "flash"
	// ModePro uses the deep-reasoning model with a thinking budget
	ModePro AnalysisMode = "pro"
)

// ParseAnalysisMode validates a mode string from a request or config.
// An empty string defaults to flash.
func ParseAnalysisMode(s string) (AnalysisMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ModeFlash):
		return ModeFlash, nil
	case string(ModePro):
		return ModePro, nil
	default:
		return "", fmt.Errorf("invalid analysis mode: %q", s)
	}
}

// TrendTag is the overall direction call for a stock.
type TrendTag string

const (
	TrendBullish TrendTag = "BULLISH"
	TrendBearish TrendTag = "BEARISH"
	TrendNeutral TrendTag = "NEUTRAL"
)

// TradeAction is a recommended position action.
type TradeAction string

const (
	ActionBuy     TradeAction = "BUY"
	ActionSell    TradeAction = "SELL"
	ActionHold    TradeAction = "HOLD"
	ActionObserve TradeAction = "OBSERVE"
)

// EnginePhase describes the institutional accumulation phase.
type EnginePhase string

const (
	PhaseLayout  EnginePhase = "LAYOUT"
	PhaseTrial   EnginePhase = "TRIAL"
	PhaseRetreat EnginePhase = "RETREAT"
)

// AnalysisSection is one scored dimension of a stock analysis
// (fundamental, technical, chips or news).
type AnalysisSection struct {
	Score   float64  `json:"score"`
	Summary string   `json:"summary"`
	Details []string `json:"details"`
}

// TimeframeStrategy is the institutional engine's call for one horizon.
type TimeframeStrategy struct {
	Action      TradeAction `json:"action"`
	PriceTarget string      `json:"priceTarget"`
	Suggestion  string      `json:"suggestion"`
}

// InstitutionalEngine summarizes institutional money flow for a stock.
type InstitutionalEngine struct {
	Phase              EnginePhase       `json:"phase"`
	LeadingActor       string            `json:"leadingActor"`
	ContinuityScore    float64           `json:"continuityScore"`
	Confidence         float64           `json:"confidence"`
	WarningSignals     []string          `json:"warningSignals"`
	Description        string            `json:"description"`
	ShortTermStrategy  TimeframeStrategy `json:"shortTermStrategy"`
	MediumTermStrategy TimeframeStrategy `json:"mediumTermStrategy"`
	LongTermStrategy   TimeframeStrategy `json:"longTermStrategy"`
}

// TradeSetup is a concrete entry/exit plan for a stock.
type TradeSetup struct {
	Action         TradeAction `json:"action"`
	EntryPriceLow  string      `json:"entryPriceLow"`
	EntryPriceHigh string      `json:"entryPriceHigh"`
	TargetPrice    string      `json:"targetPrice"`
	StopLoss       string      `json:"stopLoss"`
	Probability    float64     `json:"probability"`
	Timeframe      string      `json:"timeframe"`
	RiskReward     string      `json:"riskReward,omitempty"`
}

// Source is a grounding citation attached to a model response.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// AnalysisResult is the full structured analysis for one stock.
type AnalysisResult struct {
	Symbol        string              `json:"symbol"`
	Name          string              `json:"name"`
	CurrentPrice  string              `json:"currentPrice"`
	Change        string              `json:"change"`
	ChangePercent string              `json:"changePercent"`
	OverallScore  float64             `json:"overallScore"`
	Trend         TrendTag            `json:"trend"`
	Fundamental   AnalysisSection     `json:"fundamental"`
	Technical     AnalysisSection     `json:"technical"`
	Chips         AnalysisSection     `json:"chips"`
	News          AnalysisSection     `json:"news"`
	Engine        InstitutionalEngine `json:"institutionalEngine"`
	TradeSetup    TradeSetup          `json:"tradeSetup"`
	WarningFlags  []string            `json:"warningFlags,omitempty"`
	Sources       []Source            `json:"sources,omitempty"`
	Timestamp     string              `json:"timestamp"`
}
