package gemini

import "google.golang.org/genai"

// Declared response schemas. Passing these with the request makes the
// API enforce JSON output matching the shape, so responses unmarshal
// directly into the model types.

func stockPreviewSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"symbol":        {Type: genai.TypeString, Description: "TWSE/TPEx ticker code"},
			"name":          {Type: genai.TypeString},
			"price":         {Type: genai.TypeString},
			"changePercent": {Type: genai.TypeString},
			"reason":        {Type: genai.TypeString, Description: "One-line selection rationale"},
		},
		Required: []string{"symbol", "name", "price", "changePercent", "reason"},
	}
}

func stockListSchema() *genai.Schema {
	return &genai.Schema{
		Type:  genai.TypeArray,
		Items: stockPreviewSchema(),
	}
}

func sectionSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"score":   {Type: genai.TypeNumber, Description: "0-100"},
			"summary": {Type: genai.TypeString},
			"details": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		},
		Required: []string{"score", "summary", "details"},
	}
}

func timeframeStrategySchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"action":      {Type: genai.TypeString, Enum: []string{"BUY", "SELL", "HOLD", "OBSERVE"}},
			"priceTarget": {Type: genai.TypeString},
			"suggestion":  {Type: genai.TypeString},
		},
		Required: []string{"action", "priceTarget", "suggestion"},
	}
}

// AnalysisSchema is the declared response shape for a full stock analysis.
func AnalysisSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"symbol":        {Type: genai.TypeString},
			"name":          {Type: genai.TypeString},
			"currentPrice":  {Type: genai.TypeString},
			"change":        {Type: genai.TypeString},
			"changePercent": {Type: genai.TypeString},
			"overallScore":  {Type: genai.TypeNumber, Description: "0-100"},
			"trend":         {Type: genai.TypeString, Enum: []string{"BULLISH", "BEARISH", "NEUTRAL"}},
			"fundamental":   sectionSchema(),
			"technical":     sectionSchema(),
			"chips":         sectionSchema(),
			"news":          sectionSchema(),
			"institutionalEngine": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"phase":              {Type: genai.TypeString, Enum: []string{"LAYOUT", "TRIAL", "RETREAT"}},
					"leadingActor":       {Type: genai.TypeString},
					"continuityScore":    {Type: genai.TypeNumber},
					"confidence":         {Type: genai.TypeNumber},
					"warningSignals":     {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
					"description":        {Type: genai.TypeString},
					"shortTermStrategy":  timeframeStrategySchema(),
					"mediumTermStrategy": timeframeStrategySchema(),
					"longTermStrategy":   timeframeStrategySchema(),
				},
				Required: []string{
					"phase", "leadingActor", "continuityScore", "confidence",
					"warningSignals", "description",
					"shortTermStrategy", "mediumTermStrategy", "longTermStrategy",
				},
			},
			"tradeSetup": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"action":         {Type: genai.TypeString, Enum: []string{"BUY", "SELL", "HOLD"}},
					"entryPriceLow":  {Type: genai.TypeString},
					"entryPriceHigh": {Type: genai.TypeString},
					"targetPrice":    {Type: genai.TypeString},
					"stopLoss":       {Type: genai.TypeString},
					"probability":    {Type: genai.TypeNumber},
					"timeframe":      {Type: genai.TypeString},
					"riskReward":     {Type: genai.TypeString},
				},
				Required: []string{
					"action", "entryPriceLow", "entryPriceHigh",
					"targetPrice", "stopLoss", "probability", "timeframe",
				},
			},
			"warningFlags": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		},
		Required: []string{
			"symbol", "name", "currentPrice", "change", "changePercent",
			"overallScore", "trend", "fundamental", "technical", "chips",
			"news", "institutionalEngine", "tradeSetup",
		},
	}
}

// RankedListsSchema is the declared shape for the five dashboard lists.
func RankedListsSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"trending":    stockListSchema(),
			"fundamental": stockListSchema(),
			"technical":   stockListSchema(),
			"chips":       stockListSchema(),
			"dividend":    stockListSchema(),
		},
		Required: []string{"trending", "fundamental", "technical", "chips", "dividend"},
	}
}

// StrategyGroupsSchema is the declared shape for dashboard strategy groups.
func StrategyGroupsSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"strategies": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name":        {Type: genai.TypeString},
						"description": {Type: genai.TypeString},
						"source":      {Type: genai.TypeString, Description: "Methodology or data source behind the theme"},
						"stocks":      stockListSchema(),
					},
					Required: []string{"name", "description", "source", "stocks"},
				},
			},
		},
		Required: []string{"strategies"},
	}
}
