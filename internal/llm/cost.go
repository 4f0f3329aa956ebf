package llm

// costPerToken stores per-1K-token pricing for completion models.
// Prices in USD per 1K tokens: [input, output].
var costPerToken = map[string][2]float64{
	// OpenAI completions
	"gpt-3.5-turbo-instruct": {0.0015, 0.002},
	"davinci-002":            {0.002, 0.002},
	"babbage-002":            {0.0004, 0.0004},

	// Anthropic
	"claude-3-haiku-20240307":   {0.00025, 0.00125},
	"claude-3-5-haiku-20241022": {0.0008, 0.004},
	"claude-sonnet-4-20250514":  {0.003, 0.015},
}

// CalculateCost returns 0 for unknown and self-hosted models.
func CalculateCost(model string, inputTokens, outputTokens int) float64 {
	prices, ok := costPerToken[model]
	if !ok {
		return 0
	}
	inputCost := float64(inputTokens) / 1000.0 * prices[0]
	outputCost := float64(outputTokens) / 1000.0 * prices[1]
	return inputCost + outputCost
}
