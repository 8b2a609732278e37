package observability

import (
	"sync"
)

// CostCalculator maps provider:model pairs to USD-per-1K-token prices.
type CostCalculator struct {
	mu     sync.RWMutex
	prices map[string]*ModelPrice // key: provider:model
}

// ModelPrice holds the per-direction token prices for one model.
type ModelPrice struct {
	Provider    string
	Model       string
	PriceInput  float64 // USD per 1K tokens
	PriceOutput float64 // USD per 1K tokens
}

// NewCostCalculator creates a calculator seeded with the default price
// table.
func NewCostCalculator() *CostCalculator {
	c := &CostCalculator{
		prices: make(map[string]*ModelPrice),
	}
	c.loadDefaultPrices()
	return c
}

// loadDefaultPrices seeds published list prices. Override from config
// with SetPrice or UpdatePrices; prices drift.
func (c *CostCalculator) loadDefaultPrices() {
	defaults := []ModelPrice{
		// OpenRouter (vendor-prefixed model IDs)
		{Provider: "openrouter", Model: "anthropic/claude-3.5-sonnet", PriceInput: 0.003, PriceOutput: 0.015},
		{Provider: "openrouter", Model: "anthropic/claude-3-opus", PriceInput: 0.015, PriceOutput: 0.075},
		{Provider: "openrouter", Model: "anthropic/claude-3-haiku", PriceInput: 0.00025, PriceOutput: 0.00125},
		{Provider: "openrouter", Model: "openai/gpt-4o", PriceInput: 0.0025, PriceOutput: 0.01},
		{Provider: "openrouter", Model: "openai/gpt-4o-mini", PriceInput: 0.00015, PriceOutput: 0.0006},
		{Provider: "openrouter", Model: "meta-llama/llama-3.1-70b-instruct", PriceInput: 0.00035, PriceOutput: 0.0004},
		{Provider: "openrouter", Model: "google/gemini-flash-1.5", PriceInput: 0.000075, PriceOutput: 0.0003},
		// DeepSeek
		{Provider: "deepseek", Model: "deepseek-chat", PriceInput: 0.00014, PriceOutput: 0.00028},
		{Provider: "deepseek", Model: "deepseek-reasoner", PriceInput: 0.00055, PriceOutput: 0.00219},
		// Grok
		{Provider: "grok", Model: "grok-2-latest", PriceInput: 0.002, PriceOutput: 0.01},
	}

	for _, p := range defaults {
		c.SetPrice(p.Provider, p.Model, p.PriceInput, p.PriceOutput)
	}
}

// SetPrice sets or replaces the price for one model.
func (c *CostCalculator) SetPrice(provider, model string, priceInput, priceOutput float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := provider + ":" + model
	c.prices[key] = &ModelPrice{
		Provider:    provider,
		Model:       model,
		PriceInput:  priceInput,
		PriceOutput: priceOutput,
	}
}

// GetPrice returns the price entry, or nil when the model is unknown.
func (c *CostCalculator) GetPrice(provider, model string) *ModelPrice {
	c.mu.RLock()
	defer c.mu.RUnlock()

	key := provider + ":" + model
	return c.prices[key]
}

// Calculate returns the USD cost of one request. Unknown models cost
// zero rather than erroring, so accounting never blocks a request.
func (c *CostCalculator) Calculate(provider, model string, tokensInput, tokensOutput int) float64 {
	price := c.GetPrice(provider, model)
	if price == nil {
		return 0
	}

	inputCost := float64(tokensInput) / 1000 * price.PriceInput
	outputCost := float64(tokensOutput) / 1000 * price.PriceOutput

	return inputCost + outputCost
}

// UpdatePrices replaces prices in bulk, e.g. from configuration.
func (c *CostCalculator) UpdatePrices(prices []ModelPrice) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range prices {
		key := p.Provider + ":" + p.Model
		c.prices[key] = &ModelPrice{
			Provider:    p.Provider,
			Model:       p.Model,
			PriceInput:  p.PriceInput,
			PriceOutput: p.PriceOutput,
		}
	}
}

// CostSummary aggregates spend across tracked requests.
type CostSummary struct {
	TotalCost       float64
	TotalTokens     int
	TokensInput     int
	TokensOutput    int
	RequestCount    int
	AvgCostPerReq   float64
	AvgTokensPerReq float64
}

// CostTracker accumulates a session-level cost summary.
type CostTracker struct {
	calculator *CostCalculator
	mu         sync.Mutex
	summary    CostSummary
}

// NewCostTracker creates a tracker backed by calculator.
func NewCostTracker(calculator *CostCalculator) *CostTracker {
	return &CostTracker{
		calculator: calculator,
	}
}

// Track prices one request, folds it into the summary and returns its
// cost.
func (t *CostTracker) Track(provider, model string, tokensInput, tokensOutput int) float64 {
	cost := t.calculator.Calculate(provider, model, tokensInput, tokensOutput)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.summary.TotalCost += cost
	t.summary.TokensInput += tokensInput
	t.summary.TokensOutput += tokensOutput
	t.summary.TotalTokens += tokensInput + tokensOutput
	t.summary.RequestCount++

	t.summary.AvgCostPerReq = t.summary.TotalCost / float64(t.summary.RequestCount)
	t.summary.AvgTokensPerReq = float64(t.summary.TotalTokens) / float64(t.summary.RequestCount)

	return cost
}

// Summary returns a copy of the accumulated summary.
func (t *CostTracker) Summary() CostSummary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.summary
}

// Reset clears the accumulated summary.
func (t *CostTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.summary = CostSummary{}
}
