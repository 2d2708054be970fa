package model

// Intent is the coarse-grained purpose category assigned to a query.
type Intent string

const (
	IntentPropertySearch     Intent = "property_search"
	IntentMarketInfo         Intent = "market_info"
	IntentInvestmentQuestion Intent = "investment_question"
	IntentPolicyQuestion     Intent = "policy_question"
	IntentAgentSupport       Intent = "agent_support"
	IntentUnknown            Intent = "unknown"
)

// Intents lists every recognized intent, used for config validation.
var Intents = []Intent{
	IntentPropertySearch,
	IntentMarketInfo,
	IntentInvestmentQuestion,
	IntentPolicyQuestion,
	IntentAgentSupport,
	IntentUnknown,
}

// Valid reports whether the intent is one of the closed enumeration.
func (i Intent) Valid() bool {
	for _, known := range Intents {
		if i == known {
			return true
		}
	}
	return false
}

// Constraints represents structured conditions extracted from a query.
// Nil fields mean "unconstrained", not zero.
type Constraints struct {
	Location     *string  `json:"location,omitempty"`
	PropertyType *string  `json:"property_type,omitempty"`
	PriceMin     *float64 `json:"price_min,omitempty"`
	PriceMax     *float64 `json:"price_max,omitempty"`
	Bedrooms     *int     `json:"bedrooms,omitempty"`
	Bathrooms    *int     `json:"bathrooms,omitempty"`
	// Residual is the free-text left over after entity extraction,
	// used as the semantic similarity signal.
	Residual string `json:"residual,omitempty"`
}

// Empty reports whether no structured attribute was extracted.
func (c *Constraints) Empty() bool {
	if c == nil {
		return true
	}
	return c.Location == nil && c.PropertyType == nil &&
		c.PriceMin == nil && c.PriceMax == nil &&
		c.Bedrooms == nil && c.Bathrooms == nil
}

// FilterCount returns the number of structured attributes that are set.
// The structured adapter uses it as its query cost gate.
func (c *Constraints) FilterCount() int {
	if c == nil {
		return 0
	}
	count := 0
	if c.Location != nil {
		count++
	}
	if c.PropertyType != nil {
		count++
	}
	if c.PriceMin != nil {
		count++
	}
	if c.PriceMax != nil {
		count++
	}
	if c.Bedrooms != nil {
		count++
	}
	if c.Bathrooms != nil {
		count++
	}
	return count
}

// InterpretResult represents the parsed intent from a natural language query.
type InterpretResult struct {
	Intent      Intent       `json:"intent"`
	Constraints *Constraints `json:"constraints"`
	Confidence  float64      `json:"confidence"`
}
