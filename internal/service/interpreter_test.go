package service

import (
	"testing"

	"github.com/wesleyautomate-ship-it/retrieval-engine/internal/model"
)

func TestInterpreter_PropertySearchQuery(t *testing.T) {
	parser := NewInterpreter(NewRuleClassifier())

	result := parser.Interpret(model.Query{Text: "3 bedroom apartment under 2,000,000 in Marina"}, nil)

	if result.Intent != model.IntentPropertySearch {
		t.Fatalf("Expected intent %s, got %s", model.IntentPropertySearch, result.Intent)
	}
	if result.Confidence <= 0.5 {
		t.Errorf("Expected high confidence, got %.2f", result.Confidence)
	}

	c := result.Constraints
	if c.Bedrooms == nil || *c.Bedrooms != 3 {
		t.Errorf("Expected bedrooms=3, got %v", c.Bedrooms)
	}
	if c.PropertyType == nil || *c.PropertyType != "apartment" {
		t.Errorf("Expected property_type=apartment, got %v", c.PropertyType)
	}
	if c.PriceMax == nil || *c.PriceMax != 2000000 {
		t.Errorf("Expected price_max=2000000, got %v", c.PriceMax)
	}
	if c.Location == nil || *c.Location != "Dubai Marina" {
		t.Errorf("Expected location=Dubai Marina, got %v", c.Location)
	}
	if c.PriceMin != nil {
		t.Errorf("Expected no price_min, got %v", *c.PriceMin)
	}
}

func TestInterpreter_IntentClassification(t *testing.T) {
	parser := NewInterpreter(NewRuleClassifier())

	tests := []struct {
		name  string
		query string
		want  model.Intent
	}{
		{"property search", "2 bed villa for rent in Arabian Ranches", model.IntentPropertySearch},
		{"market info", "what is the average price per sqft in Business Bay", model.IntentMarketInfo},
		{"investment", "is off-plan a good investment right now", model.IntentInvestmentQuestion},
		{"policy", "how does the golden visa work for property buyers", model.IntentPolicyQuestion},
		{"agent support", "draft an email to my client about the viewing", model.IntentAgentSupport},
		{"gibberish", "asdf qwerty zxcv", model.IntentUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parser.Interpret(model.Query{Text: tt.query}, nil)
			if result.Intent != tt.want {
				t.Errorf("Interpret(%q) intent = %s, want %s", tt.query, result.Intent, tt.want)
			}
		})
	}
}

func TestInterpreter_EmptyQuery(t *testing.T) {
	parser := NewInterpreter(NewRuleClassifier())

	for _, query := range []string{"", "   ", "\t\n"} {
		result := parser.Interpret(model.Query{Text: query}, nil)

		if result.Intent != model.IntentUnknown {
			t.Errorf("Interpret(%q) intent = %s, want unknown", query, result.Intent)
		}
		if result.Confidence != 0 {
			t.Errorf("Interpret(%q) confidence = %.2f, want 0", query, result.Confidence)
		}
		if !result.Constraints.Empty() {
			t.Errorf("Interpret(%q) expected empty constraints", query)
		}
	}
}

func TestInterpreter_LastPriceMentionWins(t *testing.T) {
	parser := NewInterpreter(NewRuleClassifier())

	result := parser.Interpret(model.Query{Text: "apartment under 2m, actually make that under 1.5m"}, nil)

	if result.Constraints.PriceMax == nil {
		t.Fatal("Expected price_max to be set")
	}
	if *result.Constraints.PriceMax != 1500000 {
		t.Errorf("Expected last-mentioned price 1500000 to win, got %f", *result.Constraints.PriceMax)
	}
}

func TestInterpreter_PriceRange(t *testing.T) {
	parser := NewInterpreter(NewRuleClassifier())

	result := parser.Interpret(model.Query{Text: "villa between 1.5m and 3m in Dubai Hills"}, nil)

	c := result.Constraints
	if c.PriceMin == nil || *c.PriceMin != 1500000 {
		t.Errorf("Expected price_min=1500000, got %v", c.PriceMin)
	}
	if c.PriceMax == nil || *c.PriceMax != 3000000 {
		t.Errorf("Expected price_max=3000000, got %v", c.PriceMax)
	}
	if c.Location == nil || *c.Location != "Dubai Hills Estate" {
		t.Errorf("Expected location=Dubai Hills Estate, got %v", c.Location)
	}
}

func TestInterpreter_SessionCarryOver(t *testing.T) {
	parser := NewInterpreter(NewRuleClassifier())

	location := "Downtown Dubai"
	session := &model.SessionContext{
		LastIntent: model.IntentPropertySearch,
		LastConstraints: &model.Constraints{
			Location: &location,
		},
	}

	// Follow-up turn without a location keeps the prior one.
	result := parser.Interpret(model.Query{Text: "show me 2 bedroom apartments instead"}, session)
	if result.Constraints.Location == nil || *result.Constraints.Location != "Downtown Dubai" {
		t.Errorf("Expected carried-over location Downtown Dubai, got %v", result.Constraints.Location)
	}

	// A location in the current query always wins.
	result = parser.Interpret(model.Query{Text: "2 bedroom apartments in JBR"}, session)
	if result.Constraints.Location == nil || *result.Constraints.Location != "Jumeirah Beach Residence" {
		t.Errorf("Expected current-query location JBR to win, got %v", result.Constraints.Location)
	}
}

func TestInterpreter_ConstraintsPromoteUnknownIntent(t *testing.T) {
	parser := NewInterpreter(NewRuleClassifier())

	// No intent keyword, but structured attributes: still a property search.
	result := parser.Interpret(model.Query{Text: "under 900k in JVC"}, nil)

	if result.Intent != model.IntentPropertySearch {
		t.Errorf("Expected promotion to property_search, got %s", result.Intent)
	}
	if result.Constraints.PriceMax == nil || *result.Constraints.PriceMax != 900000 {
		t.Errorf("Expected price_max=900000, got %v", result.Constraints.PriceMax)
	}
}

func TestInterpreter_ResidualStripsExtractedEntities(t *testing.T) {
	parser := NewInterpreter(NewRuleClassifier())

	result := parser.Interpret(model.Query{Text: "3 bedroom apartment with sea view in Dubai Marina"}, nil)

	if result.Constraints.Residual != "sea view" {
		t.Errorf("Expected residual \"sea view\", got %q", result.Constraints.Residual)
	}
}
