package service

import (
	"regexp"
	"sort"
	"strings"

	"github.com/wesleyautomate-ship-it/retrieval-engine/internal/model"
	"github.com/wesleyautomate-ship-it/retrieval-engine/internal/utils"
)

// Classifier assigns an intent to raw query text. The rule-table
// implementation below can be swapped for a model-backed one without
// touching the orchestrator.
type Classifier interface {
	Classify(text string) (model.Intent, float64)
}

// amount is the shared sub-expression for a money amount.
const amountExpr = `((?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d+)?\s*(?:k|m|mn|million|thousand)?)`

// Pre-compiled extraction patterns.
var (
	priceMaxPattern  = regexp.MustCompile(`(?i)(?:under|below|less than|max(?:imum)?|up to|within|budget(?: of| is)?|no more than)\s+(?:aed\s*)?` + amountExpr)
	priceMinPattern  = regexp.MustCompile(`(?i)(?:over|above|more than|at least|min(?:imum)?|starting(?: at| from)?|from)\s+(?:aed\s*)?` + amountExpr)
	priceBetween     = regexp.MustCompile(`(?i)between\s+(?:aed\s*)?` + amountExpr + `\s+and\s+(?:aed\s*)?` + amountExpr)
	bedroomsPattern  = regexp.MustCompile(`(?i)\b(\d+)[\s-]*(?:br|beds?|bedrooms?)\b`)
	bathroomsPattern = regexp.MustCompile(`(?i)\b(\d+)[\s-]*(?:ba|baths?|bathrooms?)\b`)
)

// intentRule is one row of the prioritized intent rule table. Rules are
// checked in order; the first match wins.
type intentRule struct {
	intent     model.Intent
	pattern    *regexp.Regexp
	confidence float64
}

// RuleClassifier implements rule-based intent matching over a prioritized,
// explicit rule table.
type RuleClassifier struct {
	rules []intentRule
}

// NewRuleClassifier creates the default rule table. More specific intents
// come before the broad property_search catch-all.
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{
		rules: []intentRule{
			{
				intent:     model.IntentPolicyQuestion,
				pattern:    regexp.MustCompile(`(?i)\b(visas?|golden visa|laws?|legal|regulations?|taxes|tax|fees?|rera|dld|escrow|title deed|ownership|freehold|leasehold|service charges?|eviction|tenancy contract)\b`),
				confidence: 0.85,
			},
			{
				intent:     model.IntentInvestmentQuestion,
				pattern:    regexp.MustCompile(`(?i)\b(roi|yields?|invest(?:ment|ing|or)?s?|returns?|capital appreciation|rental income|off-?plan|payment plans?|portfolio|cash flow)\b`),
				confidence: 0.8,
			},
			{
				intent:     model.IntentMarketInfo,
				pattern:    regexp.MustCompile(`(?i)\b(market|trends?|average price|price per sq(?:ft|uare foot)|transactions?|forecasts?|appreciat\w+|supply|demand|inventory)\b`),
				confidence: 0.8,
			},
			{
				intent:     model.IntentAgentSupport,
				pattern:    regexp.MustCompile(`(?i)\b(brochure|cma|comparative market analysis|follow[ -]?up|listing presentation|my (?:client|lead|buyer|seller)s?|open house|viewing schedule|draft (?:an? )?(?:email|message|listing))\b`),
				confidence: 0.75,
			},
			{
				intent:     model.IntentPropertySearch,
				pattern:    regexp.MustCompile(`(?i)\b(apartments?|flats?|villas?|townhouses?|penthouses?|studios?|duplex(?:es)?|bedrooms?|beds?|buy|rent|sale|propert(?:y|ies)|homes?|houses?|listings?)\b`),
				confidence: 0.9,
			},
		},
	}
}

// Classify returns the first matching intent from the rule table.
func (c *RuleClassifier) Classify(text string) (model.Intent, float64) {
	for _, rule := range c.rules {
		if rule.pattern.MatchString(text) {
			return rule.intent, rule.confidence
		}
	}
	return model.IntentUnknown, 0
}

// Interpreter turns raw query text plus session context into an intent and
// structured constraints. Pure function over its inputs; no network calls.
type Interpreter struct {
	classifier Classifier
}

// NewInterpreter creates an interpreter with the given classifier.
func NewInterpreter(classifier Classifier) *Interpreter {
	return &Interpreter{classifier: classifier}
}

// Interpret extracts the intent and constraints from a query.
func (p *Interpreter) Interpret(query model.Query, session *model.SessionContext) *model.InterpretResult {
	text := strings.TrimSpace(query.Text)
	if text == "" {
		return &model.InterpretResult{
			Intent:      model.IntentUnknown,
			Constraints: &model.Constraints{},
			Confidence:  0,
		}
	}

	constraints, residual := p.extract(text)
	constraints.Residual = residual

	intent, confidence := p.classifier.Classify(text)

	// A query with structured attributes but no intent keywords is still
	// a property search ("under 2m in Marina").
	if intent == model.IntentUnknown && !constraints.Empty() {
		intent = model.IntentPropertySearch
		confidence = 0.6
	}

	if intent == model.IntentPropertySearch {
		p.carryOver(constraints, session)
	}

	return &model.InterpretResult{
		Intent:      intent,
		Constraints: constraints,
		Confidence:  confidence,
	}
}

// carryOver fills constraint gaps from the previous turn. Values from the
// current query always win over carried-over ones.
func (p *Interpreter) carryOver(constraints *model.Constraints, session *model.SessionContext) {
	if session == nil || session.LastConstraints == nil {
		return
	}
	prior := session.LastConstraints
	if constraints.Location == nil && prior.Location != nil {
		constraints.Location = prior.Location
	}
	if constraints.PropertyType == nil && prior.PropertyType != nil {
		constraints.PropertyType = prior.PropertyType
	}
}

// span marks a matched region of the query that is consumed by extraction
// and removed from the free-text residual.
type span struct {
	start, end int
}

// priceEvent is one price mention in query order. Later mentions overwrite
// earlier ones (documented tie-break: last-mentioned value wins).
type priceEvent struct {
	pos  int
	min  *float64
	max  *float64
}

func (p *Interpreter) extract(text string) (*model.Constraints, string) {
	constraints := &model.Constraints{}
	var spans []span

	// Price bounds, last mention wins.
	var events []priceEvent
	for _, m := range priceBetween.FindAllStringSubmatchIndex(text, -1) {
		low, okLow := utils.ParseAmount(text[m[2]:m[3]])
		high, okHigh := utils.ParseAmount(text[m[4]:m[5]])
		if !okLow || !okHigh {
			continue
		}
		if low > high {
			low, high = high, low
		}
		events = append(events, priceEvent{pos: m[0], min: &low, max: &high})
		spans = append(spans, span{m[0], m[1]})
	}
	for _, m := range priceMaxPattern.FindAllStringSubmatchIndex(text, -1) {
		if covered(spans, m[0]) {
			continue
		}
		if value, ok := utils.ParseAmount(text[m[2]:m[3]]); ok {
			events = append(events, priceEvent{pos: m[0], max: &value})
			spans = append(spans, span{m[0], m[1]})
		}
	}
	for _, m := range priceMinPattern.FindAllStringSubmatchIndex(text, -1) {
		if covered(spans, m[0]) {
			continue
		}
		if value, ok := utils.ParseAmount(text[m[2]:m[3]]); ok {
			events = append(events, priceEvent{pos: m[0], min: &value})
			spans = append(spans, span{m[0], m[1]})
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].pos < events[j].pos })
	for _, e := range events {
		if e.min != nil {
			constraints.PriceMin = e.min
		}
		if e.max != nil {
			constraints.PriceMax = e.max
		}
	}

	// Bedroom / bathroom counts.
	if m := bedroomsPattern.FindStringSubmatchIndex(text); m != nil {
		if count, ok := utils.ParseCount(text[m[2]:m[3]]); ok {
			constraints.Bedrooms = &count
			spans = append(spans, span{m[0], m[1]})
		}
	}
	if m := bathroomsPattern.FindStringSubmatchIndex(text); m != nil {
		if count, ok := utils.ParseCount(text[m[2]:m[3]]); ok {
			constraints.Bathrooms = &count
			spans = append(spans, span{m[0], m[1]})
		}
	}

	// Property type via synonym table.
	for _, syn := range propertyTypeSynonyms {
		if m := syn.Pattern.FindStringIndex(text); m != nil {
			canonical := syn.Canonical
			constraints.PropertyType = &canonical
			spans = append(spans, span{m[0], m[1]})
			break
		}
	}

	// Location via gazetteer, longest alias first.
	for _, loc := range locationPatterns {
		if m := loc.Pattern.FindStringIndex(text); m != nil && !covered(spans, m[0]) {
			canonical := loc.Canonical
			constraints.Location = &canonical
			spans = append(spans, span{m[0], m[1]})
			break
		}
	}

	return constraints, buildResidual(text, spans)
}

// covered reports whether pos falls inside an already-consumed span.
func covered(spans []span, pos int) bool {
	for _, s := range spans {
		if pos >= s.start && pos < s.end {
			return true
		}
	}
	return false
}

// buildResidual removes consumed spans from the query and strips filler
// words; what remains is the semantic similarity signal.
func buildResidual(text string, spans []span) string {
	if len(spans) == 0 {
		return stripStopwords(strings.TrimSpace(text))
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	var b strings.Builder
	cursor := 0
	for _, s := range spans {
		if s.start > cursor {
			b.WriteString(text[cursor:s.start])
			b.WriteByte(' ')
		}
		if s.end > cursor {
			cursor = s.end
		}
	}
	if cursor < len(text) {
		b.WriteString(text[cursor:])
	}

	return stripStopwords(strings.Join(strings.Fields(b.String()), " "))
}
