package service

import (
	"sort"

	"github.com/wesleyautomate-ship-it/retrieval-engine/internal/config"
	"github.com/wesleyautomate-ship-it/retrieval-engine/internal/model"
)

// Fuser merges candidate lists from both retrieval sources into a single
// deduplicated, relevance-ranked list.
type Fuser struct {
	cfg *config.RankingConfig
}

// NewFuser creates a fusion engine with the given ranking configuration.
func NewFuser(cfg *config.RankingConfig) *Fuser {
	return &Fuser{cfg: cfg}
}

// fusionGroup accumulates per-source contributions for one entity.
type fusionGroup struct {
	id         int64
	semantic   *float64
	structured *float64
	property   model.PropertySnapshot
	hasStruct  bool
}

// Fuse deduplicates candidates by entity identifier, scores each survivor
// with intent-weighted normalized source scores plus a capped corroboration
// bonus, and returns the top-K in a strict total order: score descending,
// then source count descending, then entity id ascending. The ordering is
// byte-identical across runs for identical inputs.
func (f *Fuser) Fuse(semantic, structured []model.CandidateResult, intent model.Intent) []model.FusedResult {
	semNorm := normalizeScores(semantic)
	structNorm := normalizeScores(structured)

	groups := make(map[int64]*fusionGroup)
	group := func(id int64) *fusionGroup {
		g, ok := groups[id]
		if !ok {
			g = &fusionGroup{id: id}
			groups[id] = g
		}
		return g
	}

	for _, c := range semantic {
		g := group(c.PropertyID)
		score := semNorm[c.PropertyID]
		g.semantic = &score
		if !g.hasStruct {
			g.property = c.Property
		}
	}
	for _, c := range structured {
		g := group(c.PropertyID)
		score := structNorm[c.PropertyID]
		g.structured = &score
		// The relational snapshot is authoritative for display fields.
		g.property = c.Property
		g.hasStruct = true
	}

	weights := f.cfg.WeightsFor(intent)
	bonus := f.cfg.PresenceBonus
	if bonus > f.cfg.PresenceBonusCap {
		bonus = f.cfg.PresenceBonusCap
	}

	fused := make([]model.FusedResult, 0, len(groups))
	for _, g := range groups {
		var score float64
		var sources []model.Source
		if g.semantic != nil {
			score += weights.Semantic * *g.semantic
			sources = append(sources, model.SourceSemantic)
		}
		if g.structured != nil {
			score += weights.Structured * *g.structured
			sources = append(sources, model.SourceStructured)
		}
		if g.semantic != nil && g.structured != nil {
			score += bonus
		}
		fused = append(fused, model.FusedResult{
			PropertyID: g.id,
			Score:      score,
			Sources:    sources,
			Property:   g.property,
		})
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].Score != fused[j].Score {
			return fused[i].Score > fused[j].Score
		}
		if len(fused[i].Sources) != len(fused[j].Sources) {
			return len(fused[i].Sources) > len(fused[j].Sources)
		}
		return fused[i].PropertyID < fused[j].PropertyID
	})

	topK := f.cfg.TopK
	if topK > 0 && len(fused) > topK {
		fused = fused[:topK]
	}
	for i := range fused {
		fused[i].Rank = i + 1
	}

	return fused
}

// normFloor keeps every retrieved candidate above zero after
// normalization: making it into a source's top-K is itself signal, so the
// worst in-list raw score must not erase a candidate's contribution.
const normFloor = 0.5

// normalizeScores maps one source's raw score range onto [normFloor,1] so
// neither source's scale can dominate the weighted sum. A degenerate range
// (single candidate, or all raw scores equal) normalizes to 1.0.
func normalizeScores(candidates []model.CandidateResult) map[int64]float64 {
	norm := make(map[int64]float64, len(candidates))
	if len(candidates) == 0 {
		return norm
	}

	minScore, maxScore := candidates[0].RawScore, candidates[0].RawScore
	for _, c := range candidates[1:] {
		if c.RawScore < minScore {
			minScore = c.RawScore
		}
		if c.RawScore > maxScore {
			maxScore = c.RawScore
		}
	}

	spread := maxScore - minScore
	for _, c := range candidates {
		if spread == 0 {
			norm[c.PropertyID] = 1.0
			continue
		}
		norm[c.PropertyID] = normFloor + (1-normFloor)*(c.RawScore-minScore)/spread
	}
	return norm
}
