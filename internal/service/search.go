package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/wesleyautomate-ship-it/retrieval-engine/internal/config"
	"github.com/wesleyautomate-ship-it/retrieval-engine/internal/metrics"
	"github.com/wesleyautomate-ship-it/retrieval-engine/internal/model"
	"github.com/wesleyautomate-ship-it/retrieval-engine/internal/utils"
)

// SearchLogger records completed searches for offline tuning. Implemented
// by the Postgres repository.
type SearchLogger interface {
	LogSearch(ctx context.Context, searchID, queryText string, intent model.Intent, resultCount int, partial bool, responseTimeMs int64) error
}

// SearchService is the retrieval orchestrator: it owns the interpreter,
// fans the query out to the applicable adapters in parallel, fuses the
// surviving contributions and wraps the whole computation through the
// cache coordinator.
type SearchService struct {
	interpreter *Interpreter
	semantic    RetrievalAdapter
	structured  RetrievalAdapter
	fuser       *Fuser
	cache       *CacheCoordinator
	searchCfg   *config.SearchConfig
	cacheCfg    *config.CacheConfig
	metrics     *metrics.Metrics
	logger      SearchLogger
}

// NewSearchService creates the orchestrator.
func NewSearchService(
	interpreter *Interpreter,
	semantic RetrievalAdapter,
	structured RetrievalAdapter,
	fuser *Fuser,
	cache *CacheCoordinator,
	searchCfg *config.SearchConfig,
	cacheCfg *config.CacheConfig,
	m *metrics.Metrics,
	logger SearchLogger,
) *SearchService {
	return &SearchService{
		interpreter: interpreter,
		semantic:    semantic,
		structured:  structured,
		fuser:       fuser,
		cache:       cache,
		searchCfg:   searchCfg,
		cacheCfg:    cacheCfg,
		metrics:     m,
		logger:      logger,
	}
}

// Search runs the full pipeline: interpret, check the cache, fan out to
// the applicable adapters with per-adapter sub-deadlines, fuse, cache,
// return. On a cache hit no adapter is invoked.
func (s *SearchService) Search(ctx context.Context, req *model.SearchRequest) (*model.RankedResults, error) {
	startTime := time.Now()
	searchID := uuid.NewString()

	limit := req.Limit
	if limit <= 0 {
		limit = s.searchCfg.DefaultLimit
	}
	if limit > s.searchCfg.MaxLimit {
		limit = s.searchCfg.MaxLimit
	}

	interp := s.interpreter.Interpret(model.Query{Text: req.Query, Timestamp: startTime}, req.Session)

	// An empty query carries no signal at all: short-circuit to an empty
	// result set without touching adapters or cache.
	if interp.Intent == model.IntentUnknown && interp.Confidence == 0 && interp.Constraints.Empty() && interp.Constraints.Residual == "" {
		s.metrics.ObserveSearch(string(interp.Intent), "empty", time.Since(startTime))
		return &model.RankedResults{
			SearchID: searchID,
			Items:    []model.FusedResult{},
			Interp:   interp,
			Took:     time.Since(startTime).Milliseconds(),
		}, nil
	}

	// Low-confidence interpretation degrades to unconstrained semantic
	// retrieval over the whole query, never to an error.
	if interp.Confidence < s.searchCfg.ConfidenceFloor {
		interp.Constraints.Residual = utils.NormalizeText(req.Query)
	}

	adapters := s.adaptersFor(interp)
	sources := make([]model.Source, 0, len(adapters))
	for _, a := range adapters {
		sources = append(sources, a.Source())
	}

	key := BuildCacheKey(interp.Intent, req.Query, interp.Constraints, sources)

	ctx, cancel := context.WithTimeout(ctx, s.searchCfg.RequestDeadline)
	defer cancel()

	value, hit, err := s.cache.GetOrCompute(ctx, key, s.cacheCfg.TTLFor(interp.Intent), func(ctx context.Context) (CacheValue, error) {
		return s.retrieveAndFuse(ctx, interp, limit, adapters)
	})
	s.metrics.ObserveCache(hit)
	if err != nil {
		s.metrics.ObserveSearch(string(interp.Intent), "error", time.Since(startTime))
		return nil, err
	}

	took := time.Since(startTime).Milliseconds()

	status := "ok"
	if value.Partial {
		status = "partial"
	}
	s.metrics.ObserveSearch(string(interp.Intent), status, time.Since(startTime))

	if s.logger != nil {
		// Log search (non-blocking).
		go func() {
			logCtx, logCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer logCancel()
			if err := s.logger.LogSearch(logCtx, searchID, req.Query, interp.Intent, len(value.Items), value.Partial, took); err != nil {
				log.Printf("Warning: failed to log search %s: %v", searchID, err)
			}
		}()
	}

	return &model.RankedResults{
		SearchID: searchID,
		Items:    value.Items,
		Partial:  value.Partial,
		Took:     took,
		Interp:   interp,
		CacheHit: hit,
	}, nil
}

// Purge drops cached entries by key prefix. Exposed for upstream
// data-reload notifications.
func (s *SearchService) Purge(prefix string) int {
	return s.cache.Purge(prefix)
}

// adaptersFor selects which adapters apply for an interpretation. Pure
// knowledge questions skip the structured store entirely; everything else
// fans out to both sources.
func (s *SearchService) adaptersFor(interp *model.InterpretResult) []RetrievalAdapter {
	switch interp.Intent {
	case model.IntentPolicyQuestion, model.IntentAgentSupport:
		return []RetrievalAdapter{s.semantic}
	case model.IntentUnknown:
		if interp.Constraints.Empty() {
			return []RetrievalAdapter{s.semantic}
		}
		return []RetrievalAdapter{s.semantic, s.structured}
	default:
		return []RetrievalAdapter{s.semantic, s.structured}
	}
}

type adapterOutcome struct {
	source  model.Source
	results []model.CandidateResult
	err     error
}

// retrieveAndFuse fans out to the given adapters in parallel, joins on all
// of them and fuses whatever succeeded. Fusion never runs on a partial
// snapshot of an in-flight adapter. A failing or timed-out adapter
// contributes nothing; if every adapter fails, the whole retrieval is
// unavailable.
func (s *SearchService) retrieveAndFuse(ctx context.Context, interp *model.InterpretResult, limit int, adapters []RetrievalAdapter) (CacheValue, error) {
	ch := make(chan adapterOutcome, len(adapters))
	for _, adapter := range adapters {
		go func(a RetrievalAdapter) {
			// Each adapter gets its own sub-deadline so one slow source
			// cannot starve the request.
			adapterCtx, cancel := context.WithTimeout(ctx, s.searchCfg.AdapterDeadline)
			defer cancel()

			callStart := time.Now()
			results, err := a.Retrieve(adapterCtx, interp.Constraints, limit)

			outcome := "ok"
			if err != nil {
				outcome = "error"
				if errors.Is(err, context.DeadlineExceeded) {
					outcome = "timeout"
				}
			}
			s.metrics.ObserveAdapter(string(a.Source()), outcome, time.Since(callStart))

			ch <- adapterOutcome{source: a.Source(), results: results, err: err}
		}(adapter)
	}

	var semantic, structured []model.CandidateResult
	failed := 0
	for range adapters {
		outcome := <-ch
		if outcome.err != nil {
			failed++
			log.Printf("Warning: %s adapter failed: %v", outcome.source, outcome.err)
			continue
		}
		switch outcome.source {
		case model.SourceSemantic:
			semantic = outcome.results
		case model.SourceStructured:
			structured = outcome.results
		}
	}

	if failed == len(adapters) {
		return CacheValue{}, ErrRetrievalUnavailable
	}

	fused := s.fuser.Fuse(semantic, structured, interp.Intent)
	return CacheValue{
		Items:   fused,
		Partial: failed > 0,
	}, nil
}
