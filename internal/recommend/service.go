package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/wichananm65/visioneer-backend/internal/logger"
	"github.com/wichananm65/visioneer-backend/internal/metrics"
	"github.com/wichananm65/visioneer-backend/internal/product"
)

// Catalog is the read side of the product store.
type Catalog interface {
	List(ctx context.Context, f product.Filter) ([]product.Product, error)
}

type Service struct {
	catalog     Catalog
	recommender Recommender
	policy      Policy
	timeout     time.Duration
	log         *logger.Logger
}

func NewService(catalog Catalog, recommender Recommender, policy Policy, timeout time.Duration, log *logger.Logger) *Service {
	return &Service{
		catalog:     catalog,
		recommender: recommender,
		policy:      policy,
		timeout:     timeout,
		log:         log.With("service", "RecommendService"),
	}
}

// Recommend filters the catalog, asks the recommender once, normalizes its
// reply and ranks the result, topping up from the filtered catalog when the
// model fails or returns fewer than MinResults usable picks. Only a catalog
// failure is returned as an error.
func (s *Service) Recommend(ctx context.Context, req Request) ([]Recommendation, error) {
	catalog, err := s.catalog.List(ctx, product.Filter{Limit: s.policy.CatalogLimit})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	filtered := Filter(catalog, req.Preferences.StyleTags, req.Budget)
	if len(filtered) == 0 {
		s.log.Info("no products match preferences", "catalog", len(catalog))
		metrics.RecommendOutcomes.WithLabelValues("fallback").Inc()
		return []Recommendation{}, nil
	}

	attempt := Attempt(func() ([]Recommendation, error) {
		callCtx := ctx
		if s.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		raw, err := s.recommender.Recommend(callCtx, RoomContext(req), filtered)
		if err != nil {
			return nil, err
		}
		return s.policy.Normalize(raw, filtered, catalog)
	}, func(err error) []Recommendation {
		s.log.Warn("recommender failed, using catalog fallback", "error", err)
		return nil
	})

	recs := attempt.Value
	outcome := "ai"
	if attempt.Degraded {
		outcome = "fallback"
	}
	if len(recs) < s.policy.MinResults {
		mode := FillTotal
		if !attempt.Degraded {
			mode = FillPartial
			outcome = "partial"
			s.log.Info("too few recommendations, filling from catalog", "normalized", len(recs))
		}
		recs = s.policy.ComposeFallback(filtered, recs, s.policy.PageSize, mode)
	}
	metrics.RecommendOutcomes.WithLabelValues(outcome).Inc()

	ranked := s.policy.Rank(recs, s.policy.PageSize)
	s.log.Debug("recommendations ready", "outcome", outcome, "filtered", len(filtered), "returned", len(ranked))
	return ranked, nil
}
