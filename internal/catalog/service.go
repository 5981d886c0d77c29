package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/nb-core/internal/infrastructure/logging"
)

// Recorder receives statistics for every completed query.
// Implementations must not block; recording failures are their own concern.
type Recorder interface {
	RecordQuery(ctx context.Context, stats QueryStats)
}

// Deps holds the collaborators of a Service.
type Deps struct {
	Repository Repository
	Recorder   Recorder        // optional
	Logger     *logging.Logger // optional
}

// Service answers recipe queries.
type Service struct {
	repo     Repository
	recorder Recorder
	logger   *logging.Logger
	now      func() time.Time
}

// NewService creates a recipe query service.
func NewService(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		repo:     deps.Repository,
		recorder: deps.Recorder,
		logger:   logger.With("component", "catalog"),
		now:      time.Now,
	}
}

// Query returns every recipe whose ingredients satisfy all filters.
//
// Each filter must be contained, ignoring case, in the name of at least one
// of the recipe's ingredients. No filters returns the whole catalog. The
// result is never nil and holds each recipe once, ordered by ID.
func (s *Service) Query(ctx context.Context, filters []string) ([]Recipe, error) {
	start := s.now()

	recipes, err := s.repo.List(ctx, foldTerms(filters))
	if err != nil {
		return nil, fmt.Errorf("querying recipes: %w", err)
	}

	stats := QueryStats{
		Filters:  len(filters),
		Results:  len(recipes),
		Duration: s.now().Sub(start),
	}
	s.logger.Debug("recipe query",
		"filters", stats.Filters,
		"results", stats.Results,
		"duration_ms", stats.Duration.Milliseconds(),
	)
	if s.recorder != nil {
		s.recorder.RecordQuery(ctx, stats)
	}

	return recipes, nil
}
