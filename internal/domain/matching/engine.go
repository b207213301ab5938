package matching

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"runtime"
	"slices"

	"devmatch/internal/domain"
	"devmatch/internal/domain/match"
	"devmatch/internal/domain/profile"
	"devmatch/internal/pkg/workerpool"

	"go.uber.org/zap"
)

// Engine filters, scores and ranks candidates for a requester.
type Engine struct {
	weights Weights
	policy  FilterPolicy
	workers int
	logger  *zap.Logger
}

func NewEngine(weights Weights, policy FilterPolicy, workers int, logger *zap.Logger) (*Engine, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{weights: weights, policy: policy, workers: workers, logger: logger}, nil
}

func (e *Engine) Weights() Weights {
	return e.weights
}

// ScorePair scores candidate against requester without a query context.
func (e *Engine) ScorePair(requester, candidate profile.Profile) (ScoredCandidate, error) {
	if err := requester.Validate(); err != nil {
		return ScoredCandidate{}, err
	}
	if err := candidate.Validate(); err != nil {
		return ScoredCandidate{}, err
	}
	return Score(requester, candidate, Query{RequesterID: requester.ID}, e.weights), nil
}

// Rank runs the full pipeline. Candidates whose record is malformed are logged
// and skipped. Scoring fans out over a worker pool and ranking starts only after
// every candidate has been scored.
func (e *Engine) Rank(ctx context.Context, requester profile.Profile, pool iter.Seq[profile.Profile], existing []match.Match, q Query) ([]ScoredCandidate, error) {
	q, err := q.Normalize()
	if err != nil {
		return nil, err
	}
	if err := requester.Validate(); err != nil {
		return nil, err
	}

	candidates := slices.Collect(Filter(pool, requester, q, existing, e.policy))

	results, err := workerpool.Map(ctx, e.workers, candidates, func(_ context.Context, cand profile.Profile) (ScoredCandidate, error) {
		if err := cand.Validate(); err != nil {
			return ScoredCandidate{CandidateID: cand.ID}, err
		}
		return Score(requester, cand, q, e.weights), nil
	})
	if err != nil {
		return nil, contextError(err)
	}

	scored := make([]ScoredCandidate, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			e.logger.Warn("skipping candidate",
				zap.String("requester_id", requester.ID.String()),
				zap.String("candidate_id", r.Value.CandidateID.String()),
				zap.Error(r.Err),
			)
			continue
		}
		if r.Value.Score < q.MinScore {
			continue
		}
		scored = append(scored, r.Value)
	}

	return Rank(scored, q.Limit)
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: scoring did not finish before the deadline", domain.ErrTimeout)
	}
	return err
}
