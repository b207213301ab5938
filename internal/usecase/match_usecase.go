package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"devmatch/internal/domain"
	"devmatch/internal/domain/match"
	"devmatch/internal/domain/matching"
	"devmatch/internal/domain/user"
	"devmatch/internal/infrastructure/cache"
	"devmatch/internal/infrastructure/gemini"
	"devmatch/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrRecipientNotFound = fmt.Errorf("recipient %w", domain.ErrNotFound)

type CreateMatchInput struct {
	RecipientID uuid.UUID
	ProjectID   *uuid.UUID
	Message     string
}

type RespondInput struct {
	Status  match.Status
	Message string
}

type MatchUsecase interface {
	Create(ctx context.Context, requesterID uuid.UUID, in CreateMatchInput) (match.Match, error)
	Respond(ctx context.Context, matchID, responderID uuid.UUID, in RespondInput) (match.Match, error)
	Get(ctx context.Context, matchID, userID uuid.UUID) (match.Match, error)
	ListReceived(ctx context.Context, userID uuid.UUID) ([]match.Match, error)
	ListSent(ctx context.Context, userID uuid.UUID) ([]match.Match, error)
	ListPending(ctx context.Context, userID uuid.UUID) ([]match.Match, error)
	ExpireStale(ctx context.Context) (int, error)
}

type MatchOptions struct {
	Policy matching.FilterPolicy
	// ExpireAfter is how long a request may stay PENDING.
	ExpireAfter time.Duration
	// LockTTL bounds how long a crashed sweeper can hold the expiry lock.
	LockTTL time.Duration
}

type Matches struct {
	engine    *matching.Engine
	matches   repository.MatchRepository
	profiles  repository.ProfileRepository
	projects  repository.ProjectRepository
	users     user.Repository
	cache     Cache
	notifier  Notifier
	explainer Explainer
	opts      MatchOptions
	logger    *zap.Logger
	now       func() time.Time

	lockWarned atomic.Bool
}

func NewMatchUsecase(
	engine *matching.Engine,
	matches repository.MatchRepository,
	profiles repository.ProfileRepository,
	projects repository.ProjectRepository,
	users user.Repository,
	c Cache,
	notifier Notifier,
	explainer Explainer,
	opts MatchOptions,
	logger *zap.Logger,
) *Matches {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 5 * time.Minute
	}
	return &Matches{
		engine:    engine,
		matches:   matches,
		profiles:  profiles,
		projects:  projects,
		users:     users,
		cache:     c,
		notifier:  notifier,
		explainer: explainer,
		opts:      opts,
		logger:    logger.Named("matches"),
		now:       time.Now,
	}
}

func (u *Matches) Create(ctx context.Context, requesterID uuid.UUID, in CreateMatchInput) (match.Match, error) {
	m, err := match.New(requesterID, in.RecipientID, in.ProjectID, in.Message, u.now())
	if err != nil {
		return match.Match{}, err
	}

	ok, err := u.users.ExistsByID(ctx, m.RecipientID)
	if err != nil {
		return match.Match{}, deadline(err)
	}
	if !ok {
		return match.Match{}, ErrRecipientNotFound
	}

	if m.ProjectID != nil {
		p, err := u.projects.GetByID(ctx, *m.ProjectID)
		if err != nil {
			return match.Match{}, deadline(err)
		}
		if !p.AcceptingMembers() {
			return match.Match{}, fmt.Errorf("%w: project is not accepting members", domain.ErrConflict)
		}
	}

	existing, err := u.matches.ListForUser(ctx, requesterID)
	if err != nil {
		return match.Match{}, deadline(err)
	}
	for _, e := range existing {
		if e.Counterpart(requesterID) != m.RecipientID || !e.SameScope(m.ProjectID) {
			continue
		}
		if blocks(e.Status, u.opts.Policy) {
			return match.Match{}, fmt.Errorf("%w: a %s match already exists with this user", domain.ErrConflict, strings.ToLower(string(e.Status)))
		}
	}

	requester, err := u.profiles.GetProfile(ctx, requesterID)
	if err != nil {
		return match.Match{}, deadline(err)
	}
	recipient, err := u.profiles.GetProfile(ctx, m.RecipientID)
	if err != nil {
		return match.Match{}, deadline(err)
	}
	sc, err := u.engine.ScorePair(requester, recipient)
	if err != nil {
		return match.Match{}, err
	}
	m.Score = sc.Score
	m.Explanation = u.explain(ctx, requesterID, m.RecipientID, sc)

	if err := u.matches.Create(ctx, m); err != nil {
		return match.Match{}, deadline(err)
	}

	u.logger.Info("match requested",
		zap.String("match_id", m.ID.String()),
		zap.String("requester_id", m.RequesterID.String()),
		zap.String("recipient_id", m.RecipientID.String()),
		zap.Float64("score", m.Score),
	)
	InvalidateUser(ctx, u.cache, u.logger, m.RequesterID, m.RecipientID)
	u.notifier.NotifyMatch(m.RecipientID, match.EventRequested, m)
	return m, nil
}

// blocks reports whether an earlier match with the same user and scope rules
// out a new request.
func blocks(s match.Status, p matching.FilterPolicy) bool {
	switch s {
	case match.StatusPending, match.StatusAccepted:
		return true
	case match.StatusRejected:
		return !p.AllowRematchAfterReject
	}
	return false
}

func (u *Matches) explain(ctx context.Context, requesterID, recipientID uuid.UUID, sc matching.ScoredCandidate) string {
	if u.explainer == nil {
		return sc.Explanation
	}
	a, err := u.users.GetUserByID(ctx, requesterID)
	if err != nil {
		return sc.Explanation
	}
	b, err := u.users.GetUserByID(ctx, recipientID)
	if err != nil {
		return sc.Explanation
	}
	return u.explainer.Explain(ctx, party(a), party(b), sc.Score, sc.Explanation)
}

func party(u user.User) gemini.Party {
	skills := make([]string, 0, len(u.Skills))
	for _, s := range u.Skills {
		skills = append(skills, s.Name)
	}
	return gemini.Party{
		Name:       u.FullName,
		Experience: string(u.Experience),
		Skills:     skills,
		Interests:  u.Interests,
	}
}

func (u *Matches) Respond(ctx context.Context, matchID, responderID uuid.UUID, in RespondInput) (match.Match, error) {
	if in.Status != match.StatusAccepted && in.Status != match.StatusRejected {
		return match.Match{}, fmt.Errorf("%w: status must be ACCEPTED or REJECTED", domain.ErrInvalidArgument)
	}

	m, err := u.matches.GetByID(ctx, matchID)
	if err != nil {
		return match.Match{}, deadline(err)
	}
	if m.RecipientID != responderID {
		return match.Match{}, fmt.Errorf("%w: only the recipient can respond", domain.ErrForbidden)
	}
	if err := m.Transition(in.Status, u.now()); err != nil {
		return match.Match{}, err
	}
	m.ResponseMessage = strings.TrimSpace(in.Message)

	if err := u.matches.UpdateStatusIfPending(ctx, m); err != nil {
		return match.Match{}, deadline(err)
	}

	u.logger.Info("match responded",
		zap.String("match_id", m.ID.String()),
		zap.String("status", string(m.Status)),
	)
	InvalidateUser(ctx, u.cache, u.logger, m.RequesterID, m.RecipientID)
	u.notifier.NotifyMatch(m.RequesterID, match.EventResponded, m)
	return m, nil
}

func (u *Matches) Get(ctx context.Context, matchID, userID uuid.UUID) (match.Match, error) {
	m, err := u.matches.GetByID(ctx, matchID)
	if err != nil {
		return match.Match{}, deadline(err)
	}
	if !m.Involves(userID) {
		return match.Match{}, fmt.Errorf("%w: not a participant of this match", domain.ErrForbidden)
	}
	return m, nil
}

func (u *Matches) ListReceived(ctx context.Context, userID uuid.UUID) ([]match.Match, error) {
	out, err := u.matches.ListByRecipient(ctx, userID, nil)
	return out, deadline(err)
}

func (u *Matches) ListSent(ctx context.Context, userID uuid.UUID) ([]match.Match, error) {
	out, err := u.matches.ListByRequester(ctx, userID)
	return out, deadline(err)
}

func (u *Matches) ListPending(ctx context.Context, userID uuid.UUID) ([]match.Match, error) {
	pending := match.StatusPending
	out, err := u.matches.ListByRecipient(ctx, userID, &pending)
	return out, deadline(err)
}

// ExpireStale moves requests older than ExpireAfter to EXPIRED. When redis is
// available only the instance holding the lock sweeps; the others return 0.
// If redis stops answering the sweep runs unlocked.
func (u *Matches) ExpireStale(ctx context.Context) (int, error) {
	if u.opts.ExpireAfter <= 0 {
		return 0, fmt.Errorf("%w: expire window must be positive", domain.ErrInvalidArgument)
	}

	release, ok, err := u.acquireExpiryLock(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		u.logger.Debug("expiry sweep skipped, lock held elsewhere")
		return 0, nil
	}
	defer release()

	now := u.now()
	expired, err := u.matches.ExpirePendingBefore(ctx, now.Add(-u.opts.ExpireAfter), now)
	if err != nil {
		return 0, deadline(err)
	}

	for _, m := range expired {
		InvalidateUser(ctx, u.cache, u.logger, m.RequesterID, m.RecipientID)
		u.notifier.NotifyMatch(m.RequesterID, match.EventExpired, m)
		u.notifier.NotifyMatch(m.RecipientID, match.EventExpired, m)
	}
	if len(expired) > 0 {
		u.logger.Info("expired stale matches", zap.Int("count", len(expired)))
	}
	return len(expired), nil
}

func (u *Matches) acquireExpiryLock(ctx context.Context) (func(), bool, error) {
	if !u.cache.Available() {
		return func() {}, true, nil
	}
	token := uuid.NewString()
	ok, err := u.cache.SetIfNotExists(ctx, cache.ExpireLockKey, token, u.opts.LockTTL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, false, deadline(ctxErr)
		}
		if u.lockWarned.CompareAndSwap(false, true) {
			u.logger.Warn("expiry lock unavailable, sweeping without it", zap.Error(err))
		}
		return func() {}, true, nil
	}
	u.lockWarned.Store(false)
	if !ok {
		return nil, false, nil
	}
	return func() {
		if err := u.cache.Release(context.WithoutCancel(ctx), cache.ExpireLockKey, token); err != nil {
			u.logger.Warn("release expiry lock", zap.Error(err))
		}
	}, true, nil
}

// RunExpiry sweeps every interval until ctx is done.
func (u *Matches) RunExpiry(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := u.ExpireStale(ctx); err != nil && !errors.Is(err, context.Canceled) {
				u.logger.Error("expiry sweep failed", zap.Error(err))
			}
		}
	}
}
