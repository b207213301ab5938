package matching

import (
	"iter"

	"devmatch/internal/domain/match"
	"devmatch/internal/domain/profile"

	"github.com/google/uuid"
)

// Filter narrows pool to the candidates that satisfy the hard constraints of q.
// The returned sequence is lazy and can be ranged over more than once. Neither
// pool nor existing is modified.
func Filter(pool iter.Seq[profile.Profile], requester profile.Profile, q Query, existing []match.Match, policy FilterPolicy) iter.Seq[profile.Profile] {
	blocked := blockedCounterparts(requester.ID, q.ProjectID, existing, policy)

	required := q.RequiredSkillIDs
	interests := q.Interests

	return func(yield func(profile.Profile) bool) {
		if pool == nil {
			return
		}
		for cand := range pool {
			if cand.ID == requester.ID {
				continue
			}
			if _, ok := blocked[cand.ID]; ok {
				continue
			}
			if !hasAllSkills(cand, required) {
				continue
			}
			if len(interests) > 0 && !sharesInterest(cand, interests) {
				continue
			}
			if q.MinExperience.Known() && !cand.Experience.AtLeast(q.MinExperience) {
				continue
			}
			if q.MinHoursPerWeek != nil && (cand.HoursPerWeek == nil || *cand.HoursPerWeek < *q.MinHoursPerWeek) {
				continue
			}
			if !yield(cand) {
				return
			}
		}
	}
}

// blockedCounterparts collects users that already have a live match with the
// requester in the same project scope, in either direction.
func blockedCounterparts(requesterID uuid.UUID, projectID *uuid.UUID, existing []match.Match, policy FilterPolicy) map[uuid.UUID]struct{} {
	out := make(map[uuid.UUID]struct{})
	for _, m := range existing {
		if !m.Involves(requesterID) || !m.SameScope(projectID) {
			continue
		}
		switch m.Status {
		case match.StatusExpired:
			continue
		case match.StatusRejected:
			if policy.AllowRematchAfterReject {
				continue
			}
		}
		out[m.Counterpart(requesterID)] = struct{}{}
	}
	return out
}

func hasAllSkills(p profile.Profile, required []uuid.UUID) bool {
	if len(required) == 0 {
		return true
	}
	have := make(map[uuid.UUID]struct{}, len(p.Skills))
	for _, s := range p.Skills {
		have[s] = struct{}{}
	}
	for _, r := range required {
		if _, ok := have[r]; !ok {
			return false
		}
	}
	return true
}

func sharesInterest(p profile.Profile, interests []string) bool {
	want := make(map[string]struct{}, len(interests))
	for _, s := range interests {
		want[s] = struct{}{}
	}
	for _, s := range profile.NormalizeInterests(p.Interests) {
		if _, ok := want[s]; ok {
			return true
		}
	}
	return false
}
