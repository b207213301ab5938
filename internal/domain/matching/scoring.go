package matching

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"devmatch/internal/domain/profile"

	"github.com/google/uuid"
)

// ScoredCandidate is one ranked suggestion.
type ScoredCandidate struct {
	CandidateID     uuid.UUID `json:"candidateId"`
	Score           float64   `json:"score"`
	Explanation     string    `json:"explanation"`
	SharedSkills    int       `json:"sharedSkills"`
	SharedInterests int       `json:"sharedInterests"`
}

type factor int

const (
	factorSkills factor = iota
	factorInterests
	factorExperience
	factorAvailability
)

type contribution struct {
	factor factor
	value  float64
}

// Score computes the compatibility of candidate with requester. It is pure: the
// same inputs always produce the same output.
func Score(requester, candidate profile.Profile, q Query, w Weights) ScoredCandidate {
	reqSkills := requester.Skills
	if len(q.ProjectSkillIDs) > 0 {
		reqSkills = unionIDs(requester.Skills, q.ProjectSkillIDs)
	}

	sharedSkills, skillScore := jaccardIDs(reqSkills, candidate.Skills)
	sharedInterests, interestScore := jaccardStrings(requester.Interests, candidate.Interests)
	availScore := availability(requester, candidate)

	expKnown := requester.Experience.Known() && candidate.Experience.Known()
	expScore := 0.0
	if expKnown {
		gap := math.Abs(float64(requester.Experience.Rank() - candidate.Experience.Rank()))
		expScore = 1 - gap/profile.MaxRank
	}

	weights := w
	if !expKnown {
		weights = renormalizeWithoutExperience(w)
	}

	parts := []contribution{
		{factorSkills, weights.Skills * skillScore},
		{factorInterests, weights.Interests * interestScore},
		{factorExperience, weights.Experience * expScore},
		{factorAvailability, weights.Availability * availScore},
	}

	total := 0.0
	for _, p := range parts {
		total += p.value
	}

	return ScoredCandidate{
		CandidateID:     candidate.ID,
		Score:           clamp01(total),
		Explanation:     explain(parts, sharedSkills, sharedInterests, requester, candidate),
		SharedSkills:    sharedSkills,
		SharedInterests: sharedInterests,
	}
}

func renormalizeWithoutExperience(w Weights) Weights {
	rest := w.Skills + w.Interests + w.Availability
	if rest <= 0 {
		return Weights{}
	}
	return Weights{
		Skills:       w.Skills / rest,
		Interests:    w.Interests / rest,
		Availability: w.Availability / rest,
	}
}

func jaccardIDs(a, b []uuid.UUID) (int, float64) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0
	}
	set := make(map[uuid.UUID]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	union := len(set)
	shared := 0
	seen := make(map[uuid.UUID]struct{}, len(b))
	for _, id := range b {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := set[id]; ok {
			shared++
		} else {
			union++
		}
	}
	return shared, float64(shared) / float64(union)
}

func jaccardStrings(a, b []string) (int, float64) {
	a = profile.NormalizeInterests(a)
	b = profile.NormalizeInterests(b)
	if len(a) == 0 || len(b) == 0 {
		return 0, 0
	}
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	shared := 0
	for _, s := range b {
		if _, ok := set[s]; ok {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	return shared, float64(shared) / float64(union)
}

// availability compares weekly hours. When both sides set a timezone, sharing
// it counts for half of the factor.
func availability(a, b profile.Profile) float64 {
	h := hoursOverlap(a.HoursPerWeek, b.HoursPerWeek)
	tzA, tzB := strings.TrimSpace(a.Timezone), strings.TrimSpace(b.Timezone)
	if tzA == "" || tzB == "" {
		return h
	}
	tz := 0.0
	if strings.EqualFold(tzA, tzB) {
		tz = 1
	}
	return (h + tz) / 2
}

func hoursOverlap(a, b *int) float64 {
	if a == nil || b == nil {
		return 0
	}
	lo, hi := *a, *b
	if lo > hi {
		lo, hi = hi, lo
	}
	if hi <= 0 || lo < 0 {
		return 0
	}
	return float64(lo) / float64(hi)
}

func unionIDs(a, b []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return profile.UniqueIDs(out)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func explain(parts []contribution, sharedSkills, sharedInterests int, requester, candidate profile.Profile) string {
	ordered := make([]contribution, 0, len(parts))
	for _, p := range parts {
		if p.value > 0 {
			ordered = append(ordered, p)
		}
	}
	if len(ordered) == 0 {
		return "no significant overlap"
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].value != ordered[j].value {
			return ordered[i].value > ordered[j].value
		}
		return ordered[i].factor < ordered[j].factor
	})

	phrases := make([]string, 0, len(ordered))
	for _, p := range ordered {
		switch p.factor {
		case factorSkills:
			phrases = append(phrases, plural(sharedSkills, "shared skill", "shared skills"))
		case factorInterests:
			phrases = append(phrases, plural(sharedInterests, "shared interest", "shared interests"))
		case factorExperience:
			if requester.Experience == candidate.Experience {
				phrases = append(phrases, "same experience level")
			} else {
				phrases = append(phrases, "similar experience level")
			}
		case factorAvailability:
			phrases = append(phrases, "compatible availability")
		}
	}
	return strings.Join(phrases, ", ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
