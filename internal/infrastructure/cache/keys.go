package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/google/uuid"
)

const (
	findPrefix  = "matches:find:"
	scorePrefix = "matches:score:"

	ExpireLockKey = "matches:expire:lock"
)

// FindKey is the key of a cached ranked list for one requester and query.
func FindKey(userID uuid.UUID, query any) string {
	return findPrefix + userID.String() + ":" + Hash(query)
}

// FindPattern matches every cached ranked list of the user.
func FindPattern(userID uuid.UUID) string {
	return findPrefix + userID.String() + ":*"
}

// FindAllPattern matches every cached ranked list. Any of them may hold a
// given user as a candidate.
func FindAllPattern() string {
	return findPrefix + "*"
}

// ScoreKey is order independent because pairwise scores are symmetric.
func ScoreKey(a, b uuid.UUID) string {
	x, y := a.String(), b.String()
	if y < x {
		x, y = y, x
	}
	return scorePrefix + x + ":" + y
}

// ScorePatterns match every cached score involving the user, on either side.
func ScorePatterns(userID uuid.UUID) []string {
	id := userID.String()
	return []string{scorePrefix + id + ":*", scorePrefix + "*:" + id}
}

// Hash fingerprints a JSON-encodable value. Callers normalise it first so
// equivalent queries hash alike.
func Hash(v any) string {
	b, _ := json.Marshal(v)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:16])
}
