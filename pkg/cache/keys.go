package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"github.com/conceptatlas/backend/internal/util"
)

// ConceptRef is the minimal concept shape used for key derivation: a name and
// its known variants.
type ConceptRef struct {
	Entity   string   `json:"entity"`
	Variants []string `json:"variants"`
}

func hashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// EntityKey derives the cache key for an entity extraction over raw text.
// Whitespace differences do not produce distinct keys.
func EntityKey(text string) string {
	return hashString(util.CollapseWhitespace(text))
}

// normalizeConceptList lowercases and trims every name and variant, sorts the
// variants, and sorts the list by entity name so operand order never affects
// the derived key.
func normalizeConceptList(list []ConceptRef) []ConceptRef {
	normalized := make([]ConceptRef, 0, len(list))
	for _, ref := range list {
		variants := make([]string, 0, len(ref.Variants))
		for _, v := range ref.Variants {
			variants = append(variants, util.NormalizeTerm(v))
		}
		sort.Strings(variants)
		normalized = append(normalized, ConceptRef{
			Entity:   util.NormalizeTerm(ref.Entity),
			Variants: variants,
		})
	}
	sort.Slice(normalized, func(i, j int) bool {
		return normalized[i].Entity < normalized[j].Entity
	})
	return normalized
}

// ComparisonKey derives the cache key for a concept-list comparison. The key
// is a pure function of the normalized lists.
func ComparisonKey(list1, list2 []ConceptRef) string {
	combined, err := json.Marshal([][]ConceptRef{
		normalizeConceptList(list1),
		normalizeConceptList(list2),
	})
	if err != nil {
		// []ConceptRef cannot fail to marshal; keep a stable fallback anyway.
		return hashString("comparison")
	}
	return hashString(string(combined))
}

// RelationKey derives the cache key for a relation extraction over a concept
// set and a unit of text. Concept ids are lowercased and sorted before hashing.
func RelationKey(conceptIDs []string, text string) string {
	sorted := make([]string, 0, len(conceptIDs))
	for _, id := range conceptIDs {
		sorted = append(sorted, util.NormalizeTerm(id))
	}
	sort.Strings(sorted)

	return hashString(strings.Join(sorted, ",") + "::" + util.CollapseWhitespace(text))
}
