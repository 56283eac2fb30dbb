// Package dedup collapses near-duplicate entities extracted across
// chunks within a group: exact merges by canonical key, then cosine-
// similarity clustering of the remainder, and rewrites every relation
// and mention to the merged canonical id.
package dedup

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/lex00/hipporag2-go/internal/graphtypes"
)

// corporateSuffixes are stripped from the end of a normalized name
// before comparison, so "Fabrikam Inc." and "Fabrikam Incorporated"
// canonicalize the same way.
var corporateSuffixes = []string{
	" incorporated", " corporation", " corp", " inc", " llc", " ltd",
	" limited", " company", " co", " gmbh", " plc",
}

var punctuationRE = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
var whitespaceRE = regexp.MustCompile(`\s+`)

// CanonicalKey normalizes an entity name for exact-merge grouping: case
// folding, punctuation stripping, corporate-suffix removal, and
// whitespace collapsing. CJK text is left as-is (script-sensitive
// normalization beyond case folding is out of scope; see spec
// Non-goals on multilingual-specific processing) but is never mixed
// with a Latin-normalized key, since isCJK below gates the rest of the
// pipeline.
func CanonicalKey(name string) string {
	if isCJK(name) {
		return strings.TrimSpace(name)
	}

	s := strings.ToLower(name)
	s = punctuationRE.ReplaceAllString(s, " ")
	s = whitespaceRE.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	for _, suf := range corporateSuffixes {
		if strings.HasSuffix(s, suf) {
			s = strings.TrimSpace(strings.TrimSuffix(s, suf))
			break
		}
	}
	return s
}

// isCJK reports whether name contains any CJK-script runes, in which
// case Latin-style punctuation/suffix normalization is skipped.
func isCJK(name string) bool {
	for _, r := range name {
		if unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hiragana, r) ||
			unicode.Is(unicode.Katakana, r) || unicode.Is(unicode.Hangul, r) {
			return true
		}
	}
	return false
}

// candidate is a not-yet-merged entity awaiting clustering, keeping its
// original id so a remap can be built.
type candidate struct {
	origID string
	entity graphtypes.Entity
}

// Result is the deduplicator's output: merged entities plus the
// old-id -> canonical-id remap needed to rewrite relations and mentions.
type Result struct {
	Entities []graphtypes.Entity
	Remap    map[string]string
}

// SimilarityThreshold default, overridable via config.
const DefaultSimilarityThreshold = 0.95

// Dedupe groups entities by canonical key (each group merges outright),
// then merges key groups whose representative embeddings are cosine-
// similar at or above threshold. It is stable under repeated execution:
// identical input always yields identical canonical ids.
func Dedupe(groupID string, entities []graphtypes.Entity, threshold float64) Result {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}

	byKey := map[string][]candidate{}
	var keyOrder []string
	for _, e := range entities {
		key := CanonicalKey(e.Name)
		if _, ok := byKey[key]; !ok {
			keyOrder = append(keyOrder, key)
		}
		byKey[key] = append(byKey[key], candidate{origID: e.ID, entity: e})
	}
	sort.Strings(keyOrder)

	// Key groups whose representatives are similar fold into the first
	// key of their cluster.
	reps := make([]candidate, len(keyOrder))
	for i, key := range keyOrder {
		reps[i] = candidate{origID: key, entity: mergeCluster(groupID, key, byKey[key])}
	}
	keyOrder = nil
	for _, cluster := range clusterBySimilarity(reps, threshold) {
		keyOrder = append(keyOrder, cluster[0].origID)
		for _, rep := range cluster[1:] {
			byKey[cluster[0].origID] = append(byKey[cluster[0].origID], byKey[rep.origID]...)
		}
	}

	result := Result{Remap: map[string]string{}}

	for _, key := range keyOrder {
		cands := byKey[key]
		clusters := [][]candidate{cands}
		for _, cluster := range clusters {
			merged := mergeCluster(groupID, key, cluster)
			result.Entities = append(result.Entities, merged)
			for _, c := range cluster {
				result.Remap[c.origID] = merged.ID
			}
		}
	}

	return result
}

// clusterBySimilarity partitions candidates (one representative per
// canonical key) into clusters by single-linkage cosine similarity: a
// candidate joins the first cluster containing any member within
// threshold.
func clusterBySimilarity(cands []candidate, threshold float64) [][]candidate {
	var clusters [][]candidate
	for _, c := range cands {
		placed := false
		for ci, cluster := range clusters {
			for _, member := range cluster {
				if cosineSim(c.entity.Embedding, member.entity.Embedding) >= threshold {
					clusters[ci] = append(clusters[ci], c)
					placed = true
					break
				}
			}
			if placed {
				break
			}
		}
		if !placed {
			clusters = append(clusters, []candidate{c})
		}
	}
	return clusters
}

// mergeCluster collapses a cluster into one canonical entity: union of
// text_unit_ids/aliases/metadata, longest description, first non-null
// embedding, deterministic id from hash(group_id, canonical_key).
func mergeCluster(groupID, canonicalKey string, cluster []candidate) graphtypes.Entity {
	merged := graphtypes.Entity{
		ID:      graphtypes.EntityID(groupID, canonicalKey),
		GroupID: groupID,
		Metadata: map[string]any{},
	}

	aliasSeen := map[string]bool{}
	textUnitSeen := map[string]bool{}

	for _, c := range cluster {
		e := c.entity
		if merged.Name == "" {
			merged.Name = e.Name
		}
		if merged.Type == "" || merged.Type == "CONCEPT" {
			merged.Type = e.Type
		}
		if len(e.Description) > len(merged.Description) {
			merged.Description = e.Description
		}
		if merged.Embedding == nil && e.Embedding != nil {
			merged.Embedding = e.Embedding
		}
		for _, a := range append(e.Aliases, e.Name) {
			if a != merged.Name && !aliasSeen[a] {
				aliasSeen[a] = true
				merged.Aliases = append(merged.Aliases, a)
			}
		}
		for _, tid := range e.TextUnitIDs {
			if !textUnitSeen[tid] {
				textUnitSeen[tid] = true
				merged.TextUnitIDs = append(merged.TextUnitIDs, tid)
			}
		}
		for k, v := range e.Metadata {
			if _, exists := merged.Metadata[k]; !exists {
				merged.Metadata[k] = v
			}
		}
	}

	sort.Strings(merged.Aliases)
	sort.Strings(merged.TextUnitIDs)
	return merged
}

func cosineSim(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// RemapRelations rewrites relation endpoints through the dedup remap,
// then deduplicates (src, tgt, description) triples. A mention's entity
// endpoint is rewritten the same way and is never dropped.
func RemapRelations(relations []graphtypes.Relationship, remap map[string]string) []graphtypes.Relationship {
	seen := map[string]bool{}
	var out []graphtypes.Relationship
	for _, r := range relations {
		if newSrc, ok := remap[r.SourceID]; ok {
			r.SourceID = newSrc
		}
		if newTgt, ok := remap[r.TargetID]; ok {
			r.TargetID = newTgt
		}
		key := r.SourceID + "\x00" + r.TargetID + "\x00" + r.Description
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

// RemapMentions rewrites mention entity endpoints through the dedup
// remap. Never drops a mention.
func RemapMentions(mentions []graphtypes.Mention, remap map[string]string) []graphtypes.Mention {
	out := make([]graphtypes.Mention, len(mentions))
	for i, m := range mentions {
		if newID, ok := remap[m.EntityID]; ok {
			m.EntityID = newID
		}
		out[i] = m
	}
	return out
}
