// Package triplestore holds an in-memory, L2-normalized embedding
// matrix of a group's (subject, predicate, object) triples for cosine
// top-K search at query time. Loaded once per group and cached for the
// process lifetime.
package triplestore

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/lex00/hipporag2-go/internal/embedprovider"
	"github.com/lex00/hipporag2-go/internal/graphstore"
	"github.com/lex00/hipporag2-go/internal/graphtypes"
)

// Store is a loaded, immutable snapshot of one group's triples. Once
// Load returns, every field is read-only: concurrent Search calls take
// no locks.
type Store struct {
	groupID string
	triples []graphtypes.Triple
	matrix  [][]float32
}

// Load fetches every Entity-[RELATED_TO]->Entity edge with a non-empty
// description, embeds the triple texts in one batched call, and
// L2-normalizes each row.
func Load(ctx context.Context, store *graphstore.Store, groupID string, embedder embedprovider.Provider) (*Store, error) {
	const query = `
MATCH (s:Entity {group_id: $groupId})-[r:RELATED_TO]->(o:Entity {group_id: $groupId})
WHERE r.description IS NOT NULL AND r.description <> ''
RETURN s.id AS subjectId, s.name AS subjectName, r.description AS predicate,
       o.id AS objectId, o.name AS objectName`

	records, err := store.Run(ctx, query, map[string]any{"groupId": groupID})
	if err != nil {
		return nil, fmt.Errorf("load triples for group %s: %w", groupID, err)
	}

	triples := make([]graphtypes.Triple, 0, len(records))
	for _, rec := range records {
		triples = append(triples, recordToTriple(rec))
	}

	if len(triples) == 0 {
		return &Store{groupID: groupID}, nil
	}

	texts := make([]string, len(triples))
	for i, t := range triples {
		texts[i] = t.TripleText()
	}

	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed triples for group %s: %w", groupID, err)
	}
	if len(vectors) != len(triples) {
		return nil, fmt.Errorf("embedding count mismatch: got %d vectors for %d triples", len(vectors), len(triples))
	}

	matrix := make([][]float32, len(triples))
	for i, v := range vectors {
		matrix[i] = normalize(v)
	}

	return &Store{groupID: groupID, triples: triples, matrix: matrix}, nil
}

func recordToTriple(rec recordLike) graphtypes.Triple {
	return graphtypes.Triple{
		SubjectID:   recordString(rec, "subjectId"),
		SubjectName: recordString(rec, "subjectName"),
		Predicate:   recordString(rec, "predicate"),
		ObjectID:    recordString(rec, "objectId"),
		ObjectName:  recordString(rec, "objectName"),
	}
}

// Scored is a search hit: a triple with its cosine similarity score.
type Scored struct {
	Triple graphtypes.Triple
	Score  float64
}

// Search returns the top-K triples by cosine similarity to the query
// embedding. Ties are broken by insertion order, so results are
// deterministic for a fixed store and query.
func (s *Store) Search(queryEmbedding []float32, topK int) []Scored {
	if len(s.triples) == 0 {
		return nil
	}
	q := normalize(queryEmbedding)

	scored := make([]Scored, len(s.triples))
	for i, t := range s.triples {
		scored[i] = Scored{Triple: t, Score: dot(q, s.matrix[i])}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if topK > 0 && topK < len(scored) {
		scored = scored[:topK]
	}
	return scored
}

// Empty reports whether the store holds no triples, e.g. a fresh group
// with no RELATED_TO edges yet.
func (s *Store) Empty() bool { return len(s.triples) == 0 }

func normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return v
	}
	norm := float32(math.Sqrt(sumSq))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// recordLike is the subset of *neo4j.Record this package needs,
// narrowed so recordString can be unit tested without a driver.
type recordLike interface {
	Get(key string) (any, bool)
}

func recordString(rec recordLike, key string) string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
