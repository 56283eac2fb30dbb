// Package ppr is an in-memory, arena-indexed Personalized PageRank
// engine over the heterogeneous entity/passage(/section) graph. Built
// once per group from the graph store and cached for the process
// lifetime; power iteration itself runs synchronously on one thread.
package ppr

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/lex00/hipporag2-go/internal/graphstore"
)

// NodeKind distinguishes the two (optionally three) node classes
// sharing one integer-indexed arena.
type NodeKind int

const (
	KindEntity NodeKind = iota
	KindChunk
	KindSection
)

type node struct {
	kind NodeKind
	id   string // entity id, chunk id, or section id
}

type edge struct {
	to     int
	weight float64
}

// Engine is an immutable, loaded graph ready for repeated PPR runs.
// All fields set by Load are read-only afterward: Run takes no locks.
type Engine struct {
	groupID  string
	nodes    []node
	index    map[string]int // "<kind>:<id>" -> arena index
	adj      [][]edge
	outTotal []float64 // precomputed sum of incident edge weights per node
}

// Options configures graph construction. IncludeSections gates whether
// Section nodes and their edges are built.
type Options struct {
	PassageNodeWeight  float64
	SynonymThreshold   float64
	IncludeSections    bool
	SectionEdgeWeight  float64
	SectionSimThreshold float64
}

// DefaultOptions matches the documented defaults.
var DefaultOptions = Options{
	PassageNodeWeight:   0.05,
	SynonymThreshold:    0.8,
	IncludeSections:     false,
	SectionEdgeWeight:   0.1,
	SectionSimThreshold: 0.5,
}

// Load builds the in-memory graph for one group: all Entity and
// TextChunk nodes (and Section nodes if enabled), plus the weighted
// undirected edges RELATED_TO, MENTIONS, SEMANTICALLY_SIMILAR (and
// IN_SECTION/section-SEMANTICALLY_SIMILAR when sections are included).
// Each undirected pair is canonicalized to (min_idx, max_idx) and
// inserted at most once, so stored directed duplicates never double
// edge weight.
func Load(ctx context.Context, store *graphstore.Store, groupID string, opts Options) (*Engine, error) {
	e := &Engine{groupID: groupID, index: map[string]int{}}

	if err := e.loadNodes(ctx, store, groupID, opts); err != nil {
		return nil, err
	}
	e.adj = make([][]edge, len(e.nodes))

	type rawEdge struct {
		aKind, bKind NodeKind
		aID, bID     string
		weight       float64
	}
	var raws []rawEdge

	relatedTo, err := store.Run(ctx, `
MATCH (a:Entity {group_id: $groupId})-[r:RELATED_TO]->(b:Entity {group_id: $groupId})
RETURN a.id AS a, b.id AS b, coalesce(r.weight, 1.0) AS weight`, map[string]any{"groupId": groupID})
	if err != nil {
		return nil, fmt.Errorf("load RELATED_TO edges: %w", err)
	}
	for _, rec := range relatedTo {
		raws = append(raws, rawEdge{KindEntity, KindEntity, getString(rec, "a"), getString(rec, "b"), getFloat(rec, "weight", 1.0)})
	}

	mentions, err := store.Run(ctx, `
MATCH (c:TextChunk {group_id: $groupId})-[:MENTIONS]->(e:Entity {group_id: $groupId})
RETURN c.id AS c, e.id AS e`, map[string]any{"groupId": groupID})
	if err != nil {
		return nil, fmt.Errorf("load MENTIONS edges: %w", err)
	}
	for _, rec := range mentions {
		raws = append(raws, rawEdge{KindChunk, KindEntity, getString(rec, "c"), getString(rec, "e"), opts.PassageNodeWeight})
	}

	similar, err := store.Run(ctx, `
MATCH (a:Entity {group_id: $groupId})-[r:SEMANTICALLY_SIMILAR]->(b:Entity {group_id: $groupId})
WHERE r.similarity >= $threshold
RETURN a.id AS a, b.id AS b, r.similarity AS similarity`, map[string]any{"groupId": groupID, "threshold": opts.SynonymThreshold})
	if err != nil {
		return nil, fmt.Errorf("load SEMANTICALLY_SIMILAR edges: %w", err)
	}
	for _, rec := range similar {
		raws = append(raws, rawEdge{KindEntity, KindEntity, getString(rec, "a"), getString(rec, "b"), getFloat(rec, "similarity", 0)})
	}

	if opts.IncludeSections {
		inSection, err := store.Run(ctx, `
MATCH (c:TextChunk {group_id: $groupId})-[:IN_SECTION]->(s:Section {group_id: $groupId})
RETURN c.id AS c, s.id AS s`, map[string]any{"groupId": groupID})
		if err != nil {
			return nil, fmt.Errorf("load IN_SECTION edges: %w", err)
		}
		for _, rec := range inSection {
			raws = append(raws, rawEdge{KindChunk, KindSection, getString(rec, "c"), getString(rec, "s"), opts.SectionEdgeWeight})
		}

		sectionSim, err := store.Run(ctx, `
MATCH (a:Section {group_id: $groupId})-[r:SEMANTICALLY_SIMILAR]->(b:Section {group_id: $groupId})
WHERE r.similarity >= $threshold
RETURN a.id AS a, b.id AS b, r.similarity AS similarity`, map[string]any{"groupId": groupID, "threshold": opts.SectionSimThreshold})
		if err != nil {
			return nil, fmt.Errorf("load section SEMANTICALLY_SIMILAR edges: %w", err)
		}
		for _, rec := range sectionSim {
			raws = append(raws, rawEdge{KindSection, KindSection, getString(rec, "a"), getString(rec, "b"), getFloat(rec, "similarity", 0)})
		}
	}

	seen := map[[2]int]bool{}
	for _, r := range raws {
		ai, aok := e.index[arenaKey(r.aKind, r.aID)]
		bi, bok := e.index[arenaKey(r.bKind, r.bID)]
		if !aok || !bok {
			continue
		}
		lo, hi := ai, bi
		if lo > hi {
			lo, hi = hi, lo
		}
		key := [2]int{lo, hi}
		if seen[key] {
			continue
		}
		seen[key] = true
		e.adj[ai] = append(e.adj[ai], edge{to: bi, weight: r.weight})
		e.adj[bi] = append(e.adj[bi], edge{to: ai, weight: r.weight})
	}

	e.outTotal = make([]float64, len(e.nodes))
	for i, edges := range e.adj {
		var total float64
		for _, ed := range edges {
			total += ed.weight
		}
		e.outTotal[i] = total
	}

	return e, nil
}

func (e *Engine) loadNodes(ctx context.Context, store *graphstore.Store, groupID string, opts Options) error {
	entities, err := store.Run(ctx, `MATCH (e:Entity {group_id: $groupId}) RETURN e.id AS id`, map[string]any{"groupId": groupID})
	if err != nil {
		return fmt.Errorf("load entity nodes: %w", err)
	}
	for _, rec := range entities {
		e.addNode(KindEntity, getString(rec, "id"))
	}

	chunks, err := store.Run(ctx, `MATCH (c:TextChunk {group_id: $groupId}) RETURN c.id AS id`, map[string]any{"groupId": groupID})
	if err != nil {
		return fmt.Errorf("load chunk nodes: %w", err)
	}
	for _, rec := range chunks {
		e.addNode(KindChunk, getString(rec, "id"))
	}

	if opts.IncludeSections {
		sections, err := store.Run(ctx, `MATCH (s:Section {group_id: $groupId}) RETURN s.id AS id`, map[string]any{"groupId": groupID})
		if err != nil {
			return fmt.Errorf("load section nodes: %w", err)
		}
		for _, rec := range sections {
			e.addNode(KindSection, getString(rec, "id"))
		}
	}
	return nil
}

func (e *Engine) addNode(kind NodeKind, id string) {
	key := arenaKey(kind, id)
	if _, ok := e.index[key]; ok {
		return
	}
	e.index[key] = len(e.nodes)
	e.nodes = append(e.nodes, node{kind: kind, id: id})
}

func arenaKey(kind NodeKind, id string) string {
	return fmt.Sprintf("%d:%s", kind, id)
}

// Result is the PPR output: descending-sorted passage and entity
// scores.
type Result struct {
	PassageScores []Scored
	EntityScores  []Scored
}

// Scored pairs a node id with its stationary rank.
type Scored struct {
	ID    string
	Score float64
}

// Params controls power iteration.
type Params struct {
	Damping              float64
	MaxIterations        int
	ConvergenceThreshold float64
}

// DefaultParams matches the documented defaults.
var DefaultParams = Params{Damping: 0.5, MaxIterations: 50, ConvergenceThreshold: 1e-6}

// Run computes the stationary PPR distribution seeded by entitySeeds
// and passageSeeds (both node_id -> weight). Returns an empty Result if
// the combined seed mass is zero. Deterministic: a fixed graph, seeds,
// and params always produce the same output.
func (e *Engine) Run(entitySeeds, passageSeeds map[string]float64, params Params) Result {
	if params.Damping <= 0 {
		params = DefaultParams
	}

	n := len(e.nodes)
	p := make([]float64, n)
	var total float64

	for id, w := range entitySeeds {
		if idx, ok := e.index[arenaKey(KindEntity, id)]; ok {
			p[idx] += w
			total += w
		}
	}
	for id, w := range passageSeeds {
		if idx, ok := e.index[arenaKey(KindChunk, id)]; ok {
			p[idx] += w
			total += w
		}
	}

	if total == 0 {
		return Result{}
	}
	for i := range p {
		p[i] /= total
	}

	rank := make([]float64, n)
	copy(rank, p)

	d := params.Damping
	for iter := 0; iter < params.MaxIterations; iter++ {
		next := make([]float64, n)
		for i := range next {
			next[i] = (1 - d) * p[i]
		}
		for j, edges := range e.adj {
			if e.outTotal[j] == 0 {
				continue
			}
			contrib := d * rank[j] / e.outTotal[j]
			for _, ed := range edges {
				next[ed.to] += contrib * ed.weight
			}
		}

		var delta float64
		for i := range next {
			delta += math.Abs(next[i] - rank[i])
		}
		rank = next
		if delta < params.ConvergenceThreshold {
			break
		}
	}

	var result Result
	for i, nd := range e.nodes {
		switch nd.kind {
		case KindChunk:
			result.PassageScores = append(result.PassageScores, Scored{ID: nd.id, Score: rank[i]})
		case KindEntity:
			result.EntityScores = append(result.EntityScores, Scored{ID: nd.id, Score: rank[i]})
		}
	}
	sortDescending(result.PassageScores)
	sortDescending(result.EntityScores)
	return result
}

func sortDescending(s []Scored) {
	sort.SliceStable(s, func(i, j int) bool { return s[i].Score > s[j].Score })
}

func getString(rec recordLike, key string) string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func getFloat(rec recordLike, key string, fallback float64) float64 {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	}
	return fallback
}

type recordLike interface {
	Get(key string) (any, bool)
}
