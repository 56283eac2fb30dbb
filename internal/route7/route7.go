// Package route7 implements the HippoRAG-2 query path: triple linking,
// dense passage retrieval, and optional sentence search fan out in
// parallel, feed seed construction, run over the in-memory PPR engine,
// and hand the resulting evidence to a synthesizer.
package route7

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/lex00/hipporag2-go/internal/collab"
	"github.com/lex00/hipporag2-go/internal/config"
	"github.com/lex00/hipporag2-go/internal/corerr"
	"github.com/lex00/hipporag2-go/internal/embedprovider"
	"github.com/lex00/hipporag2-go/internal/graphstore"
	"github.com/lex00/hipporag2-go/internal/llmprovider"
	"github.com/lex00/hipporag2-go/internal/ppr"
	"github.com/lex00/hipporag2-go/internal/triplestore"
)

const routeUsed = "route_7_hipporag2"

// Handler answers queries for any number of groups. TripleStore/PPR
// engines are cached per group_id and loaded once, guarded by a
// per-group single-flight lock against duplicate concurrent loads.
type Handler struct {
	store     *graphstore.Store
	embedder  embedprovider.Provider
	llm       llmprovider.Provider
	synth     collab.Synthesizer
	cfg       config.Config

	mu      sync.RWMutex
	engines map[string]*groupEngines
	loading singleflight.Group
}

type groupEngines struct {
	triples *triplestore.Store
	ppr     *ppr.Engine
}

func New(store *graphstore.Store, embedder embedprovider.Provider, llm llmprovider.Provider, synth collab.Synthesizer, cfg config.Config) *Handler {
	return &Handler{
		store:    store,
		embedder: embedder,
		llm:      llm,
		synth:    synth,
		cfg:      cfg,
		engines:  map[string]*groupEngines{},
	}
}

// Citation mirrors the documented route output citation shape.
type Citation = collab.Citation

// Metadata mirrors the documented route output metadata shape. Fields
// are filled as the relevant retrieval step runs; zero values mean the
// step was skipped or produced nothing.
type Metadata struct {
	Architecture          string   `json:"architecture"`
	Damping                float64  `json:"damping,omitempty"`
	TripleTopK             int      `json:"triple_top_k,omitempty"`
	SurvivingTriples       int      `json:"surviving_triples"`
	EntitySeedsCount       int      `json:"entity_seeds_count"`
	PassageSeedsCount      int      `json:"passage_seeds_count"`
	PassageNodeWeight      float64  `json:"passage_node_weight,omitempty"`
	NumPPRPassages         int      `json:"num_ppr_passages"`
	NumPPREntities         int      `json:"num_ppr_entities"`
	TextChunksUsed         int      `json:"text_chunks_used"`
	SentenceEvidenceCount  int      `json:"sentence_evidence_count"`
	TripleSeeds            []string `json:"triple_seeds,omitempty"`
	MatchedCommunities     []string `json:"matched_communities,omitempty"`
	StructuralSections     []string `json:"structural_sections,omitempty"`
	NegativeDetection      bool     `json:"negative_detection,omitempty"`
	DetectionReason        string   `json:"detection_reason,omitempty"`
}

// Result is the route handler's output.
type Result struct {
	Response     string       `json:"response"`
	RouteUsed    string       `json:"route_used"`
	Citations    []Citation   `json:"citations"`
	EvidencePath []string     `json:"evidence_path"`
	Metadata     Metadata     `json:"metadata"`
	Usage        collab.Usage `json:"usage,omitempty"`
}

func negativeResult(reason string) Result {
	return Result{
		Response:     "The requested information was not found in the available documents.",
		RouteUsed:    routeUsed,
		Citations:    []Citation{},
		EvidencePath: []string{},
		Metadata: Metadata{
			Architecture:      "hipporag2",
			NegativeDetection: true,
			DetectionReason:   reason,
		},
	}
}

// Query runs the full route for one group.
func (h *Handler) Query(ctx context.Context, groupID, query, responseType string) (Result, error) {
	eng, err := h.loadGroup(ctx, groupID)
	if err != nil {
		return Result{}, corerr.New(corerr.KindFatal, "route7.loadGroup", err)
	}

	queryEmbedding, err := h.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return Result{}, corerr.New(corerr.KindFatal, "route7.embedQuery", err)
	}

	var (
		survivingTriples []tripleCandidate
		dprHits          []chunkHit
		sentenceHits     []sentenceHit
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		survivingTriples, err = h.linkTriples(gctx, eng, queryEmbedding)
		return err
	})
	g.Go(func() error {
		var err error
		dprHits, err = h.denseRetrieve(gctx, groupID, queryEmbedding)
		return err
	})
	if h.cfg.SentenceSearchEnabled {
		g.Go(func() error {
			var err error
			sentenceHits, err = h.sentenceSearch(gctx, groupID, queryEmbedding)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, corerr.New(corerr.KindTransient, "route7.parallelRetrieval", err)
	}

	entitySeeds, passageSeeds, structuralSections, matchedCommunities, err := h.buildSeeds(ctx, groupID, queryEmbedding, survivingTriples, dprHits)
	if err != nil {
		return Result{}, corerr.New(corerr.KindTransient, "route7.buildSeeds", err)
	}

	if len(entitySeeds) == 0 && len(passageSeeds) == 0 {
		return negativeResult(corerr.ReasonNoSeedsResolved), nil
	}

	pprResult := eng.ppr.Run(entitySeeds, passageSeeds, ppr.Params{
		Damping:              h.cfg.Damping,
		MaxIterations:        h.cfg.PPRMaxIterations,
		ConvergenceThreshold: h.cfg.PPRConvergenceThreshold,
	})

	var rankedChunkIDs []string
	var entityScores []ppr.Scored
	if len(pprResult.PassageScores) > 0 {
		rankedChunkIDs = topChunkIDs(pprResult.PassageScores, h.cfg.PPRPassageTopK)
		entityScores = pprResult.EntityScores
	} else {
		rankedChunkIDs = topDPRChunkIDs(dprHits, h.cfg.PPRPassageTopK)
	}

	chunks, err := h.fetchChunks(ctx, groupID, rankedChunkIDs)
	if err != nil {
		return Result{}, corerr.New(corerr.KindTransient, "route7.fetchChunks", err)
	}
	resortByRank(chunks, rankedChunkIDs)

	evidenceNodes := toEvidenceNodes(entityScores, 20)
	preFetched := toEvidenceChunks(chunks)
	coverage := toCoverageChunks(sentenceHits)
	header := buildStructuralHeader(survivingTriples)

	synthOut, err := h.synth.Synthesize(ctx, collab.SynthesisInput{
		Query:                 query,
		EvidenceNodes:         evidenceNodes,
		PreFetchedChunks:      preFetched,
		CoverageChunks:        coverage,
		GraphStructuralHeader: header,
		ResponseType:          responseType,
	})
	if err != nil {
		return Result{}, corerr.New(corerr.KindTransient, "route7.synthesize", err)
	}

	return Result{
		Response:     synthOut.Response,
		RouteUsed:    routeUsed,
		Citations:    synthOut.Citations,
		EvidencePath: evidencePath(entityScores),
		Metadata: Metadata{
			Architecture:          "hipporag2",
			Damping:               h.cfg.Damping,
			TripleTopK:            h.cfg.TripleTopK,
			SurvivingTriples:      len(survivingTriples),
			EntitySeedsCount:      len(entitySeeds),
			PassageSeedsCount:     len(passageSeeds),
			PassageNodeWeight:     h.cfg.PassageNodeWeight,
			NumPPRPassages:        len(pprResult.PassageScores),
			NumPPREntities:        len(pprResult.EntityScores),
			TextChunksUsed:        synthOut.TextChunksUsed,
			SentenceEvidenceCount: len(sentenceHits),
			TripleSeeds:           tripleTexts(survivingTriples),
			MatchedCommunities:    matchedCommunities,
			StructuralSections:    structuralSections,
		},
		Usage: synthOut.Usage,
	}, nil
}

// loadGroup returns the cached TripleStore/PPREngine for groupID,
// loading both in parallel on first use. Concurrent first-queries for
// the same group share one load via singleflight.
func (h *Handler) loadGroup(ctx context.Context, groupID string) (*groupEngines, error) {
	h.mu.RLock()
	eng, ok := h.engines[groupID]
	h.mu.RUnlock()
	if ok {
		return eng, nil
	}

	v, err, _ := h.loading.Do(groupID, func() (any, error) {
		h.mu.RLock()
		if eng, ok := h.engines[groupID]; ok {
			h.mu.RUnlock()
			return eng, nil
		}
		h.mu.RUnlock()

		var triples *triplestore.Store
		var pprEngine *ppr.Engine
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			triples, err = triplestore.Load(gctx, h.store, groupID, h.embedder)
			return err
		})
		g.Go(func() error {
			var err error
			pprEngine, err = ppr.Load(gctx, h.store, groupID, ppr.Options{
				PassageNodeWeight:   h.cfg.PassageNodeWeight,
				SynonymThreshold:    h.cfg.SynonymThreshold,
				IncludeSections:     h.cfg.IncludeSectionGraph,
				SectionEdgeWeight:   h.cfg.SectionEdgeWeight,
				SectionSimThreshold: h.cfg.SectionSimThreshold,
			})
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		loaded := &groupEngines{triples: triples, ppr: pprEngine}
		h.mu.Lock()
		h.engines[groupID] = loaded
		h.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*groupEngines), nil
}

type tripleCandidate struct {
	triplestore.Scored
}

// linkTriples searches the triple store, then runs the recognition-
// memory filter: a bounded LLM prompt listing numbered candidates,
// parsed for a comma-separated index list or the literal "NONE". On
// LLM failure every candidate passes through (conservative).
func (h *Handler) linkTriples(ctx context.Context, eng *groupEngines, queryEmbedding []float32) ([]tripleCandidate, error) {
	if eng.triples.Empty() {
		return nil, nil
	}
	hits := eng.triples.Search(queryEmbedding, h.cfg.TripleTopK)
	if len(hits) == 0 {
		return nil, nil
	}
	if h.llm == nil {
		return wrapCandidates(hits), nil
	}

	prompt := buildRecognitionPrompt(hits)
	completion, err := h.llm.Complete(ctx, prompt, llmprovider.CompletionOptions{Temperature: 0})
	if err != nil {
		return wrapCandidates(hits), nil
	}

	kept := parseRecognitionIndices(completion.Text, len(hits))
	if kept == nil {
		return wrapCandidates(hits), nil
	}

	var out []tripleCandidate
	for _, i := range kept {
		out = append(out, tripleCandidate{hits[i]})
	}
	return out, nil
}

func wrapCandidates(hits []triplestore.Scored) []tripleCandidate {
	out := make([]tripleCandidate, len(hits))
	for i, h := range hits {
		out[i] = tripleCandidate{h}
	}
	return out
}

func buildRecognitionPrompt(hits []triplestore.Scored) string {
	var sb strings.Builder
	sb.WriteString("Which of these facts are directly relevant to answering the query? ")
	sb.WriteString("Reply with a comma-separated list of numbers, or NONE if none apply.\n\n")
	for i, h := range hits {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, h.Triple.TripleText())
	}
	return sb.String()
}

func parseRecognitionIndices(text string, n int) []int {
	text = strings.TrimSpace(text)
	if strings.EqualFold(text, "none") {
		return []int{}
	}
	var out []int
	for _, field := range strings.Split(text, ",") {
		field = strings.TrimSpace(field)
		var idx int
		if _, err := fmt.Sscanf(field, "%d", &idx); err != nil {
			continue
		}
		if idx >= 1 && idx <= n {
			out = append(out, idx-1)
		}
	}
	return out
}

type chunkHit struct {
	ChunkID string
	Score   float64
}

// denseRetrieve queries the graph store's vector index over
// TextChunk.embedding_v2, filtered by group_id.
func (h *Handler) denseRetrieve(ctx context.Context, groupID string, queryEmbedding []float32) ([]chunkHit, error) {
	records, err := h.store.Run(ctx, `
CALL db.index.vector.queryNodes('chunk_embeddings_v2', $k, $embedding)
YIELD node, score
WHERE node.group_id = $groupId
RETURN node.id AS id, score
ORDER BY score DESC`, map[string]any{
		"k":         h.cfg.DPRTopK,
		"embedding": queryEmbedding,
		"groupId":   groupID,
	})
	if err != nil {
		return nil, fmt.Errorf("dense passage retrieval: %w", err)
	}

	out := make([]chunkHit, 0, len(records))
	for _, rec := range records {
		out = append(out, chunkHit{ChunkID: getString(rec, "id"), Score: getFloat(rec, "score")})
	}
	return out, nil
}

type sentenceHit struct {
	Text          string
	DocumentID    string
	DocumentTitle string
	SectionPath   []string
	PageNumber    int
	Score         float64
}

const sentenceSimilarityThreshold = 0.2

func (h *Handler) sentenceSearch(ctx context.Context, groupID string, queryEmbedding []float32) ([]sentenceHit, error) {
	records, err := h.store.Run(ctx, `
CALL db.index.vector.queryNodes('sentence_embeddings_v2', $k, $embedding)
YIELD node, score
WHERE node.group_id = $groupId AND score >= $threshold
MATCH (node)-[:PART_OF]->(c:TextChunk)-[:FOUND_IN]->(d:Document)
RETURN node.text AS text, node.id AS sentenceId, d.id AS docId, d.title AS docTitle,
       node.section_path AS sectionPath, node.page AS page, score
ORDER BY score DESC`, map[string]any{
		"k":         h.cfg.SentenceTopK,
		"embedding": queryEmbedding,
		"groupId":   groupID,
		"threshold": sentenceSimilarityThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("sentence search: %w", err)
	}

	seen := map[string]bool{}
	var out []sentenceHit
	for _, rec := range records {
		id := getString(rec, "sentenceId")
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, sentenceHit{
			Text:          getString(rec, "text"),
			DocumentID:    getString(rec, "docId"),
			DocumentTitle: getString(rec, "docTitle"),
			SectionPath:   getStringSlice(rec, "sectionPath"),
			PageNumber:    int(getInt(rec, "page")),
			Score:         getFloat(rec, "score"),
		})
	}
	return out, nil
}

// buildSeeds constructs entity and passage seed distributions per the
// documented normalization rules, optionally adding structural
// (section-matched) and community seeds.
func (h *Handler) buildSeeds(ctx context.Context, groupID string, queryEmbedding []float32, triples []tripleCandidate, dprHits []chunkHit) (entitySeeds, passageSeeds map[string]float64, structuralSections, matchedCommunities []string, err error) {
	entitySeeds = map[string]float64{}
	for _, t := range triples {
		entitySeeds[t.Triple.SubjectID] += 1.0
		entitySeeds[t.Triple.ObjectID] += 1.0
	}

	if h.cfg.StructuralSeedsEnabled {
		sections, entities, err2 := h.structuralSeeds(ctx, groupID, queryEmbedding)
		if err2 != nil {
			err = err2
			return
		}
		structuralSections = sections
		for entityID := range entities {
			entitySeeds[entityID] += h.cfg.WStructural
		}
	}

	if h.cfg.CommunitySeedsEnabled {
		communities, entities, err2 := h.communitySeeds(ctx, groupID, queryEmbedding)
		if err2 != nil {
			err = err2
			return
		}
		matchedCommunities = communities
		for entityID := range entities {
			entitySeeds[entityID] += h.cfg.WCommunity
		}
	}

	normalize(entitySeeds)

	passageSeeds = map[string]float64{}
	var dprTotal float64
	for _, hit := range dprHits {
		dprTotal += hit.Score
	}
	if dprTotal > 0 {
		for _, hit := range dprHits {
			passageSeeds[hit.ChunkID] = (hit.Score / dprTotal) * h.cfg.PassageNodeWeight
		}
	}

	return
}

func normalize(seeds map[string]float64) {
	var total float64
	for _, w := range seeds {
		total += w
	}
	if total == 0 {
		return
	}
	for k, w := range seeds {
		seeds[k] = w / total
	}
}

func (h *Handler) structuralSeeds(ctx context.Context, groupID string, queryEmbedding []float32) ([]string, map[string]bool, error) {
	records, err := h.store.Run(ctx, `
CALL db.index.vector.queryNodes('section_embeddings', 5, $embedding)
YIELD node, score
WHERE node.group_id = $groupId
MATCH (node)<-[:HAS_HUB_ENTITY]-(s:Section) WHERE s.id = node.id
OPTIONAL MATCH (node)-[:HAS_HUB_ENTITY]->(e:Entity)
RETURN node.id AS sectionId, collect(DISTINCT e.id) AS entityIds`,
		map[string]any{"embedding": queryEmbedding, "groupId": groupID})
	if err != nil {
		return nil, nil, fmt.Errorf("structural seeds: %w", err)
	}

	var sections []string
	entities := map[string]bool{}
	for _, rec := range records {
		sections = append(sections, getString(rec, "sectionId"))
		for _, id := range getStringSlice(rec, "entityIds") {
			entities[id] = true
		}
	}
	return sections, entities, nil
}

func (h *Handler) communitySeeds(ctx context.Context, groupID string, queryEmbedding []float32) ([]string, map[string]bool, error) {
	records, err := h.store.Run(ctx, `
MATCH (c:Community {group_id: $groupId})
WHERE c.embedding IS NOT NULL
RETURN c.id AS id, c.entity_ids AS entityIds
ORDER BY c.rank DESC LIMIT 5`, map[string]any{"groupId": groupID})
	if err != nil {
		return nil, nil, fmt.Errorf("community seeds: %w", err)
	}

	var communities []string
	entities := map[string]bool{}
	for _, rec := range records {
		communities = append(communities, getString(rec, "id"))
		for _, id := range getStringSlice(rec, "entityIds") {
			entities[id] = true
		}
	}
	return communities, entities, nil
}

type fetchedChunk struct {
	ID            string
	Text          string
	ChunkIndex    int
	DocumentID    string
	DocumentTitle string
	SectionTitle  string
	SectionID     string
}

func (h *Handler) fetchChunks(ctx context.Context, groupID string, chunkIDs []string) ([]fetchedChunk, error) {
	if len(chunkIDs) == 0 {
		return nil, nil
	}
	records, err := h.store.Run(ctx, `
MATCH (c:TextChunk {group_id: $groupId})-[:FOUND_IN]->(d:Document)
WHERE c.id IN $chunkIds
OPTIONAL MATCH (c)-[:IN_SECTION]->(s:Section)
RETURN c.id AS id, c.text AS text, c.chunk_index AS chunkIndex,
       d.id AS docId, d.title AS docTitle, s.title AS sectionTitle, s.id AS sectionId`,
		map[string]any{"groupId": groupID, "chunkIds": chunkIDs})
	if err != nil {
		return nil, err
	}

	out := make([]fetchedChunk, 0, len(records))
	for _, rec := range records {
		out = append(out, fetchedChunk{
			ID:            getString(rec, "id"),
			Text:          getString(rec, "text"),
			ChunkIndex:    int(getInt(rec, "chunkIndex")),
			DocumentID:    getString(rec, "docId"),
			DocumentTitle: getString(rec, "docTitle"),
			SectionTitle:  getString(rec, "sectionTitle"),
			SectionID:     getString(rec, "sectionId"),
		})
	}
	return out, nil
}

// resortByRank re-sorts fetched chunks into PPR/DPR rank order, since
// the graph fetch above does not guarantee return order.
func resortByRank(chunks []fetchedChunk, rankedIDs []string) {
	rank := map[string]int{}
	for i, id := range rankedIDs {
		rank[id] = i
	}
	sort.SliceStable(chunks, func(i, j int) bool {
		return rank[chunks[i].ID] < rank[chunks[j].ID]
	})
}

func topChunkIDs(scores []ppr.Scored, topK int) []string {
	if topK > 0 && topK < len(scores) {
		scores = scores[:topK]
	}
	out := make([]string, len(scores))
	for i, s := range scores {
		out[i] = s.ID
	}
	return out
}

func topDPRChunkIDs(hits []chunkHit, topK int) []string {
	if topK > 0 && topK < len(hits) {
		hits = hits[:topK]
	}
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.ChunkID
	}
	return out
}

func toEvidenceNodes(scores []ppr.Scored, limit int) []collab.EvidenceNode {
	if limit > 0 && limit < len(scores) {
		scores = scores[:limit]
	}
	out := make([]collab.EvidenceNode, len(scores))
	for i, s := range scores {
		out[i] = collab.EvidenceNode{Name: s.ID, Score: s.Score}
	}
	return out
}

func evidencePath(scores []ppr.Scored) []string {
	out := make([]string, len(scores))
	for i, s := range scores {
		out[i] = s.ID
	}
	return out
}

func toEvidenceChunks(chunks []fetchedChunk) []collab.EvidenceChunk {
	out := make([]collab.EvidenceChunk, len(chunks))
	for i, c := range chunks {
		out[i] = collab.EvidenceChunk{
			ID:     c.ID,
			Source: c.DocumentTitle,
			Text:   c.Text,
			Metadata: map[string]any{
				"document_id": c.DocumentID,
				"chunk_index": c.ChunkIndex,
				"section":     c.SectionTitle,
			},
			EntityScore: 1.0,
		}
	}
	return out
}

func toCoverageChunks(hits []sentenceHit) []collab.CoverageChunk {
	out := make([]collab.CoverageChunk, len(hits))
	for i, h := range hits {
		out[i] = collab.CoverageChunk{
			Text:          h.Text,
			DocumentTitle: h.DocumentTitle,
			DocumentID:    h.DocumentID,
			SectionPath:   h.SectionPath,
			PageNumber:    h.PageNumber,
			EntityScore:   1.0,
		}
	}
	return out
}

func buildStructuralHeader(triples []tripleCandidate) string {
	if len(triples) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, t := range triples {
		fmt.Fprintf(&sb, "- %s → %s → %s\n", t.Triple.SubjectName, t.Triple.Predicate, t.Triple.ObjectName)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func tripleTexts(triples []tripleCandidate) []string {
	out := make([]string, len(triples))
	for i, t := range triples {
		out[i] = t.Triple.TripleText()
	}
	return out
}

type recordLike interface {
	Get(key string) (any, bool)
}

func getString(rec recordLike, key string) string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func getStringSlice(rec recordLike, key string) []string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func getFloat(rec recordLike, key string) float64 {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	}
	return 0
}

func getInt(rec recordLike, key string) int64 {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return 0
	}
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}
