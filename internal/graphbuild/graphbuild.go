// Package graphbuild persists chunks, entities, relations, and the
// section hierarchy for one group, then derives the edges and node
// properties retrieval depends on: foundation shortcuts, connectivity
// edges, semantic entity links, communities, and PageRank.
package graphbuild

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/lex00/hipporag2-go/internal/embedprovider"
	"github.com/lex00/hipporag2-go/internal/gds"
	"github.com/lex00/hipporag2-go/internal/graphstore"
	"github.com/lex00/hipporag2-go/internal/graphtypes"
	"github.com/lex00/hipporag2-go/internal/llmprovider"
)

// Config tunes the derived-output thresholds, mirroring the documented
// defaults.
type Config struct {
	SectionSimThreshold   float64
	SectionEdgesPerCap    int
	EntitySimThreshold    float64
	MaxCommunityLevels    int
	CommunityGamma        float64
	CommunityTheta        float64
	CommunityTolerance    float64
	PageRankDamping       float64
	PageRankMaxIterations int
}

// DefaultConfig matches the documented thresholds.
var DefaultConfig = Config{
	SectionSimThreshold:   0.43,
	SectionEdgesPerCap:    5,
	EntitySimThreshold:    0.95,
	MaxCommunityLevels:    3,
	CommunityGamma:        1.0,
	CommunityTheta:        0.01,
	CommunityTolerance:    0.0001,
	PageRankDamping:       0.85,
	PageRankMaxIterations: 20,
}

// Synthesizer issues the structured community-summary prompt. It is
// the collab.Synthesizer's sibling here: graphbuild only needs a
// completion call, not the full route handoff contract.
type Synthesizer interface {
	Complete(ctx context.Context, prompt string, opts llmprovider.CompletionOptions) (llmprovider.Completion, error)
}

// Builder runs the indexing-time graph derivation steps for one group.
type Builder struct {
	store    *graphstore.Store
	embedder embedprovider.Provider
	llm      Synthesizer
	runner   *gds.Runner
	cfg      Config
}

func New(store *graphstore.Store, embedder embedprovider.Provider, llm Synthesizer, cfg Config) *Builder {
	if cfg.SectionSimThreshold == 0 {
		cfg = DefaultConfig
	}
	return &Builder{store: store, embedder: embedder, llm: llm, runner: gds.NewRunner(store), cfg: cfg}
}

// Stats reports what each derivation step produced, so a failed step
// can be recorded in the run's stats without failing the whole build.
type Stats struct {
	ChunksUpserted        int
	SectionsCreated       int
	SectionSimilarityEdges int
	EntitiesUpserted      int
	RelationsUpserted     int
	SimilarToEdges        int
	SharesEntityEdges     int
	CommunitiesCreated    int
	Skipped               []string
}

// Build runs every derivation step in order for one indexing pass.
// A failed document/chunk upsert or entity/relation upsert aborts the
// build with an error; every other step is best-effort: its failure is
// recorded in Stats.Skipped and the run continues.
func (b *Builder) Build(ctx context.Context, groupID string, docs []graphtypes.Document, chunks []graphtypes.TextChunk, entities []graphtypes.Entity, relations []graphtypes.Relationship, mentions []graphtypes.Mention) (*Stats, error) {
	stats := &Stats{}

	if err := b.upsertDocumentsAndChunks(ctx, groupID, docs, chunks); err != nil {
		return stats, fmt.Errorf("upsert documents/chunks: %w", err)
	}
	stats.ChunksUpserted = len(chunks)

	sections, err := b.buildSectionGraph(ctx, groupID, chunks)
	if err != nil {
		stats.Skipped = append(stats.Skipped, "section_graph: "+err.Error())
	} else {
		stats.SectionsCreated = len(sections)
		if err := b.embedSections(ctx, sections); err != nil {
			stats.Skipped = append(stats.Skipped, "section_embeddings: "+err.Error())
		}
		if n, err := b.linkCrossDocumentSections(ctx, groupID, sections); err != nil {
			stats.Skipped = append(stats.Skipped, "section_similarity: "+err.Error())
		} else {
			stats.SectionSimilarityEdges = n
		}
	}

	if err := b.upsertEntitiesAndRelations(ctx, groupID, entities, relations, mentions); err != nil {
		return stats, fmt.Errorf("upsert entities/relations: %w", err)
	}
	stats.EntitiesUpserted = len(entities)
	stats.RelationsUpserted = len(relations)

	if err := b.computeEntityImportance(ctx, groupID); err != nil {
		stats.Skipped = append(stats.Skipped, "entity_importance: "+err.Error())
	}

	if err := b.buildFoundationEdges(ctx, groupID); err != nil {
		stats.Skipped = append(stats.Skipped, "foundation_edges: "+err.Error())
	}

	if n, err := b.buildSharesEntityEdges(ctx, groupID); err != nil {
		stats.Skipped = append(stats.Skipped, "shares_entity: "+err.Error())
	} else {
		stats.SharesEntityEdges = n
	}

	if n, err := b.buildSimilarToEdges(ctx, groupID, entities); err != nil {
		stats.Skipped = append(stats.Skipped, "similar_to: "+err.Error())
	} else {
		stats.SimilarToEdges = n
	}

	if n, err := b.detectCommunities(ctx, groupID); err != nil {
		stats.Skipped = append(stats.Skipped, "community_detection: "+err.Error())
	} else {
		stats.CommunitiesCreated = n
		if err := b.summarizeCommunities(ctx, groupID); err != nil {
			stats.Skipped = append(stats.Skipped, "community_summaries: "+err.Error())
		}
	}

	if err := b.computePageRank(ctx, groupID); err != nil {
		stats.Skipped = append(stats.Skipped, "pagerank: "+err.Error())
	}

	return stats, nil
}

// step 1: upsertDocumentsAndChunks

func (b *Builder) upsertDocumentsAndChunks(ctx context.Context, groupID string, docs []graphtypes.Document, chunks []graphtypes.TextChunk) error {
	for _, d := range docs {
		_, err := b.store.Run(ctx, `
MERGE (d:Document {id: $id})
SET d.group_id = $groupId, d.title = $title, d.source = $source`,
			map[string]any{"id": d.ID, "groupId": groupID, "title": d.Title, "source": d.Source})
		if err != nil {
			return err
		}
	}

	texts := make([]string, 0, len(chunks))
	needsEmbed := make([]int, 0, len(chunks))
	for i, c := range chunks {
		if len(c.EmbeddingV2) == 0 {
			texts = append(texts, c.Text)
			needsEmbed = append(needsEmbed, i)
		}
	}
	if len(texts) > 0 && b.embedder != nil {
		vecs, err := b.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed chunks: %w", err)
		}
		for i, idx := range needsEmbed {
			chunks[idx].EmbeddingV2 = vecs[i]
		}
	}

	for _, c := range chunks {
		_, err := b.store.Run(ctx, `
MERGE (c:TextChunk {id: $id})
SET c.group_id = $groupId, c.document_id = $docId, c.chunk_index = $chunkIndex,
    c.text = $text, c.embedding_v2 = $embedding
MERGE (d:Document {id: $docId})
MERGE (c)-[:FOUND_IN]->(d)`,
			map[string]any{
				"id": c.ID, "groupId": groupID, "docId": c.DocumentID,
				"chunkIndex": c.ChunkIndex, "text": c.Text, "embedding": c.EmbeddingV2,
			})
		if err != nil {
			return err
		}
	}
	return nil
}

// step 2: buildSectionGraph derives Section nodes at every prefix
// depth of each chunk's section_path, plus HAS_SECTION, SUBSECTION_OF,
// and the chunk's single IN_SECTION edge to its leaf section.

type sectionNode struct {
	id      string
	docID   string
	pathKey string
	title   string
	depth   int
}

func (b *Builder) buildSectionGraph(ctx context.Context, groupID string, chunks []graphtypes.TextChunk) ([]sectionNode, error) {
	seen := map[string]sectionNode{}
	var order []string

	for _, c := range chunks {
		path := c.Metadata.SectionPath
		if len(path) == 0 {
			continue
		}
		var prefix []string
		for depth, heading := range path {
			prefix = append(prefix, heading)
			pathKey := strings.Join(prefix, " > ")
			id := sectionID(c.DocumentID, pathKey)
			if _, ok := seen[id]; !ok {
				seen[id] = sectionNode{id: id, docID: c.DocumentID, pathKey: pathKey, title: heading, depth: depth}
				order = append(order, id)
			}
		}
	}

	for _, id := range order {
		s := seen[id]
		if _, err := b.store.Run(ctx, `
MERGE (s:Section {id: $id})
SET s.group_id = $groupId, s.doc_id = $docId, s.path_key = $pathKey, s.title = $title, s.depth = $depth`,
			map[string]any{"id": s.id, "groupId": groupID, "docId": s.docID, "pathKey": s.pathKey, "title": s.title, "depth": s.depth}); err != nil {
			return nil, err
		}

		if s.depth == 0 {
			if _, err := b.store.Run(ctx, `
MATCH (d:Document {id: $docId}), (s:Section {id: $sectionId})
MERGE (d)-[:HAS_SECTION]->(s)`, map[string]any{"docId": s.docID, "sectionId": s.id}); err != nil {
				return nil, err
			}
		} else {
			parentPath := parentPathKey(s.pathKey)
			parentID := sectionID(s.docID, parentPath)
			if _, err := b.store.Run(ctx, `
MATCH (child:Section {id: $childId}), (parent:Section {id: $parentId})
MERGE (child)-[:SUBSECTION_OF]->(parent)`, map[string]any{"childId": s.id, "parentId": parentID}); err != nil {
				return nil, err
			}
		}
	}

	for _, c := range chunks {
		if len(c.Metadata.SectionPath) == 0 {
			continue
		}
		leafPath := strings.Join(c.Metadata.SectionPath, " > ")
		leafID := sectionID(c.DocumentID, leafPath)
		if _, err := b.store.Run(ctx, `
MATCH (c:TextChunk {id: $chunkId}), (s:Section {id: $sectionId})
MERGE (c)-[:IN_SECTION]->(s)`, map[string]any{"chunkId": c.ID, "sectionId": leafID}); err != nil {
			return nil, err
		}
	}

	out := make([]sectionNode, 0, len(order))
	for _, id := range order {
		out = append(out, seen[id])
	}
	return out, nil
}

func sectionID(docID, pathKey string) string {
	return docID + "::" + pathKey
}

func parentPathKey(pathKey string) string {
	idx := strings.LastIndex(pathKey, " > ")
	if idx < 0 {
		return ""
	}
	return pathKey[:idx]
}

// step 3: embedSections concatenates title + path_key + up to 3 sample
// chunk texts (each capped at 500 chars), truncated to 2000 chars.

func (b *Builder) embedSections(ctx context.Context, sections []sectionNode) error {
	if b.embedder == nil || len(sections) == 0 {
		return nil
	}

	texts := make([]string, len(sections))
	for i, s := range sections {
		samples, err := b.sampleChunkTexts(ctx, s.id, 3)
		if err != nil {
			return err
		}
		var sb strings.Builder
		sb.WriteString(s.title)
		sb.WriteString(" ")
		sb.WriteString(s.pathKey)
		for _, sample := range samples {
			sb.WriteString(" ")
			if len(sample) > 500 {
				sample = sample[:500]
			}
			sb.WriteString(sample)
		}
		text := sb.String()
		if len(text) > 2000 {
			text = text[:2000]
		}
		texts[i] = text
	}

	vecs, err := b.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed sections: %w", err)
	}
	for i, s := range sections {
		if _, err := b.store.Run(ctx, `MATCH (s:Section {id: $id}) SET s.embedding = $embedding`,
			map[string]any{"id": s.id, "embedding": vecs[i]}); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) sampleChunkTexts(ctx context.Context, sectionID string, limit int) ([]string, error) {
	records, err := b.store.Run(ctx, `
MATCH (c:TextChunk)-[:IN_SECTION]->(s:Section {id: $sectionId})
RETURN c.text AS text LIMIT $limit`, map[string]any{"sectionId": sectionID, "limit": limit})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(records))
	for _, rec := range records {
		out = append(out, getString(rec, "text"))
	}
	return out, nil
}

// step 4: linkCrossDocumentSections computes pairwise cosine between
// section embeddings across distinct documents, keeping edges above
// threshold and capping edges per section.

func (b *Builder) linkCrossDocumentSections(ctx context.Context, groupID string, sections []sectionNode) (int, error) {
	if len(sections) < 2 {
		return 0, nil
	}

	type embedded struct {
		sectionNode
		vec []float32
	}
	var withVecs []embedded
	for _, s := range sections {
		records, err := b.store.Run(ctx, `MATCH (s:Section {id: $id}) RETURN s.embedding AS embedding`, map[string]any{"id": s.id})
		if err != nil {
			return 0, err
		}
		if len(records) == 0 {
			continue
		}
		vec := getFloatSlice(records[0], "embedding")
		if len(vec) == 0 {
			continue
		}
		withVecs = append(withVecs, embedded{sectionNode: s, vec: vec})
	}

	type scoredPair struct {
		other string
		score float64
	}
	perSection := map[string][]scoredPair{}

	for i := 0; i < len(withVecs); i++ {
		for j := i + 1; j < len(withVecs); j++ {
			a, c := withVecs[i], withVecs[j]
			if a.docID == c.docID {
				continue
			}
			sim := cosine(a.vec, c.vec)
			if sim < b.cfg.SectionSimThreshold {
				continue
			}
			perSection[a.id] = append(perSection[a.id], scoredPair{c.id, sim})
			perSection[c.id] = append(perSection[c.id], scoredPair{a.id, sim})
		}
	}

	count := 0
	edgeCap := b.cfg.SectionEdgesPerCap
	if edgeCap <= 0 {
		edgeCap = DefaultConfig.SectionEdgesPerCap
	}
	for from, pairs := range perSection {
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].score > pairs[j].score })
		if len(pairs) > edgeCap {
			pairs = pairs[:edgeCap]
		}
		for _, p := range pairs {
			if _, err := b.store.Run(ctx, `
MATCH (a:Section {id: $from}), (b:Section {id: $to})
MERGE (a)-[r:SEMANTICALLY_SIMILAR]->(b)
SET r.similarity = $sim`, map[string]any{"from": from, "to": p.other, "sim": p.score}); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

// step 5: upsertEntitiesAndRelations

func (b *Builder) upsertEntitiesAndRelations(ctx context.Context, groupID string, entities []graphtypes.Entity, relations []graphtypes.Relationship, mentions []graphtypes.Mention) error {
	for _, e := range entities {
		if _, err := b.store.Run(ctx, `
MERGE (e:Entity {id: $id})
SET e.group_id = $groupId, e.name = $name, e.type = $type, e.description = $description,
    e.aliases = $aliases, e.embedding = $embedding`,
			map[string]any{
				"id": e.ID, "groupId": groupID, "name": e.Name, "type": e.Type,
				"description": e.Description, "aliases": e.Aliases, "embedding": e.Embedding,
			}); err != nil {
			return err
		}
	}

	for _, r := range relations {
		if _, err := b.store.Run(ctx, `
MATCH (s:Entity {id: $sourceId}), (o:Entity {id: $targetId})
MERGE (s)-[r:RELATED_TO]->(o)
SET r.group_id = $groupId, r.type = $type, r.description = $description, r.weight = $weight`,
			map[string]any{
				"sourceId": r.SourceID, "targetId": r.TargetID, "groupId": groupID,
				"type": r.Type, "description": r.Description, "weight": r.Weight,
			}); err != nil {
			return err
		}
	}

	for _, m := range mentions {
		if _, err := b.store.Run(ctx, `
MATCH (c:TextChunk {id: $chunkId}), (e:Entity {id: $entityId})
MERGE (c)-[:MENTIONS]->(e)`, map[string]any{"chunkId": m.ChunkID, "entityId": m.EntityID}); err != nil {
			return err
		}
	}
	return nil
}

// step 6: computeEntityImportance

func (b *Builder) computeEntityImportance(ctx context.Context, groupID string) error {
	_, err := b.store.Run(ctx, `
MATCH (e:Entity {group_id: $groupId})
OPTIONAL MATCH (e)-[rel]-()
WITH e, count(rel) AS degree
OPTIONAL MATCH (:TextChunk)-[:MENTIONS]->(e)
WITH e, degree, count(*) AS chunkCount
SET e.degree = degree, e.chunk_count = chunkCount,
    e.importance_score = 0.3 * degree + 0.7 * chunkCount`,
		map[string]any{"groupId": groupID})
	return err
}

// step 7: buildFoundationEdges

func (b *Builder) buildFoundationEdges(ctx context.Context, groupID string) error {
	if _, err := b.store.Run(ctx, `
MATCH (e:Entity {group_id: $groupId})<-[:MENTIONS]-(:TextChunk)-[:IN_SECTION]->(s:Section)
MERGE (e)-[:APPEARS_IN_SECTION]->(s)`, map[string]any{"groupId": groupID}); err != nil {
		return err
	}

	if _, err := b.store.Run(ctx, `
MATCH (e:Entity {group_id: $groupId})<-[:MENTIONS]-(c:TextChunk)-[:FOUND_IN]->(d:Document)
MERGE (e)-[:APPEARS_IN_DOCUMENT]->(d)`, map[string]any{"groupId": groupID}); err != nil {
		return err
	}

	_, err := b.store.Run(ctx, `
MATCH (s:Section {group_id: $groupId})<-[:APPEARS_IN_SECTION]-(e:Entity)<-[:MENTIONS]-(c:TextChunk)-[:IN_SECTION]->(s)
WITH s, e, count(c) AS mentionCount
ORDER BY s.id, mentionCount DESC
WITH s, collect(e)[0..3] AS hubEntities
UNWIND hubEntities AS hub
MERGE (s)-[:HAS_HUB_ENTITY]->(hub)`, map[string]any{"groupId": groupID})
	return err
}

// step 8: buildSharesEntityEdges links cross-document sections sharing
// >=2 entities, storing the shared entity list and count.

func (b *Builder) buildSharesEntityEdges(ctx context.Context, groupID string) (int, error) {
	records, err := b.store.Run(ctx, `
MATCH (a:Section {group_id: $groupId})<-[:APPEARS_IN_SECTION]-(e:Entity)-[:APPEARS_IN_SECTION]->(b:Section {group_id: $groupId})
WHERE a.doc_id <> b.doc_id AND a.id < b.id
WITH a, b, collect(DISTINCT e.id) AS shared
WHERE size(shared) >= 2
MERGE (a)-[r:SHARES_ENTITY]->(b)
SET r.shared_entity_ids = shared, r.shared_count = size(shared)
RETURN count(*) AS created`, map[string]any{"groupId": groupID})
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	return int(getInt(records[0], "created")), nil
}

// step 9: buildSimilarToEdges links entities whose embeddings are
// cosine-similar above threshold and that have no explicit RELATED_TO
// edge between them.

func (b *Builder) buildSimilarToEdges(ctx context.Context, groupID string, entities []graphtypes.Entity) (int, error) {
	count := 0
	for i := 0; i < len(entities); i++ {
		if len(entities[i].Embedding) == 0 {
			continue
		}
		for j := i + 1; j < len(entities); j++ {
			if len(entities[j].Embedding) == 0 {
				continue
			}
			sim := cosine(entities[i].Embedding, entities[j].Embedding)
			if sim < b.cfg.EntitySimThreshold {
				continue
			}
			records, err := b.store.Run(ctx, `
MATCH (a:Entity {id: $a})-[r:RELATED_TO]-(b:Entity {id: $b}) RETURN count(r) AS c`,
				map[string]any{"a": entities[i].ID, "b": entities[j].ID})
			if err != nil {
				return count, err
			}
			if len(records) > 0 && getInt(records[0], "c") > 0 {
				continue
			}
			if _, err := b.store.Run(ctx, `
MATCH (a:Entity {id: $a}), (b:Entity {id: $b})
MERGE (a)-[r:SIMILAR_TO]-(b)
SET r.similarity = $sim`, map[string]any{"a": entities[i].ID, "b": entities[j].ID, "sim": sim}); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

// step 10: detectCommunities projects the entity/relationship subgraph
// and runs Leiden, creating one level-0 Community node per final Leiden
// community and setting community_id on its members. Intermediate
// Leiden levels are not materialized and cfg.MaxCommunityLevels is not
// read.

func (b *Builder) detectCommunities(ctx context.Context, groupID string) (int, error) {
	graphName := "community-" + groupID
	_, release, err := b.runner.Project(ctx, groupID, graphName, []string{"Entity"}, []string{"RELATED_TO"})
	if err != nil {
		return 0, err
	}
	defer release(ctx)

	records, err := b.runner.RunLeiden(ctx, graphName, b.cfg.CommunityGamma, b.cfg.CommunityTheta, b.cfg.CommunityTolerance, true)
	if err != nil {
		return 0, err
	}

	communities := map[string][]string{} // communityKey -> entity ids
	for _, rec := range records {
		nodeID := getNodeID(rec)
		communityID := getInt(rec, "communityId")
		key := strconv.FormatInt(communityID, 10)
		communities[key] = append(communities[key], nodeID)
	}

	total := len(records)
	n := 0
	for key, memberIDs := range communities {
		if len(memberIDs) == 0 {
			continue
		}
		communityNodeID := groupID + "::community::" + key
		rank := float64(len(memberIDs)) / float64(max(total, 1))
		if _, err := b.store.Run(ctx, `
MERGE (c:Community {id: $id})
SET c.group_id = $groupId, c.level = 0, c.entity_ids = $entityIds, c.rank = $rank`,
			map[string]any{"id": communityNodeID, "groupId": groupID, "entityIds": memberIDs, "rank": rank}); err != nil {
			return n, err
		}
		for _, entityID := range memberIDs {
			if _, err := b.store.Run(ctx, `
MATCH (e:Entity {id: $entityId}) SET e.community_id = $communityId`,
				map[string]any{"entityId": entityID, "communityId": communityNodeID}); err != nil {
				return n, err
			}
		}
		n++
	}
	return n, nil
}

// step 11: summarizeCommunities issues a structured prompt per
// community, requiring fact spans to survive verbatim, re-issuing up
// to two times on hallucination or omission.

func (b *Builder) summarizeCommunities(ctx context.Context, groupID string) error {
	if b.llm == nil {
		return nil
	}
	records, err := b.store.Run(ctx, `MATCH (c:Community {group_id: $groupId}) RETURN c.id AS id, c.entity_ids AS entityIds`, map[string]any{"groupId": groupID})
	if err != nil {
		return err
	}

	for _, rec := range records {
		communityID := getString(rec, "id")
		entityIDs := getStringSlice(rec, "entityIds")
		evidence, factSpans, err := b.collectCommunityEvidence(ctx, entityIDs)
		if err != nil {
			return err
		}
		if len(evidence) == 0 {
			continue
		}

		summary, title, err := b.issueCommunitySummary(ctx, evidence, factSpans)
		if err != nil {
			return err
		}

		if _, err := b.store.Run(ctx, `MATCH (c:Community {id: $id}) SET c.summary = $summary, c.title = $title`,
			map[string]any{"id": communityID, "summary": summary, "title": title}); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) collectCommunityEvidence(ctx context.Context, entityIDs []string) ([]string, []string, error) {
	records, err := b.store.Run(ctx, `
MATCH (e:Entity)<-[:MENTIONS]-(c:TextChunk)
WHERE e.id IN $entityIds
WITH c, count(DISTINCT e) AS mentionCount
ORDER BY mentionCount DESC
RETURN c.text AS text LIMIT 10`, map[string]any{"entityIds": entityIDs})
	if err != nil {
		return nil, nil, err
	}
	var evidence []string
	for _, rec := range records {
		evidence = append(evidence, getString(rec, "text"))
	}
	return evidence, extractFactSpans(evidence), nil
}

// factSpanRE matches currency amounts, dates, and deadline-like
// numeric phrases that a community summary must carry verbatim.
var factSpanRE = regexp.MustCompile(`(\$[\d,]+(?:\.\d+)?)|(\d{4}-\d{2}-\d{2})|(\d+\s+days?)`)

func extractFactSpans(evidence []string) []string {
	re := factSpanRE
	seen := map[string]bool{}
	var spans []string
	for _, e := range evidence {
		for _, m := range re.FindAllString(e, -1) {
			if !seen[m] {
				seen[m] = true
				spans = append(spans, m)
			}
		}
	}
	return spans
}

func (b *Builder) issueCommunitySummary(ctx context.Context, evidence, factSpans []string) (summary, title string, err error) {
	prompt := buildCommunityPrompt(evidence, factSpans, nil)
	for attempt := 0; attempt < 3; attempt++ {
		completion, cErr := b.llm.Complete(ctx, prompt, llmprovider.CompletionOptions{Temperature: 0})
		if cErr != nil {
			return "", "", cErr
		}
		title, summary = splitTitleAndSummary(completion.Text)

		missing := missingFactSpans(summary, factSpans)
		hallucinated := hallucinatedValueSpans(summary, evidence)
		if len(missing) == 0 && !hallucinated {
			return summary, title, nil
		}
		prompt = buildCommunityPrompt(evidence, factSpans, missing)
	}
	return summary, title, nil
}

func buildCommunityPrompt(evidence, factSpans, missingSpans []string) string {
	var sb strings.Builder
	sb.WriteString("Summarize the following evidence passages into a short community report.\n")
	sb.WriteString("You MUST include these exact fact spans verbatim if they are relevant: ")
	sb.WriteString(strings.Join(factSpans, ", "))
	sb.WriteString("\n\nEvidence:\n")
	for _, e := range evidence {
		sb.WriteString("- ")
		sb.WriteString(e)
		sb.WriteString("\n")
	}
	if len(missingSpans) > 0 {
		sb.WriteString("\nYour previous attempt omitted these required spans, include them verbatim this time: ")
		sb.WriteString(strings.Join(missingSpans, ", "))
	}
	sb.WriteString("\n\nRespond as:\nTITLE: <short title>\nSUMMARY: <report>")
	return sb.String()
}

func splitTitleAndSummary(text string) (title, summary string) {
	lines := strings.SplitN(text, "\n", 2)
	if len(lines) == 2 && strings.HasPrefix(strings.ToUpper(lines[0]), "TITLE:") {
		title = strings.TrimSpace(lines[0][len("TITLE:"):])
		summary = strings.TrimPrefix(strings.TrimSpace(lines[1]), "SUMMARY:")
		summary = strings.TrimSpace(summary)
		return title, summary
	}
	return "", text
}

func missingFactSpans(summary string, factSpans []string) []string {
	var missing []string
	for _, span := range factSpans {
		if !strings.Contains(summary, span) {
			missing = append(missing, span)
		}
	}
	return missing
}

// hallucinatedValueSpans reports whether the summary introduces a
// value-like span (currency/date/numeric) absent from every evidence
// passage.
func hallucinatedValueSpans(summary string, evidence []string) bool {
	joined := strings.Join(evidence, "\n")
	for _, m := range factSpanRE.FindAllString(summary, -1) {
		if !strings.Contains(joined, m) {
			return true
		}
	}
	return false
}

// step 12: computePageRank runs PageRank over the Entity+TextChunk
// subgraph (RELATED_TO and MENTIONS edges); Section nodes are not part
// of the projection.

func (b *Builder) computePageRank(ctx context.Context, groupID string) error {
	graphName := "pagerank-" + groupID
	_, release, err := b.runner.Project(ctx, groupID, graphName,
		[]string{"Entity", "TextChunk"},
		[]string{"RELATED_TO", "MENTIONS"})
	if err != nil {
		return err
	}
	defer release(ctx)

	records, err := b.runner.RunPageRank(ctx, graphName, b.cfg.PageRankDamping, b.cfg.PageRankMaxIterations, 0.0000001, "")
	if err != nil {
		return err
	}

	for _, rec := range records {
		nodeID := getNodeID(rec)
		score := getFloat(rec, "score", 0)
		if _, err := b.store.Run(ctx, `MATCH (n {id: $id}) SET n.pagerank = $score`,
			map[string]any{"id": nodeID, "score": score}); err != nil {
			return err
		}
	}
	return nil
}

func cosine(a, b []float32) float64 {
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

func getFloatSlice(rec recordLike, key string) []float32 {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]float32, 0, len(raw))
	for _, item := range raw {
		switch n := item.(type) {
		case float64:
			out = append(out, float32(n))
		case float32:
			out = append(out, n)
		}
	}
	return out
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

// getNodeID extracts the nodeId-keyed YIELD column's id property. GDS
// stream results yield an internal node id; this module stores the
// domain id as a node property, so the caller queries it back.
func getNodeID(rec recordLike) string {
	v, ok := rec.Get("nodeId")
	if !ok {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
