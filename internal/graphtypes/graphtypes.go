// Package graphtypes defines the node and edge types of the tenant graph:
// documents, chunks, sections, entities, relationships, communities, and
// the retrieval-time derived triple. Every type here is group_id-scoped.
package graphtypes

import (
	"encoding/hex"
	"hash/fnv"
)

// EntityID computes the deterministic id of an entity from its group and
// canonical key. Two extractions that normalize to the same canonical key
// resolve to the same node.
func EntityID(groupID, canonicalKey string) string {
	h := fnv.New128a()
	h.Write([]byte(groupID))
	h.Write([]byte{0})
	h.Write([]byte(canonicalKey))
	return hex.EncodeToString(h.Sum(nil))
}

// SentenceSource identifies where a Sentence node's text came from.
type SentenceSource string

const (
	SentenceFromParagraph     SentenceSource = "paragraph"
	SentenceFromTableRow      SentenceSource = "table_row"
	SentenceFromFigureCaption SentenceSource = "figure_caption"
)

// Document is an ingested source document. Immutable after ingest for a
// given group.
type Document struct {
	ID            string         `json:"id"`
	GroupID       string         `json:"group_id"`
	Title         string         `json:"title"`
	Source        string         `json:"source"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	DocumentDate  string         `json:"document_date,omitempty"`
}

// ChunkMetadata carries the layout context a TextChunk was split from.
type ChunkMetadata struct {
	SectionPath    []string         `json:"section_path,omitempty"`
	PageNumber     int              `json:"page_number,omitempty"`
	Tables         []string         `json:"tables,omitempty"`
	Figures        []string         `json:"figures,omitempty"`
	KeyValuePairs  []KeyValuePair   `json:"key_value_pairs,omitempty"`
}

// TextChunk is a passage: a fixed-size overlapping slice of a document.
type TextChunk struct {
	ID          string        `json:"id"`
	GroupID     string        `json:"group_id"`
	Text        string        `json:"text"`
	ChunkIndex  int           `json:"chunk_index"`
	DocumentID  string        `json:"document_id"`
	Embedding   []float32     `json:"embedding,omitempty"`
	EmbeddingV2 []float32     `json:"embedding_v2,omitempty"`
	Tokens      int           `json:"tokens"`
	Metadata    ChunkMetadata `json:"metadata"`
}

// Section is a node in a document's heading hierarchy. path_key is the
// joined heading chain, unique within a document.
type Section struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"group_id"`
	DocID     string    `json:"doc_id"`
	PathKey   string    `json:"path_key"`
	Title     string    `json:"title"`
	Depth     int       `json:"depth"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// Entity is a canonical named entity. ID is deterministic: computed from
// group_id and the entity's canonical_key, so re-extraction of the same
// name always resolves to the same node.
type Entity struct {
	ID          string         `json:"id"`
	GroupID     string         `json:"group_id"`
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Description string         `json:"description"`
	Aliases     []string       `json:"aliases,omitempty"`
	Embedding   []float32      `json:"embedding,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	TextUnitIDs []string       `json:"text_unit_ids,omitempty"`
}

// Relationship is a typed, weighted edge between two entities. Stored
// directed but treated as undirected by retrieval.
type Relationship struct {
	GroupID     string  `json:"group_id"`
	SourceID    string  `json:"source_id"`
	TargetID    string  `json:"target_id"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
}

// Mention is the TextChunk-[MENTIONS]->Entity edge.
type Mention struct {
	GroupID string `json:"group_id"`
	ChunkID string `json:"chunk_id"`
	EntityID string `json:"entity_id"`
}

// Community is a hierarchical cluster of entities. Level 0 is finest;
// each parent level aggregates its children.
type Community struct {
	ID        string   `json:"id"`
	GroupID   string   `json:"group_id"`
	Level     int      `json:"level"`
	EntityIDs []string `json:"entity_ids"`
	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	Rank      float64  `json:"rank"`
}

// KeyValuePair is a form-field extraction, linked to its document via
// FOUND_IN.
type KeyValuePair struct {
	ID          string    `json:"id"`
	GroupID     string    `json:"group_id"`
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Confidence  float64   `json:"confidence"`
	PageNumber  int       `json:"page_number,omitempty"`
	SectionPath []string  `json:"section_path,omitempty"`
	Embedding   []float32 `json:"embedding,omitempty"`
}

// Figure is a detected figure/chart, linked to its document via FOUND_IN
// and optionally to other elements via REFERENCES.
type Figure struct {
	ID         string `json:"id"`
	GroupID    string `json:"group_id"`
	Caption    string `json:"caption"`
	PageNumber int    `json:"page_number,omitempty"`
}

// Barcode is a detected barcode/QR payload, linked to its document via
// FOUND_IN.
type Barcode struct {
	ID         string `json:"id"`
	GroupID    string `json:"group_id"`
	Value      string `json:"value"`
	PageNumber int    `json:"page_number,omitempty"`
}

// Sentence is a sub-chunk unit used for fine-grained evidence lookup.
// PART_OF references exactly one TextChunk; NEXT chains sentences within
// a chunk in source order.
type Sentence struct {
	ID          string         `json:"id"`
	GroupID     string         `json:"group_id"`
	Text        string         `json:"text"`
	ChunkID     string         `json:"chunk_id"`
	DocumentID  string         `json:"document_id"`
	Source      SentenceSource `json:"source"`
	IndexInChunk int           `json:"index_in_chunk"`
	SectionPath []string       `json:"section_path,omitempty"`
	PageNumber  int            `json:"page,omitempty"`
	EmbeddingV2 []float32      `json:"embedding_v2,omitempty"`
}

// Triple is a derived (subject, predicate, object) fact materialized
// in-memory for a query session, never persisted to the graph store.
type Triple struct {
	SubjectID   string    `json:"subject_id"`
	SubjectName string    `json:"subject_name"`
	Predicate   string    `json:"predicate"`
	ObjectID    string    `json:"object_id"`
	ObjectName  string    `json:"object_name"`
	Embedding   []float32 `json:"-"`
}

// TripleText renders the triple as the flat "subject predicate object"
// string the embedding model is run over.
func (t Triple) TripleText() string {
	return t.SubjectName + " " + t.Predicate + " " + t.ObjectName
}

// Relationship and edge type labels used across the graph store.
const (
	EdgeRelatedTo             = "RELATED_TO"
	EdgeMentions              = "MENTIONS"
	EdgeSemanticallySimilar   = "SEMANTICALLY_SIMILAR"
	EdgeInSection             = "IN_SECTION"
	EdgeSubsectionOf          = "SUBSECTION_OF"
	EdgeHasSection            = "HAS_SECTION"
	EdgeAppearsInSection      = "APPEARS_IN_SECTION"
	EdgeAppearsInDocument     = "APPEARS_IN_DOCUMENT"
	EdgeHasHubEntity          = "HAS_HUB_ENTITY"
	EdgeSharesEntity          = "SHARES_ENTITY"
	EdgeSimilarTo             = "SIMILAR_TO"
	EdgePartOf                = "PART_OF"
	EdgeNext                  = "NEXT"
	EdgeFoundIn               = "FOUND_IN"
	EdgeReferences            = "REFERENCES"
)
