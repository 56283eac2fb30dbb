// Package schema declares the tenant graph's node and relationship
// types and renders them to idempotent Cypher DDL, executed once at
// startup. The declaration shapes are the teacher's
// pkg/neo4j/schema.NodeType/RelationshipType; here they describe this
// module's own domain (Document/TextChunk/Entity/... instead of an
// arbitrary user-declared graph) and are consumed by Setup rather than
// scanned from Go source.
package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/lex00/hipporag2-go/internal/graphstore"
	"github.com/lex00/hipporag2-go/internal/graphtypes"
	"github.com/lex00/hipporag2-go/internal/serializer"
	neo4jschema "github.com/lex00/hipporag2-go/pkg/neo4j/schema"
)

// NodeTypes returns the node declarations for every label in the data
// model, parameterized by the configured embedding dimensionality.
func NodeTypes(embeddingDimensions int) []*neo4jschema.NodeType {
	vectorOpts := map[string]any{
		"dimensions":           embeddingDimensions,
		"similarity_function": "cosine",
	}

	return []*neo4jschema.NodeType{
		{
			Label: "Document",
			Properties: []neo4jschema.Property{
				{Name: "id", Type: neo4jschema.STRING, Required: true, Unique: true},
				{Name: "group_id", Type: neo4jschema.STRING, Required: true},
				{Name: "title", Type: neo4jschema.STRING},
				{Name: "source", Type: neo4jschema.STRING},
			},
			Indexes: []neo4jschema.Index{
				{Name: "document_group_id_idx", Type: neo4jschema.BTREE, Properties: []string{"group_id"}},
			},
		},
		{
			Label: "TextChunk",
			Properties: []neo4jschema.Property{
				{Name: "id", Type: neo4jschema.STRING, Required: true, Unique: true},
				{Name: "group_id", Type: neo4jschema.STRING, Required: true},
				{Name: "document_id", Type: neo4jschema.STRING, Required: true},
				{Name: "chunk_index", Type: neo4jschema.INTEGER, Required: true},
				{Name: "text", Type: neo4jschema.STRING, Required: true},
				{Name: "embedding_v2", Type: neo4jschema.LIST_FLOAT},
			},
			Indexes: []neo4jschema.Index{
				{Name: "chunk_group_id_idx", Type: neo4jschema.BTREE, Properties: []string{"group_id"}},
				{Name: "chunk_embeddings_v2", Type: neo4jschema.VECTOR, Properties: []string{"embedding_v2"}, Options: vectorOpts},
			},
		},
		{
			Label: "Section",
			Properties: []neo4jschema.Property{
				{Name: "id", Type: neo4jschema.STRING, Required: true, Unique: true},
				{Name: "group_id", Type: neo4jschema.STRING, Required: true},
				{Name: "doc_id", Type: neo4jschema.STRING, Required: true},
				{Name: "path_key", Type: neo4jschema.STRING, Required: true},
				{Name: "embedding", Type: neo4jschema.LIST_FLOAT},
			},
			Indexes: []neo4jschema.Index{
				{Name: "section_embeddings", Type: neo4jschema.VECTOR, Properties: []string{"embedding"}, Options: vectorOpts},
			},
		},
		{
			Label: "Entity",
			Properties: []neo4jschema.Property{
				{Name: "id", Type: neo4jschema.STRING, Required: true, Unique: true},
				{Name: "group_id", Type: neo4jschema.STRING, Required: true},
				{Name: "name", Type: neo4jschema.STRING, Required: true},
				{Name: "type", Type: neo4jschema.STRING},
				{Name: "embedding", Type: neo4jschema.LIST_FLOAT},
			},
			Indexes: []neo4jschema.Index{
				{Name: "entity_group_id_idx", Type: neo4jschema.BTREE, Properties: []string{"group_id"}},
				{Name: "entity_embeddings", Type: neo4jschema.VECTOR, Properties: []string{"embedding"}, Options: vectorOpts},
			},
		},
		{
			Label: "Community",
			Properties: []neo4jschema.Property{
				{Name: "id", Type: neo4jschema.STRING, Required: true, Unique: true},
				{Name: "group_id", Type: neo4jschema.STRING, Required: true},
				{Name: "level", Type: neo4jschema.INTEGER, Required: true},
			},
		},
		{
			Label: "KeyValuePair",
			Properties: []neo4jschema.Property{
				{Name: "id", Type: neo4jschema.STRING, Required: true, Unique: true},
				{Name: "group_id", Type: neo4jschema.STRING, Required: true},
				{Name: "key", Type: neo4jschema.STRING, Required: true},
				{Name: "value", Type: neo4jschema.STRING},
				{Name: "embedding", Type: neo4jschema.LIST_FLOAT},
			},
			Indexes: []neo4jschema.Index{
				{Name: "kvp_embeddings", Type: neo4jschema.VECTOR, Properties: []string{"embedding"}, Options: vectorOpts},
			},
		},
		{
			Label: "Figure",
			Properties: []neo4jschema.Property{
				{Name: "id", Type: neo4jschema.STRING, Required: true, Unique: true},
				{Name: "group_id", Type: neo4jschema.STRING, Required: true},
			},
		},
		{
			Label: "Barcode",
			Properties: []neo4jschema.Property{
				{Name: "id", Type: neo4jschema.STRING, Required: true, Unique: true},
				{Name: "group_id", Type: neo4jschema.STRING, Required: true},
			},
		},
		{
			Label: "Sentence",
			Properties: []neo4jschema.Property{
				{Name: "id", Type: neo4jschema.STRING, Required: true, Unique: true},
				{Name: "group_id", Type: neo4jschema.STRING, Required: true},
				{Name: "chunk_id", Type: neo4jschema.STRING, Required: true},
				{Name: "text", Type: neo4jschema.STRING, Required: true},
				{Name: "embedding_v2", Type: neo4jschema.LIST_FLOAT},
			},
			Indexes: []neo4jschema.Index{
				{Name: "sentence_embeddings_v2", Type: neo4jschema.VECTOR, Properties: []string{"embedding_v2"}, Options: vectorOpts},
			},
		},
	}
}

// RelationshipTypes returns the relationship declarations for every
// edge used by indexing and retrieval.
func RelationshipTypes() []*neo4jschema.RelationshipType {
	return []*neo4jschema.RelationshipType{
		{Label: graphtypes.EdgeRelatedTo, Source: "Entity", Target: "Entity", Cardinality: neo4jschema.MANY_TO_MANY},
		{Label: graphtypes.EdgeMentions, Source: "TextChunk", Target: "Entity", Cardinality: neo4jschema.MANY_TO_MANY},
		{Label: graphtypes.EdgeSemanticallySimilar, Source: "Entity", Target: "Entity", Cardinality: neo4jschema.MANY_TO_MANY},
		{Label: graphtypes.EdgeInSection, Source: "TextChunk", Target: "Section", Cardinality: neo4jschema.MANY_TO_ONE},
		{Label: graphtypes.EdgeSubsectionOf, Source: "Section", Target: "Section", Cardinality: neo4jschema.MANY_TO_ONE},
		{Label: graphtypes.EdgeHasSection, Source: "Document", Target: "Section", Cardinality: neo4jschema.ONE_TO_MANY},
		{Label: graphtypes.EdgeAppearsInSection, Source: "Entity", Target: "Section", Cardinality: neo4jschema.MANY_TO_MANY},
		{Label: graphtypes.EdgeAppearsInDocument, Source: "Entity", Target: "Document", Cardinality: neo4jschema.MANY_TO_MANY},
		{Label: graphtypes.EdgeHasHubEntity, Source: "Section", Target: "Entity", Cardinality: neo4jschema.MANY_TO_MANY},
		{Label: graphtypes.EdgeSharesEntity, Source: "Section", Target: "Section", Cardinality: neo4jschema.MANY_TO_MANY},
		{Label: graphtypes.EdgeSimilarTo, Source: "Entity", Target: "Entity", Cardinality: neo4jschema.MANY_TO_MANY},
		{Label: graphtypes.EdgePartOf, Source: "Sentence", Target: "TextChunk", Cardinality: neo4jschema.MANY_TO_ONE},
		{Label: graphtypes.EdgeNext, Source: "Sentence", Target: "Sentence", Cardinality: neo4jschema.ONE_TO_ONE},
		{Label: graphtypes.EdgeFoundIn, Source: "KeyValuePair", Target: "Document", Cardinality: neo4jschema.MANY_TO_ONE},
		{Label: graphtypes.EdgeReferences, Source: "Figure", Target: "Document", Cardinality: neo4jschema.MANY_TO_ONE},
	}
}

// Setup validates the declared schema, then renders every node and
// relationship declaration to Cypher DDL and executes it against the
// store. Every statement is IF NOT EXISTS, so this is safe to call on
// every process startup.
func Setup(ctx context.Context, store *graphstore.Store, embeddingDimensions int) error {
	nodeTypes := NodeTypes(embeddingDimensions)
	relTypes := RelationshipTypes()

	validator := neo4jschema.NewValidator()
	for _, n := range nodeTypes {
		validator.Register(n)
	}
	for _, r := range relTypes {
		validator.Register(r)
	}
	if result := validator.ValidateAll(); !result.Valid {
		return fmt.Errorf("invalid schema declaration: %v", result.Errors)
	}

	ser := serializer.NewCypherSerializer()
	for _, n := range nodeTypes {
		stmt, err := ser.SerializeNodeType(n)
		if err != nil {
			return fmt.Errorf("serialize node type %s: %w", n.Label, err)
		}
		if err := runStatements(ctx, store, stmt); err != nil {
			return fmt.Errorf("apply node type %s: %w", n.Label, err)
		}
	}

	for _, r := range relTypes {
		stmt, err := ser.SerializeRelationshipType(r)
		if err != nil {
			return fmt.Errorf("serialize relationship type %s: %w", r.Label, err)
		}
		if stmt == "" {
			continue
		}
		if err := runStatements(ctx, store, stmt); err != nil {
			return fmt.Errorf("apply relationship type %s: %w", r.Label, err)
		}
	}

	return nil
}

// DumpJSON renders the declared schema to the same JSON shape the
// teacher's `hipporag2 schema dump` command prints for operators
// inspecting the tenant graph's declared shape without a live
// connection.
func DumpJSON(embeddingDimensions int) ([]byte, error) {
	ser := serializer.NewJSONSerializer()
	out, err := ser.SerializeAll(NodeTypes(embeddingDimensions), RelationshipTypes())
	if err != nil {
		return nil, fmt.Errorf("serialize schema to json: %w", err)
	}
	return out, nil
}

// runStatements splits a `;`-joined statement block and runs each
// statement separately, since the Neo4j driver does not execute
// multiple statements in a single Run call.
func runStatements(ctx context.Context, store *graphstore.Store, block string) error {
	for _, stmt := range splitStatements(block) {
		if stmt == "" {
			continue
		}
		if _, err := store.Run(ctx, stmt, nil); err != nil {
			return err
		}
	}
	return nil
}

func splitStatements(block string) []string {
	parts := strings.Split(block, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
