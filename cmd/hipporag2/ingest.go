package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lex00/hipporag2-go/internal/chunker"
	"github.com/lex00/hipporag2-go/internal/dedup"
	"github.com/lex00/hipporag2-go/internal/embedprovider"
	"github.com/lex00/hipporag2-go/internal/extract"
	"github.com/lex00/hipporag2-go/internal/graphbuild"
	"github.com/lex00/hipporag2-go/internal/graphstore"
	"github.com/lex00/hipporag2-go/internal/graphtypes"
	"github.com/lex00/hipporag2-go/internal/llmprovider"
	"github.com/lex00/hipporag2-go/internal/schema"
)

func newIngestCommand() *cobra.Command {
	var groupID, title, source string

	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Chunk, extract, and graph-build a single document into a tenant's graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if groupID == "" {
				return fmt.Errorf("--group is required")
			}

			text, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			ctx := context.Background()
			store, err := graphstore.Open(ctx, graphstore.Config{
				URI: cfg.Neo4jURI, Username: cfg.Neo4jUser, Password: cfg.Neo4jPassword, Database: cfg.Neo4jDatabase,
			})
			if err != nil {
				return fmt.Errorf("connect to neo4j: %w", err)
			}
			defer store.Close(ctx)
			if err := schema.Setup(ctx, store, cfg.EmbeddingDimensions); err != nil {
				return fmt.Errorf("apply schema: %w", err)
			}

			embedder, err := embedprovider.NewOpenAI(embedprovider.Config{
				APIKey: cfg.EmbeddingAPIKey, Model: cfg.EmbeddingModel, Dimensions: cfg.EmbeddingDimensions,
			})
			if err != nil {
				return err
			}
			llm, err := llmprovider.NewAnthropic(llmprovider.Config{APIKey: cfg.LLMAPIKey, Model: cfg.LLMModel})
			if err != nil {
				return err
			}

			docID := uuid.NewString()
			doc := graphtypes.Document{ID: docID, GroupID: groupID, Title: title, Source: source}

			chunks, err := chunker.Chunk(docID, []chunker.ExtractionUnit{{Text: string(text)}}, chunker.Options{
				ChunkSize: cfg.ChunkSize, ChunkOverlap: cfg.ChunkOverlap,
			})
			if err != nil {
				return fmt.Errorf("chunk document: %w", err)
			}
			for i := range chunks {
				chunks[i].GroupID = groupID
				chunks[i].ID = fmt.Sprintf("%s_chunk_%d", docID, chunks[i].ChunkIndex)
			}

			entities, relations, mentions, err := extractAll(ctx, llm, cfg.ExtractionConcurrency, extract.Thresholds{
				MinEntities: cfg.MinEntities, MinMentions: cfg.MinMentions,
			}, chunks, groupID)
			if err != nil {
				return fmt.Errorf("extract: %w", err)
			}

			if err := embedEntities(ctx, embedder, entities); err != nil {
				return fmt.Errorf("embed entities: %w", err)
			}
			dedupResult := dedup.Dedupe(groupID, entities, cfg.SimilarityThreshold)
			relations = dedup.RemapRelations(relations, dedupResult.Remap)
			mentions = dedup.RemapMentions(mentions, dedupResult.Remap)

			texts := make([]string, len(chunks))
			for i, c := range chunks {
				texts[i] = c.Text
			}
			vectors, err := embedder.EmbedDocuments(ctx, texts)
			if err != nil {
				return fmt.Errorf("embed chunks: %w", err)
			}
			for i := range chunks {
				chunks[i].EmbeddingV2 = vectors[i]
			}

			builder := graphbuild.New(store, embedder, llm, graphbuild.DefaultConfig)
			stats, err := builder.Build(ctx, groupID, []graphtypes.Document{doc}, chunks, dedupResult.Entities, relations, mentions)
			if err != nil {
				return fmt.Errorf("build graph: %w", err)
			}

			fmt.Printf("document %s ingested: %d chunks, %d entities, %d relations, %d communities\n",
				docID, stats.ChunksUpserted, stats.EntitiesUpserted, stats.RelationsUpserted, stats.CommunitiesCreated)
			return nil
		},
	}

	cmd.Flags().StringVar(&groupID, "group", "", "tenant group_id to ingest into (required)")
	cmd.Flags().StringVar(&title, "title", "", "document title")
	cmd.Flags().StringVar(&source, "source", "", "document source identifier (path, URL)")
	return cmd
}

// extractAll runs the extractor over every chunk with bounded
// concurrency, mirroring the documented extraction_concurrency knob.
func extractAll(ctx context.Context, llm llmprovider.Provider, concurrency int, thr extract.Thresholds, chunks []graphtypes.TextChunk, groupID string) ([]graphtypes.Entity, []graphtypes.Relationship, []graphtypes.Mention, error) {
	if concurrency <= 0 {
		concurrency = 4
	}
	extractor := extract.New(llm, thr)
	results := make([]extract.Result, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, c := range chunks {
		i, c := i, c
		g.Go(func() error {
			r, err := extractor.Extract(gctx, c.ID, c.Text)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}

	entityByName := map[string]graphtypes.Entity{}
	var relations []graphtypes.Relationship
	var mentions []graphtypes.Mention

	for i, r := range results {
		chunkID := chunks[i].ID
		for _, ce := range r.Entities {
			key := dedup.CanonicalKey(ce.Name)
			id := graphtypes.EntityID(groupID, key)
			entityByName[ce.Name] = graphtypes.Entity{
				ID: id, GroupID: groupID, Name: ce.Name, Type: ce.Type,
				Description: ce.Description, Aliases: ce.Aliases,
			}
		}
		for _, cr := range r.Relations {
			src, ok1 := entityByName[cr.SourceName]
			dst, ok2 := entityByName[cr.TargetName]
			if !ok1 || !ok2 {
				continue
			}
			relations = append(relations, graphtypes.Relationship{
				GroupID: groupID, SourceID: src.ID, TargetID: dst.ID,
				Type: cr.Label, Description: cr.Description, Weight: 1.0,
			})
		}
		for _, m := range r.Mentions {
			e, ok := entityByName[m.EntityName]
			if !ok {
				continue
			}
			mentions = append(mentions, graphtypes.Mention{GroupID: groupID, ChunkID: chunkID, EntityID: e.ID})
		}
	}

	entities := make([]graphtypes.Entity, 0, len(entityByName))
	for _, e := range entityByName {
		entities = append(entities, e)
	}
	return entities, relations, mentions, nil
}

func embedEntities(ctx context.Context, embedder embedprovider.Provider, entities []graphtypes.Entity) error {
	if len(entities) == 0 {
		return nil
	}
	texts := make([]string, len(entities))
	for i, e := range entities {
		texts[i] = e.Name + ": " + e.Description
	}
	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return err
	}
	for i := range entities {
		entities[i].Embedding = vectors[i]
	}
	return nil
}
