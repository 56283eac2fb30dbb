package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lex00/hipporag2-go/internal/collab"
	"github.com/lex00/hipporag2-go/internal/embedprovider"
	"github.com/lex00/hipporag2-go/internal/graphstore"
	"github.com/lex00/hipporag2-go/internal/llmprovider"
	"github.com/lex00/hipporag2-go/internal/route7"
)

func newQueryCommand() *cobra.Command {
	var groupID, responseType string

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Run a query through route_7_hipporag2 and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if groupID == "" {
				return fmt.Errorf("--group is required")
			}

			ctx := context.Background()
			store, err := graphstore.Open(ctx, graphstore.Config{
				URI: cfg.Neo4jURI, Username: cfg.Neo4jUser, Password: cfg.Neo4jPassword, Database: cfg.Neo4jDatabase,
			})
			if err != nil {
				return fmt.Errorf("connect to neo4j: %w", err)
			}
			defer store.Close(ctx)

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

			// Synthesis is a caller-supplied boundary (package collab); the
			// CLI has no answer-generation product of its own to plug in,
			// so it runs the evidence pipeline against the fake.
			handler := route7.New(store, embedder, llm, &collab.FakeSynthesizer{}, cfg)
			result, err := handler.Query(ctx, groupID, args[0], responseType)
			if err != nil {
				return fmt.Errorf("query: %w", err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringVar(&groupID, "group", "", "tenant group_id to query (required)")
	cmd.Flags().StringVar(&responseType, "response-type", "", "optional response-type hint passed to the synthesizer")
	return cmd
}
