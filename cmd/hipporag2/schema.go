package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lex00/hipporag2-go/internal/config"
	"github.com/lex00/hipporag2-go/internal/graphstore"
	"github.com/lex00/hipporag2-go/internal/schema"
)

func newSchemaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Manage the declared tenant graph schema",
	}
	cmd.AddCommand(newSchemaSetupCommand())
	cmd.AddCommand(newSchemaDumpCommand())
	return cmd
}

func newSchemaSetupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Apply constraints, indexes, and vector indexes to the configured Neo4j instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
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
			fmt.Println("schema applied")
			return nil
		},
	}
}

func newSchemaDumpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print the declared schema as JSON, without a live connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			out, err := schema.DumpJSON(cfg.EmbeddingDimensions)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(append(out, '\n'))
			return err
		},
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := loadConfigFlag(cmd)
	if err != nil {
		return config.Config{}, err
	}
	return config.Load(path)
}
