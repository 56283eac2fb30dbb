// Package main is the entry point for the hipporag2 CLI: ingest
// documents into a tenant's graph, run the HippoRAG-2 query route
// against it, and inspect the declared schema.
//
// Usage:
//
//	hipporag2 ingest   - Chunk, extract, and graph-build a document
//	hipporag2 query    - Run a query through route_7_hipporag2
//	hipporag2 schema   - Apply or dump the declared graph schema
//	hipporag2 version  - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set by goreleaser.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	rootCmd := &cobra.Command{
		Use:   "hipporag2",
		Short: "Graph-augmented retrieval engine over a Neo4j tenant graph",
	}
	rootCmd.PersistentFlags().String("config", "", "path to config YAML (defaults applied if omitted)")

	rootCmd.AddCommand(newIngestCommand())
	rootCmd.AddCommand(newQueryCommand())
	rootCmd.AddCommand(newSchemaCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd.Execute()
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("hipporag2 %s (commit: %s)\n", version, commit)
		},
	}
}

func loadConfigFlag(cmd *cobra.Command) (string, error) {
	return cmd.Flags().GetString("config")
}
