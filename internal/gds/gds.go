// Package gds runs graph projections and GDS algorithm calls against a
// live Neo4j session. The Cypher generation is the teacher's
// internal/algorithms and internal/projections serializers unchanged;
// this package is the missing other half, since the teacher only ever
// rendered these to strings for a static-analysis tool and never ran
// them against a database.
package gds

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/lex00/hipporag2-go/internal/algorithms"
	"github.com/lex00/hipporag2-go/internal/graphstore"
	"github.com/lex00/hipporag2-go/internal/projections"
)

// Runner executes graph projections and algorithm calls for a single
// tenant's Neo4j database.
type Runner struct {
	store   *graphstore.Store
	algoSer *algorithms.AlgorithmSerializer
	projSer *projections.ProjectionSerializer
}

// NewRunner builds a Runner over an already-open Store.
func NewRunner(store *graphstore.Store) *Runner {
	return &Runner{
		store:   store,
		algoSer: algorithms.NewAlgorithmSerializer(),
		projSer: projections.NewProjectionSerializer(),
	}
}

// Project creates a named in-memory graph projection scoped to group_id
// filtered node/relationship queries, returning a release func that
// drops the projection. Callers should defer release() immediately:
//
//	proj, release, err := runner.Project(ctx, groupID, "community-detect", nodeLabels, relTypes)
//	if err != nil { return err }
//	defer release(ctx)
func (r *Runner) Project(ctx context.Context, groupID, graphName string, nodeLabels, relTypes []string) (*projections.NativeProjection, func(context.Context) error, error) {
	proj := &projections.NativeProjection{
		BaseProjection: projections.BaseProjection{
			Name:      graphName,
			GraphName: graphName,
		},
		NodeLabels:        nodeLabels,
		RelationshipTypes: relTypes,
	}

	stmt, err := r.projSer.ToCypher(proj)
	if err != nil {
		return nil, nil, fmt.Errorf("serialize projection %s: %w", graphName, err)
	}
	if _, err := r.store.Run(ctx, stmt, map[string]any{"groupId": groupID}); err != nil {
		return nil, nil, fmt.Errorf("create projection %s: %w", graphName, err)
	}

	release := func(ctx context.Context) error {
		_, err := r.store.Run(ctx, r.projSer.DropGraph(graphName), nil)
		return err
	}
	return proj, release, nil
}

// Record is one row of a YIELD result.
type Record = *neo4j.Record

// Run executes an algorithm's CALL statement and collects every YIELD
// row. The Cypher is generated by the teacher's AlgorithmSerializer;
// this is the part that actually sends it to the driver.
func (r *Runner) Run(ctx context.Context, algo algorithms.Algorithm) ([]Record, error) {
	stmt, err := r.algoSer.ToCypher(algo)
	if err != nil {
		return nil, fmt.Errorf("serialize algorithm %s: %w", algo.AlgorithmName(), err)
	}
	records, err := r.store.Run(ctx, stmt, nil)
	if err != nil {
		return nil, fmt.Errorf("run algorithm %s: %w", algo.AlgorithmName(), err)
	}
	return records, nil
}

// buildLeiden constructs the Leiden config used for community
// detection, split out from RunLeiden so the wiring can be checked
// without a live driver.
func buildLeiden(graphName string, gamma, theta, tolerance float64, includeIntermediate bool) *algorithms.Leiden {
	return &algorithms.Leiden{
		BaseAlgorithm: algorithms.BaseAlgorithm{
			Name:      "leiden-" + graphName,
			GraphName: graphName,
			Mode:      algorithms.Stream,
		},
		Gamma:                          gamma,
		Theta:                          theta,
		Tolerance:                      tolerance,
		IncludeIntermediateCommunities: includeIntermediate,
	}
}

// buildPageRank constructs the PageRank config used for the indexing-
// time pagerank property, split out from RunPageRank for the same reason.
func buildPageRank(graphName string, dampingFactor float64, maxIterations int, tolerance float64, relationshipWeightProperty string) *algorithms.PageRank {
	return &algorithms.PageRank{
		BaseAlgorithm: algorithms.BaseAlgorithm{
			Name:      "pagerank-" + graphName,
			GraphName: graphName,
			Mode:      algorithms.Stream,
		},
		DampingFactor:              dampingFactor,
		MaxIterations:              maxIterations,
		Tolerance:                  tolerance,
		RelationshipWeightProperty: relationshipWeightProperty,
	}
}

// buildWCC constructs the weakly-connected-components config.
func buildWCC(graphName string) *algorithms.WCC {
	return &algorithms.WCC{
		BaseAlgorithm: algorithms.BaseAlgorithm{
			Name:      "wcc-" + graphName,
			GraphName: graphName,
			Mode:      algorithms.Stream,
		},
	}
}

// RunLeiden executes a community-detection pass over graphName and
// returns (nodeId, communityId) pairs, used to build the hierarchical
// community layer.
func (r *Runner) RunLeiden(ctx context.Context, graphName string, gamma, theta, tolerance float64, includeIntermediate bool) ([]Record, error) {
	return r.Run(ctx, buildLeiden(graphName, gamma, theta, tolerance, includeIntermediate))
}

// RunPageRank executes PageRank over graphName and returns (nodeId,
// score) pairs. No source nodes are set, so the ranking is not
// personalized; graphbuild uses it for the pagerank node property.
func (r *Runner) RunPageRank(ctx context.Context, graphName string, dampingFactor float64, maxIterations int, tolerance float64, relationshipWeightProperty string) ([]Record, error) {
	return r.Run(ctx, buildPageRank(graphName, dampingFactor, maxIterations, tolerance, relationshipWeightProperty))
}

// RunWCC executes weakly-connected-components over graphName and
// returns (nodeId, communityId) pairs. Nothing in the indexing pipeline
// calls it.
func (r *Runner) RunWCC(ctx context.Context, graphName string) ([]Record, error) {
	return r.Run(ctx, buildWCC(graphName))
}
