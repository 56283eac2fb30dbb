// Package algorithms provides typed configurations for the Neo4j Graph
// Data Science calls the indexing pipeline issues: PageRank (entity
// importance), Leiden (community detection), and WCC (weakly connected
// components).
//
// Example usage:
//
//	pr := &algorithms.PageRank{
//		BaseAlgorithm: algorithms.BaseAlgorithm{Name: "influence_score", GraphName: "social_graph"},
//		DampingFactor: 0.85,
//		MaxIterations: 50,
//	}
//	cypher, err := algorithms.NewAlgorithmSerializer().ToCypher(pr)
package algorithms

// Category represents the algorithm category.
type Category string

const (
	Centrality Category = "Centrality"
	Community  Category = "Community"
)

// Mode represents the algorithm execution mode.
type Mode string

const (
	// Stream returns results as a stream without persisting.
	Stream Mode = "stream"
	// Stats returns aggregate statistics.
	Stats Mode = "stats"
	// Mutate adds results to the in-memory graph projection.
	Mutate Mode = "mutate"
	// Write writes results back to the database.
	Write Mode = "write"
)

// Algorithm is the interface that all GDS algorithm configurations implement.
type Algorithm interface {
	// AlgorithmName returns the name of this algorithm configuration.
	AlgorithmName() string
	// AlgorithmType returns the GDS algorithm type (e.g., "gds.pageRank").
	AlgorithmType() string
	// AlgorithmCategory returns the category of this algorithm.
	AlgorithmCategory() Category
	// GetGraphName returns the graph projection name.
	GetGraphName() string
	// GetMode returns the execution mode.
	GetMode() Mode
}

// BaseAlgorithm contains common algorithm configuration fields.
type BaseAlgorithm struct {
	// Name is the configuration name.
	Name string
	// GraphName is the name of the graph projection to use.
	GraphName string
	// Mode is the execution mode (stream, stats, mutate, write).
	Mode Mode
	// Concurrency is the number of concurrent threads (default: 4).
	Concurrency int
	// NodeLabels filters which nodes to include.
	NodeLabels []string
	// RelationshipTypes filters which relationships to include.
	RelationshipTypes []string
}

// AlgorithmName returns the configuration name.
func (b *BaseAlgorithm) AlgorithmName() string {
	return b.Name
}

// GetGraphName returns the graph projection name.
func (b *BaseAlgorithm) GetGraphName() string {
	return b.GraphName
}

// GetMode returns the execution mode.
func (b *BaseAlgorithm) GetMode() Mode {
	if b.Mode == "" {
		return Stream
	}
	return b.Mode
}

// PageRank computes the PageRank centrality score.
type PageRank struct {
	BaseAlgorithm
	// DampingFactor is the probability of following an outgoing relationship (default: 0.85).
	DampingFactor float64
	// MaxIterations is the maximum number of iterations (default: 20).
	MaxIterations int
	// Tolerance is the minimum change required for convergence (default: 0.0000001).
	Tolerance float64
	// RelationshipWeightProperty is the property to use for weighted PageRank.
	RelationshipWeightProperty string
	// WriteProperty is the node property to write results to (for write mode).
	WriteProperty string
	// MutateProperty is the node property to mutate (for mutate mode).
	MutateProperty string
}

func (p *PageRank) AlgorithmType() string       { return "gds.pageRank" }
func (p *PageRank) AlgorithmCategory() Category { return Centrality }

// Leiden detects communities, optionally reporting the intermediate
// levels of its hierarchy of nested communities.
type Leiden struct {
	BaseAlgorithm
	MaxLevels                      int
	Gamma                          float64 // Resolution parameter (default: 1.0)
	Theta                          float64 // Randomness parameter (default: 0.01)
	Tolerance                      float64
	IncludeIntermediateCommunities bool
	RandomSeed                     int64
	RelationshipWeightProperty     string
	WriteProperty                  string
	MutateProperty                 string
}

func (l *Leiden) AlgorithmType() string       { return "gds.leiden" }
func (l *Leiden) AlgorithmCategory() Category { return Community }

// WCC finds weakly connected components.
type WCC struct {
	BaseAlgorithm
	// SeedProperty is the property for initial component assignments.
	SeedProperty               string
	RelationshipWeightProperty string
	// Threshold is the minimum weight for relationships.
	Threshold      float64
	WriteProperty  string
	MutateProperty string
}

func (w *WCC) AlgorithmType() string       { return "gds.wcc" }
func (w *WCC) AlgorithmCategory() Category { return Community }
