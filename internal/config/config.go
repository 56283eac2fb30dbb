// Package config loads the engine's well-known options from YAML, with
// environment-variable overrides, and supports hot-reload via an
// fsnotify-backed Watcher. Config values themselves are immutable
// snapshots: each reload produces a new *Config swapped behind an
// atomic pointer rather than mutated in place.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the full set of options the core reads, per the
// configuration surface table. Zero values are never used directly;
// Load always fills defaults first.
type Config struct {
	// Chunking
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`

	// Embeddings
	EmbeddingDimensions int `yaml:"embedding_dimensions"`

	// Extraction
	MinEntities         int  `yaml:"min_entities"`
	MinMentions         int  `yaml:"min_mentions"`
	UseNativeExtractor  bool `yaml:"use_native_extractor"`
	ExtractionConcurrency int `yaml:"extraction_concurrency"`

	// PPR
	PassageNodeWeight     float64 `yaml:"passage_node_weight"`
	Damping               float64 `yaml:"damping"`
	SynonymThreshold      float64 `yaml:"synonym_threshold"`
	SectionSimThreshold   float64 `yaml:"section_sim_threshold"`
	SectionEdgeWeight     float64 `yaml:"section_edge_weight"`
	PPRMaxIterations      int     `yaml:"ppr_max_iterations"`
	PPRConvergenceThreshold float64 `yaml:"ppr_convergence_threshold"`

	// Retrieval widths
	TripleTopK      int `yaml:"triple_top_k"`
	DPRTopK         int `yaml:"dpr_top_k"`
	PPRPassageTopK  int `yaml:"ppr_passage_top_k"`
	SentenceTopK    int `yaml:"sentence_top_k"`

	// Optional seed weights
	WStructural float64 `yaml:"w_structural"`
	WCommunity  float64 `yaml:"w_community"`

	// Feature flags
	IncludeSectionGraph    bool `yaml:"include_section_graph"`
	StructuralSeedsEnabled bool `yaml:"structural_seeds_enabled"`
	CommunitySeedsEnabled  bool `yaml:"community_seeds_enabled"`
	SentenceSearchEnabled  bool `yaml:"sentence_search_enabled"`

	// Dedup
	SimilarityThreshold float64 `yaml:"similarity_threshold"`

	// Graph store / providers (not part of the well-known options table,
	// but required to construct the runtime).
	Neo4jURI      string `yaml:"neo4j_uri"`
	Neo4jUser     string `yaml:"neo4j_user"`
	Neo4jPassword string `yaml:"neo4j_password"`
	Neo4jDatabase string `yaml:"neo4j_database"`

	EmbeddingProvider string `yaml:"embedding_provider"`
	EmbeddingModel    string `yaml:"embedding_model"`
	EmbeddingAPIKey   string `yaml:"embedding_api_key"`

	LLMProvider string `yaml:"llm_provider"`
	LLMModel    string `yaml:"llm_model"`
	LLMAPIKey   string `yaml:"llm_api_key"`
}

// Defaults returns the configuration surface's documented defaults.
func Defaults() Config {
	return Config{
		ChunkSize:               512,
		ChunkOverlap:            64,
		EmbeddingDimensions:     3072,
		MinEntities:             3,
		MinMentions:             5,
		UseNativeExtractor:      true,
		ExtractionConcurrency:  4,
		PassageNodeWeight:       0.05,
		Damping:                 0.5,
		SynonymThreshold:        0.8,
		SectionSimThreshold:     0.5,
		SectionEdgeWeight:       0.1,
		PPRMaxIterations:        50,
		PPRConvergenceThreshold: 1e-6,
		TripleTopK:              5,
		DPRTopK:                 20,
		PPRPassageTopK:          20,
		SentenceTopK:            30,
		WStructural:             0.2,
		WCommunity:              0.1,
		SimilarityThreshold:     0.95,
		Neo4jDatabase:           "neo4j",
	}
}

// Load reads a YAML file over the defaults, then applies environment
// overrides named HIPPORAG2_<UPPER_SNAKE_FIELD_NAME> (e.g.
// HIPPORAG2_CHUNK_SIZE); only the fields listed in applyEnvOverrides
// have one. A missing path is not an error: defaults plus env
// overrides apply.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces the configuration invariants that are fatal at
// startup if violated.
func (c Config) Validate() error {
	if c.EmbeddingDimensions <= 0 {
		return fmt.Errorf("embedding_dimensions must be positive, got %d", c.EmbeddingDimensions)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk_overlap (%d) must be smaller than chunk_size (%d)", c.ChunkOverlap, c.ChunkSize)
	}
	if c.Damping <= 0 || c.Damping >= 1 {
		return fmt.Errorf("damping must be in (0,1), got %v", c.Damping)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	setInt := func(env string, dst *int) {
		if v, ok := os.LookupEnv(env); ok {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setFloat := func(env string, dst *float64) {
		if v, ok := os.LookupEnv(env); ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
			}
		}
	}
	setBool := func(env string, dst *bool) {
		if v, ok := os.LookupEnv(env); ok {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}
	setString := func(env string, dst *string) {
		if v, ok := os.LookupEnv(env); ok {
			*dst = v
		}
	}

	setInt("HIPPORAG2_CHUNK_SIZE", &cfg.ChunkSize)
	setInt("HIPPORAG2_CHUNK_OVERLAP", &cfg.ChunkOverlap)
	setInt("HIPPORAG2_EMBEDDING_DIMENSIONS", &cfg.EmbeddingDimensions)
	setFloat("HIPPORAG2_DAMPING", &cfg.Damping)
	setFloat("HIPPORAG2_PASSAGE_NODE_WEIGHT", &cfg.PassageNodeWeight)
	setBool("HIPPORAG2_STRUCTURAL_SEEDS_ENABLED", &cfg.StructuralSeedsEnabled)
	setBool("HIPPORAG2_COMMUNITY_SEEDS_ENABLED", &cfg.CommunitySeedsEnabled)
	setBool("HIPPORAG2_SENTENCE_SEARCH_ENABLED", &cfg.SentenceSearchEnabled)
	setString("HIPPORAG2_NEO4J_URI", &cfg.Neo4jURI)
	setString("HIPPORAG2_NEO4J_USER", &cfg.Neo4jUser)
	setString("HIPPORAG2_NEO4J_PASSWORD", &cfg.Neo4jPassword)
	setString("HIPPORAG2_LLM_API_KEY", &cfg.LLMAPIKey)
	setString("HIPPORAG2_EMBEDDING_API_KEY", &cfg.EmbeddingAPIKey)
}
