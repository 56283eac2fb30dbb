// Package collab defines the thin collaborator interfaces the route
// handler hands off to: a downstream synthesizer that turns retrieved
// evidence into a final answer. Kept separate from llmprovider because
// the synthesizer's contract (structured evidence in, citations out)
// is a different shape than a bare completion call.
package collab

import "context"

// EvidenceChunk is one pre-fetched passage handed to the synthesizer.
type EvidenceChunk struct {
	ID           string
	Source       string
	Text         string
	Metadata     map[string]any
	EntityScore  float64
}

// CoverageChunk is a sentence-search hit passed alongside the main
// evidence set.
type CoverageChunk struct {
	Text          string
	DocumentTitle string
	DocumentID    string
	SectionPath   []string
	PageNumber    int
	EntityScore   float64
}

// EvidenceNode is a (name, score) pair from the PPR ranking.
type EvidenceNode struct {
	Name  string
	Score float64
}

// SynthesisInput is everything the route handler hands to the
// synthesizer after retrieval.
type SynthesisInput struct {
	Query                 string
	EvidenceNodes         []EvidenceNode
	PreFetchedChunks      []EvidenceChunk
	CoverageChunks        []CoverageChunk
	GraphStructuralHeader string
	ResponseType          string
}

// Citation is one source reference in a synthesized answer.
type Citation struct {
	Index         int
	ChunkID       string
	DocumentID    string
	DocumentTitle string
	DocumentURL   string
	PageNumber    int
	SectionPath   []string
	StartOffset   int
	EndOffset     int
	Score         float64
	TextPreview   string
}

// SynthesisOutput is the synthesizer's answer.
type SynthesisOutput struct {
	Response       string
	Citations      []Citation
	TextChunksUsed int
	Usage          Usage
}

// Usage mirrors the provider token accounting shape.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Synthesizer turns retrieved evidence into a final, cited answer.
type Synthesizer interface {
	Synthesize(ctx context.Context, input SynthesisInput) (SynthesisOutput, error)
}
