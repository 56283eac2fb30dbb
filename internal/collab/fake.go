package collab

import (
	"context"
	"strings"
)

// FakeSynthesizer is a deterministic synthesizer, used by the CLI's
// query command: it echoes the
// query and turns every pre-fetched chunk into a citation in order,
// without calling an LLM.
type FakeSynthesizer struct {
	ResponsePrefix string
}

func (f *FakeSynthesizer) Synthesize(ctx context.Context, input SynthesisInput) (SynthesisOutput, error) {
	prefix := f.ResponsePrefix
	if prefix == "" {
		prefix = "answer"
	}

	var citations []Citation
	var texts []string
	for i, c := range input.PreFetchedChunks {
		texts = append(texts, c.Text)
		citations = append(citations, Citation{
			Index:       i + 1,
			ChunkID:     c.ID,
			TextPreview: preview(c.Text, 200),
			Score:       c.EntityScore,
		})
	}

	return SynthesisOutput{
		Response:       prefix + ": " + strings.Join(texts, " "),
		Citations:      citations,
		TextChunksUsed: len(input.PreFetchedChunks),
	}, nil
}

func preview(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max]
}
