// Package chunker splits a document's extraction units into fixed-size
// overlapping TextChunks, preserving section and page metadata and
// avoiding mid-sentence splits where possible.
package chunker

import (
	"strings"

	"github.com/lex00/hipporag2-go/internal/corerr"
	"github.com/lex00/hipporag2-go/internal/graphtypes"
)

// ExtractionUnit is a pre-split piece of a document as produced by the
// (external) document extractor: a span of text plus its layout context.
type ExtractionUnit struct {
	Text          string
	SectionPath   []string
	PageNumber    int
	SourceURL     string
	TableSummary  string
}

// Options configures chunk sizing. Sizes are measured in whitespace-
// delimited tokens, a deliberately crude approximation since the exact
// tokenizer is a provider concern.
type Options struct {
	ChunkSize    int // target tokens per chunk, 400-600
	ChunkOverlap int // overlap tokens between adjacent chunks
}

// Chunk splits a document's extraction units into an ordered, contiguous
// sequence of TextChunk. chunk_index is unique per document and strictly
// increasing. Returns a KindData EmptyDocument error if no unit has
// content.
func Chunk(documentID string, units []ExtractionUnit, opts Options) ([]graphtypes.TextChunk, error) {
	tokens := flatten(units)
	if len(tokens) == 0 {
		return nil, corerr.New(corerr.KindData, "chunker.Chunk", errEmptyDocument{documentID})
	}

	size := opts.ChunkSize
	if size <= 0 {
		size = 512
	}
	overlap := opts.ChunkOverlap
	if overlap < 0 || overlap >= size {
		overlap = size / 8
	}

	var chunks []graphtypes.TextChunk
	idx := 0
	for start := 0; start < len(tokens); {
		end := start + size
		if end > len(tokens) {
			end = len(tokens)
		} else {
			end = extendToSentenceBoundary(tokens, end)
		}

		chunkTokens := tokens[start:end]
		meta := mergeMetadata(units, chunkTokens)

		chunks = append(chunks, graphtypes.TextChunk{
			DocumentID: documentID,
			ChunkIndex: idx,
			Text:       joinText(chunkTokens),
			Tokens:     len(chunkTokens),
			Metadata:   meta,
		})
		idx++

		if end >= len(tokens) {
			break
		}
		start = end - overlap
		if start < 0 {
			start = 0
		}
	}

	return chunks, nil
}

// token is a single whitespace-delimited word tagged with the
// extraction unit it came from, so chunk boundaries can recover
// section/page metadata and sentence boundaries can be detected.
type token struct {
	text       string
	unitIndex  int
	endOfSentence bool
}

func flatten(units []ExtractionUnit) []token {
	var out []token
	for ui, u := range units {
		text := strings.TrimSpace(u.Text)
		if text == "" {
			continue
		}
		words := strings.Fields(text)
		for wi, w := range words {
			t := token{text: w, unitIndex: ui}
			if endsSentence(w) || wi == len(words)-1 {
				t.endOfSentence = true
			}
			out = append(out, t)
		}
	}
	return out
}

func endsSentence(word string) bool {
	if word == "" {
		return false
	}
	switch word[len(word)-1] {
	case '.', '!', '?':
		return true
	default:
		return false
	}
}

// extendToSentenceBoundary nudges a proposed chunk end forward (up to a
// small lookahead) to land on a sentence boundary rather than splitting
// mid-sentence.
func extendToSentenceBoundary(tokens []token, end int) int {
	const maxLookahead = 20
	for i := end; i < len(tokens) && i < end+maxLookahead; i++ {
		if tokens[i].endOfSentence {
			return i + 1
		}
	}
	return end
}

func joinText(tokens []token) string {
	words := make([]string, len(tokens))
	for i, t := range tokens {
		words[i] = t.text
	}
	return strings.Join(words, " ")
}

// mergeMetadata inherits the allow-listed metadata subset from the
// extraction units a chunk spans: section path and page from the first
// unit, and the table summaries of every unit. ExtractionUnit.SourceURL
// is not carried onto the chunk, and neither is large layout metadata.
func mergeMetadata(units []ExtractionUnit, tokens []token) graphtypes.ChunkMetadata {
	if len(tokens) == 0 {
		return graphtypes.ChunkMetadata{}
	}
	first := units[tokens[0].unitIndex]
	meta := graphtypes.ChunkMetadata{
		SectionPath: first.SectionPath,
		PageNumber:  first.PageNumber,
	}

	seen := map[int]bool{}
	for _, t := range tokens {
		if seen[t.unitIndex] {
			continue
		}
		seen[t.unitIndex] = true
		if s := units[t.unitIndex].TableSummary; s != "" {
			meta.Tables = append(meta.Tables, s)
		}
	}
	return meta
}

type errEmptyDocument struct{ documentID string }

func (e errEmptyDocument) Error() string {
	return "empty document: " + e.documentID
}
