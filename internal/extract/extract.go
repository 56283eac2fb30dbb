// Package extract turns a chunk's text into candidate entities, typed
// relations, and chunk-entity mentions via an LLM, with JSON repair, a
// fallback cascade to weaker extractors, and property validation.
package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/lex00/hipporag2-go/internal/llmprovider"
	"github.com/tidwall/gjson"
)

// Allowed entity and relation labels. Extraction is not strict: entities
// outside this schema are permitted, labeled CONCEPT.
const (
	LabelOrganization = "ORGANIZATION"
	LabelPerson       = "PERSON"
	LabelDocument     = "DOCUMENT"
	LabelLocation     = "LOCATION"
	LabelConcept      = "CONCEPT"
)

var knownEntityLabels = map[string]bool{
	LabelOrganization: true, LabelPerson: true, LabelDocument: true,
	LabelLocation: true, LabelConcept: true,
}

const (
	RelRelatedTo  = "RELATED_TO"
	RelPartyTo    = "PARTY_TO"
	RelLocatedIn  = "LOCATED_IN"
	RelMentions   = "MENTIONS"
	RelDefines    = "DEFINES"
	RelFoundIn    = "FOUND_IN"
	RelReferences = "REFERENCES"
)

// CandidateEntity is an entity as extracted from a single chunk, before
// deduplication assigns it a canonical id.
type CandidateEntity struct {
	Name        string
	Type        string
	Description string
	Aliases     []string
}

// CandidateRelation connects two entities by name (not yet resolved to
// ids) within the scope of one chunk.
type CandidateRelation struct {
	SourceName  string
	TargetName  string
	Label       string
	Description string
}

// Mention is a (entity name, chunk id) pair.
type Mention struct {
	EntityName string
	ChunkID    string
}

// Result is the extractor's output for one chunk.
type Result struct {
	Entities  []CandidateEntity
	Relations []CandidateRelation
	Mentions  []Mention

	// Stats, surfaced to the pipeline's observability counters.
	JSONRepaired  bool
	UsedFallback  string // "", "prompt_only", "heuristic_ner"
	ValidationDropped int
}

// Thresholds gates the fallback cascade.
type Thresholds struct {
	MinEntities int
	MinMentions int
}

// Extractor produces entities/relations/mentions for a chunk, running
// the primary LLM extractor and falling back through weaker strategies
// if the result is too sparse.
type Extractor struct {
	llm        llmprovider.Provider
	thresholds Thresholds
}

func New(llm llmprovider.Provider, thresholds Thresholds) *Extractor {
	return &Extractor{llm: llm, thresholds: thresholds}
}

// Extract runs the primary extractor, then the fallback cascade if the
// result is below threshold. It never returns an error for a sparse or
// malformed response — sparse output falls back, and an exhausted
// cascade returns an empty Result — only a cancelled context propagates.
func (e *Extractor) Extract(ctx context.Context, chunkID, chunkText string) (Result, error) {
	res, err := e.extractPrimary(ctx, chunkID, chunkText)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		res = Result{}
	}

	if len(res.Entities) >= e.thresholds.MinEntities && len(res.Mentions) >= e.thresholds.MinMentions {
		return res, nil
	}

	promptOnly, err := e.extractPromptOnly(ctx, chunkID, chunkText)
	if err == nil && len(promptOnly.Entities) >= e.thresholds.MinEntities && len(promptOnly.Mentions) >= e.thresholds.MinMentions {
		promptOnly.UsedFallback = "prompt_only"
		return promptOnly, nil
	}

	heuristic := extractHeuristicNER(chunkID, chunkText)
	heuristic.UsedFallback = "heuristic_ner"
	return heuristic, nil
}

func (e *Extractor) extractPrimary(ctx context.Context, chunkID, chunkText string) (Result, error) {
	prompt := buildExtractionPrompt(chunkText, true)
	completion, err := e.llm.Complete(ctx, prompt, llmprovider.CompletionOptions{Temperature: 0, MaxTokens: 2048})
	if err != nil {
		return Result{}, fmt.Errorf("primary extraction: %w", err)
	}
	return parseAndValidate(chunkID, completion.Text)
}

func (e *Extractor) extractPromptOnly(ctx context.Context, chunkID, chunkText string) (Result, error) {
	prompt := buildExtractionPrompt(chunkText, false)
	completion, err := e.llm.Complete(ctx, prompt, llmprovider.CompletionOptions{Temperature: 0, MaxTokens: 1024})
	if err != nil {
		return Result{}, fmt.Errorf("prompt-only extraction: %w", err)
	}
	return parseAndValidate(chunkID, completion.Text)
}

func buildExtractionPrompt(chunkText string, fewShot bool) string {
	var b strings.Builder
	b.WriteString("Extract entities and relations from the following text.\n")
	b.WriteString("Allowed entity types: ORGANIZATION, PERSON, DOCUMENT, LOCATION, CONCEPT.\n")
	b.WriteString("Allowed relation types: RELATED_TO, PARTY_TO, LOCATED_IN, MENTIONS, DEFINES, FOUND_IN, REFERENCES.\n")
	if fewShot {
		b.WriteString("Extract aliases when present, e.g. \"Fabrikam Inc.\" -> aliases [\"Fabrikam\", \"Fabrikam Construction\"].\n")
	}
	b.WriteString(`Respond with JSON only: {"entities":[{"name":"","type":"","description":"","aliases":[]}],"relations":[{"source":"","target":"","label":"","description":""}]}` + "\n\n")
	b.WriteString("Text:\n")
	b.WriteString(chunkText)
	return b.String()
}

// parseAndValidate repairs and parses the provider's JSON response, then
// validates required properties, pruning entities/relations that fail.
func parseAndValidate(chunkID, raw string) (Result, error) {
	repaired, repairedAny, ok := repairJSON(raw)
	if !ok {
		return Result{}, fmt.Errorf("json repair failed")
	}

	root := gjson.Parse(repaired)
	var res Result
	res.JSONRepaired = repairedAny

	entityNames := map[string]bool{}
	root.Get("entities").ForEach(func(_, v gjson.Result) bool {
		name := strings.TrimSpace(v.Get("name").String())
		if name == "" {
			res.ValidationDropped++
			return true
		}
		typ := strings.ToUpper(strings.TrimSpace(v.Get("type").String()))
		if !knownEntityLabels[typ] {
			typ = LabelConcept
		}
		var aliases []string
		v.Get("aliases").ForEach(func(_, a gjson.Result) bool {
			if s := strings.TrimSpace(a.String()); s != "" {
				aliases = append(aliases, s)
			}
			return true
		})
		res.Entities = append(res.Entities, CandidateEntity{
			Name:        name,
			Type:        typ,
			Description: v.Get("description").String(),
			Aliases:     aliases,
		})
		res.Mentions = append(res.Mentions, Mention{EntityName: name, ChunkID: chunkID})
		entityNames[name] = true
		return true
	})

	root.Get("relations").ForEach(func(_, v gjson.Result) bool {
		src := strings.TrimSpace(v.Get("source").String())
		tgt := strings.TrimSpace(v.Get("target").String())
		label := strings.ToUpper(strings.TrimSpace(v.Get("label").String()))
		if src == "" || tgt == "" || label == "" {
			res.ValidationDropped++
			return true
		}
		if !entityNames[src] || !entityNames[tgt] {
			// Relation references an entity not in this chunk's
			// extracted set; drop rather than create a dangling edge.
			res.ValidationDropped++
			return true
		}
		res.Relations = append(res.Relations, CandidateRelation{
			SourceName:  src,
			TargetName:  tgt,
			Label:       label,
			Description: v.Get("description").String(),
		})
		return true
	})

	return res, nil
}

// extractHeuristicNER is the last-resort fallback: a capitalized-word
// pattern that seeds CONCEPT entities from runs of capitalized tokens.
// Text with no such run yields an empty Result.
var capRunRE = regexp.MustCompile(`\b([A-Z][a-zA-Z0-9]*(?:\s+[A-Z][a-zA-Z0-9]*){0,4})\b`)

func extractHeuristicNER(chunkID, text string) Result {
	var res Result
	seen := map[string]bool{}
	for _, m := range capRunRE.FindAllString(text, -1) {
		name := strings.TrimSpace(m)
		if name == "" || seen[name] || isSentenceStartOnly(name) {
			continue
		}
		seen[name] = true
		res.Entities = append(res.Entities, CandidateEntity{Name: name, Type: LabelConcept})
		res.Mentions = append(res.Mentions, Mention{EntityName: name, ChunkID: chunkID})
	}
	return res
}

// isSentenceStartOnly filters out single words that are almost
// certainly just a capitalized sentence-initial word, not a name: short,
// single-token, and not all-caps.
func isSentenceStartOnly(s string) bool {
	if strings.Contains(s, " ") {
		return false
	}
	if len(s) > 3 {
		return false
	}
	for _, r := range s {
		if !unicode.IsUpper(r) {
			return true
		}
	}
	return false
}
