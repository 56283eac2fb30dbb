// Package sentence splits text chunks into fine-grained sentence units
// for skeleton retrieval: prose sentences, linearized table rows, and
// figure captions, each filtered for noise and deduplicated across a
// group's chunks.
package sentence

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/lex00/hipporag2-go/internal/graphtypes"
)

// Thresholds bounds the noise filters applied per source.
type Thresholds struct {
	ProseMinChars   int
	ProseMinWords   int
	TableMinChars   int
	TableMinWords   int
	CaptionMinChars int
}

// DefaultThresholds matches the documented floors.
var DefaultThresholds = Thresholds{
	ProseMinChars:   30,
	ProseMinWords:   5,
	TableMinChars:   15,
	TableMinWords:   3,
	CaptionMinChars: 15,
}

var kvLabelRE = regexp.MustCompile(`^\s*[A-Z][A-Za-z ]{0,20}:\s*\S`)
var sentenceSplitRE = regexp.MustCompile(`(?:[.!?]+["')\]]?)\s+`)

// commonAbbreviations are not treated as sentence-ending periods.
var commonAbbreviations = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true,
	"inc": true, "ltd": true, "co": true, "corp": true, "vs": true,
	"e.g": true, "i.e": true, "etc": true, "no": true, "vol": true,
	"fig": true, "eq": true, "approx": true, "u.s": true,
}

// Extract produces sentence nodes for one chunk. Cross-chunk dedup is
// the caller's responsibility (Dedupe), since it spans every chunk in
// a group.
func Extract(chunk graphtypes.TextChunk, thr Thresholds) []graphtypes.Sentence {
	var out []graphtypes.Sentence
	idx := 0

	for _, s := range splitSentences(chunk.Text) {
		if !keepProse(s, thr) {
			continue
		}
		out = append(out, graphtypes.Sentence{
			ID:           sentenceID(chunk.ID, idx),
			GroupID:      chunk.GroupID,
			Text:         s,
			ChunkID:      chunk.ID,
			DocumentID:   chunk.DocumentID,
			Source:       graphtypes.SentenceFromParagraph,
			IndexInChunk: idx,
			SectionPath:  chunk.Metadata.SectionPath,
			PageNumber:   chunk.Metadata.PageNumber,
		})
		idx++
	}

	for _, kvp := range chunk.Metadata.KeyValuePairs {
		row := linearizeRow(kvp.Key, kvp.Value)
		if !keepTableRow(row, thr) {
			continue
		}
		out = append(out, graphtypes.Sentence{
			ID:           sentenceID(chunk.ID, idx),
			GroupID:      chunk.GroupID,
			Text:         row,
			ChunkID:      chunk.ID,
			DocumentID:   chunk.DocumentID,
			Source:       graphtypes.SentenceFromTableRow,
			IndexInChunk: idx,
			SectionPath:  chunk.Metadata.SectionPath,
			PageNumber:   chunk.Metadata.PageNumber,
		})
		idx++
	}

	for _, caption := range chunk.Metadata.Figures {
		if !keepCaption(caption, thr) {
			continue
		}
		out = append(out, graphtypes.Sentence{
			ID:           sentenceID(chunk.ID, idx),
			GroupID:      chunk.GroupID,
			Text:         caption,
			ChunkID:      chunk.ID,
			DocumentID:   chunk.DocumentID,
			Source:       graphtypes.SentenceFromFigureCaption,
			IndexInChunk: idx,
			SectionPath:  chunk.Metadata.SectionPath,
			PageNumber:   chunk.Metadata.PageNumber,
		})
		idx++
	}

	return out
}

func sentenceID(chunkID string, index int) string {
	return chunkID + "_sent_" + strconv.Itoa(index)
}

// linearizeRow renders a key/value pair the way a table row's header
// and cell are linearized: "<header>: <cell>".
func linearizeRow(key, value string) string {
	return key + ": " + value
}

// splitSentences is an abbreviation-aware sentence boundary split: it
// treats a trailing period as an abbreviation (not a boundary) when the
// preceding token is a known short form.
func splitSentences(text string) []string {
	raw := sentenceSplitRE.Split(strings.TrimSpace(text), -1)
	var out []string
	var pending string
	for _, piece := range raw {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		if pending != "" {
			pending = pending + " " + piece
		} else {
			pending = piece
		}
		if endsWithAbbreviation(pending) {
			continue
		}
		out = append(out, pending)
		pending = ""
	}
	if pending != "" {
		out = append(out, pending)
	}
	return out
}

func endsWithAbbreviation(s string) bool {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return false
	}
	last := strings.ToLower(strings.Trim(fields[len(fields)-1], ".,;:"))
	return commonAbbreviations[last]
}

func keepProse(s string, thr Thresholds) bool {
	s = strings.TrimSpace(s)
	if len(s) < thr.ProseMinChars {
		return false
	}
	words := strings.Fields(s)
	if len(words) < thr.ProseMinWords {
		return false
	}
	if kvLabelRE.MatchString(s) {
		return false
	}
	if isAllCapsShort(s, words) {
		return false
	}
	if isEssentiallyNumeric(s) {
		return false
	}
	return true
}

func keepTableRow(s string, thr Thresholds) bool {
	s = strings.TrimSpace(s)
	if len(s) < thr.TableMinChars {
		return false
	}
	if len(strings.Fields(s)) < thr.TableMinWords {
		return false
	}
	return true
}

func keepCaption(s string, thr Thresholds) bool {
	return len(strings.TrimSpace(s)) >= thr.CaptionMinChars
}

func isAllCapsShort(s string, words []string) bool {
	if len(words) >= 10 {
		return false
	}
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
	}
	return true
}

var digitsAndPunctRE = regexp.MustCompile(`^[\d\s.,:;%$€£/\-()]+$`)

func isEssentiallyNumeric(s string) bool {
	return digitsAndPunctRE.MatchString(s)
}

// Dedupe removes case-insensitive duplicate sentence text across every
// chunk of a group, keeping the first occurrence.
func Dedupe(sentences []graphtypes.Sentence) []graphtypes.Sentence {
	seen := map[string]bool{}
	var out []graphtypes.Sentence
	for _, s := range sentences {
		key := strings.ToLower(strings.TrimSpace(s.Text))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
