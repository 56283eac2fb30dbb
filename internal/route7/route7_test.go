package route7

import (
	"strings"
	"testing"

	"github.com/lex00/hipporag2-go/internal/corerr"
	"github.com/lex00/hipporag2-go/internal/graphtypes"
	"github.com/lex00/hipporag2-go/internal/ppr"
	"github.com/lex00/hipporag2-go/internal/triplestore"
)

func TestParseRecognitionIndices_CommaSeparated(t *testing.T) {
	got := parseRecognitionIndices("1, 3", 3)
	if len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Fatalf("got %v", got)
	}
}

func TestParseRecognitionIndices_None(t *testing.T) {
	got := parseRecognitionIndices("NONE", 3)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", got)
	}
}

func TestParseRecognitionIndices_IgnoresOutOfRange(t *testing.T) {
	got := parseRecognitionIndices("1, 9, 2", 3)
	if len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Fatalf("got %v", got)
	}
}

func TestParseRecognitionIndices_Garbage(t *testing.T) {
	got := parseRecognitionIndices("I am not sure about any of these", 3)
	if len(got) != 0 {
		t.Fatalf("expected no indices parsed from garbage, got %v", got)
	}
}

func TestBuildRecognitionPrompt_NumbersCandidates(t *testing.T) {
	hits := []triplestore.Scored{
		{Triple: graphtypes.Triple{SubjectName: "Acme", Predicate: "owns", ObjectName: "Widget"}, Score: 0.9},
		{Triple: graphtypes.Triple{SubjectName: "Bob", Predicate: "signed", ObjectName: "Contract"}, Score: 0.5},
	}
	prompt := buildRecognitionPrompt(hits)
	if !strings.Contains(prompt, "1. Acme owns Widget") || !strings.Contains(prompt, "2. Bob signed Contract") {
		t.Fatalf("prompt missing numbered candidates: %s", prompt)
	}
}

func TestWrapCandidates_PreservesOrder(t *testing.T) {
	hits := []triplestore.Scored{
		{Triple: graphtypes.Triple{SubjectID: "a"}},
		{Triple: graphtypes.Triple{SubjectID: "b"}},
	}
	got := wrapCandidates(hits)
	if len(got) != 2 || got[0].Triple.SubjectID != "a" || got[1].Triple.SubjectID != "b" {
		t.Fatalf("got %+v", got)
	}
}

func TestNormalize_ScalesToSumOne(t *testing.T) {
	seeds := map[string]float64{"a": 2, "b": 2}
	normalize(seeds)
	if seeds["a"] != 0.5 || seeds["b"] != 0.5 {
		t.Fatalf("got %v", seeds)
	}
}

func TestNormalize_ZeroTotalUnchanged(t *testing.T) {
	seeds := map[string]float64{"a": 0}
	normalize(seeds)
	if seeds["a"] != 0 {
		t.Fatalf("expected zero total to be left alone, got %v", seeds)
	}
}

func TestResortByRank_MatchesRankOrder(t *testing.T) {
	chunks := []fetchedChunk{{ID: "c2"}, {ID: "c1"}, {ID: "c3"}}
	resortByRank(chunks, []string{"c1", "c2", "c3"})
	if chunks[0].ID != "c1" || chunks[1].ID != "c2" || chunks[2].ID != "c3" {
		t.Fatalf("got %+v", chunks)
	}
}

func TestTopChunkIDs_TruncatesToK(t *testing.T) {
	scores := []ppr.Scored{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	got := topChunkIDs(scores, 2)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("got %v", got)
	}
}

func TestTopDPRChunkIDs_TruncatesToK(t *testing.T) {
	hits := []chunkHit{{ChunkID: "a"}, {ChunkID: "b"}, {ChunkID: "c"}}
	got := topDPRChunkIDs(hits, 1)
	if len(got) != 1 || got[0] != "a" {
		t.Fatalf("got %v", got)
	}
}

func TestToEvidenceNodes_LimitsAndMaps(t *testing.T) {
	scores := []ppr.Scored{{ID: "e1", Score: 0.9}, {ID: "e2", Score: 0.4}}
	got := toEvidenceNodes(scores, 1)
	if len(got) != 1 || got[0].Name != "e1" || got[0].Score != 0.9 {
		t.Fatalf("got %+v", got)
	}
}

func TestBuildStructuralHeader_EmptyWhenNoTriples(t *testing.T) {
	if got := buildStructuralHeader(nil); got != "" {
		t.Fatalf("expected empty header, got %q", got)
	}
}

func TestBuildStructuralHeader_ListsTriples(t *testing.T) {
	triples := []tripleCandidate{
		{triplestore.Scored{Triple: graphtypes.Triple{SubjectName: "A", Predicate: "rel", ObjectName: "B"}}},
	}
	got := buildStructuralHeader(triples)
	if got != "- A → rel → B" {
		t.Fatalf("got %q", got)
	}
}

func TestNegativeResult_SetsDetectionReason(t *testing.T) {
	r := negativeResult(corerr.ReasonNoChunks)
	if !r.Metadata.NegativeDetection || r.Metadata.DetectionReason != corerr.ReasonNoChunks {
		t.Fatalf("got %+v", r.Metadata)
	}
	if len(r.Citations) != 0 || len(r.EvidencePath) != 0 {
		t.Fatalf("expected empty citations/evidence path, got %+v", r)
	}
	if r.RouteUsed != routeUsed {
		t.Fatalf("route_used = %q, want %q", r.RouteUsed, routeUsed)
	}
}
