package graphbuild

import "testing"

func TestParentPathKey(t *testing.T) {
	if got := parentPathKey("A > B > C"); got != "A > B" {
		t.Errorf("parentPathKey = %q, want %q", got, "A > B")
	}
	if got := parentPathKey("A"); got != "" {
		t.Errorf("parentPathKey of root = %q, want empty", got)
	}
}

func TestSectionID_StableForSamePath(t *testing.T) {
	a := sectionID("doc1", "Intro > Background")
	b := sectionID("doc1", "Intro > Background")
	if a != b {
		t.Fatal("expected sectionID to be stable for the same doc/path")
	}
	if a == sectionID("doc2", "Intro > Background") {
		t.Fatal("expected sectionID to vary across documents")
	}
}

func TestCosine_IdenticalVectorsScoreOne(t *testing.T) {
	v := []float32{1, 2, 3}
	if got := cosine(v, v); got < 0.999999 {
		t.Errorf("cosine(v, v) = %v, want ~1", got)
	}
}

func TestCosine_MismatchedLengthReturnsZero(t *testing.T) {
	if got := cosine([]float32{1, 2}, []float32{1, 2, 3}); got != 0 {
		t.Errorf("expected 0 for mismatched length, got %v", got)
	}
}

func TestExtractFactSpans_FindsCurrencyAndDate(t *testing.T) {
	evidence := []string{"Payment of $4,500.00 is due by 2026-03-01."}
	spans := extractFactSpans(evidence)
	if len(spans) != 2 {
		t.Fatalf("expected 2 fact spans, got %d: %v", len(spans), spans)
	}
}

func TestMissingFactSpans_DetectsOmission(t *testing.T) {
	missing := missingFactSpans("The amount was paid on time.", []string{"$4,500.00", "2026-03-01"})
	if len(missing) != 2 {
		t.Fatalf("expected both spans missing, got %v", missing)
	}
}

func TestMissingFactSpans_NoneWhenAllPresent(t *testing.T) {
	missing := missingFactSpans("Paid $4,500.00 by 2026-03-01 as agreed.", []string{"$4,500.00", "2026-03-01"})
	if len(missing) != 0 {
		t.Fatalf("expected no missing spans, got %v", missing)
	}
}

func TestHallucinatedValueSpans_DetectsUnsourcedAmount(t *testing.T) {
	evidence := []string{"The contract was signed in March."}
	if !hallucinatedValueSpans("The total due was $9,999.00.", evidence) {
		t.Error("expected hallucinated span to be detected")
	}
}

func TestHallucinatedValueSpans_FalseWhenSourced(t *testing.T) {
	evidence := []string{"Payment of $4,500.00 is due."}
	if hallucinatedValueSpans("As noted, $4,500.00 is owed.", evidence) {
		t.Error("expected sourced span not to be flagged as hallucinated")
	}
}

func TestSplitTitleAndSummary_ParsesTitlePrefix(t *testing.T) {
	title, summary := splitTitleAndSummary("TITLE: Vendor Agreements\nSUMMARY: A cluster of vendor contracts.")
	if title != "Vendor Agreements" {
		t.Errorf("title = %q, want Vendor Agreements", title)
	}
	if summary != "A cluster of vendor contracts." {
		t.Errorf("summary = %q", summary)
	}
}

func TestSplitTitleAndSummary_FallsBackWhenNoPrefix(t *testing.T) {
	title, summary := splitTitleAndSummary("Just a plain response with no header.")
	if title != "" {
		t.Errorf("expected empty title, got %q", title)
	}
	if summary != "Just a plain response with no header." {
		t.Errorf("summary = %q", summary)
	}
}
