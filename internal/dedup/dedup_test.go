package dedup

import (
	"testing"

	"github.com/lex00/hipporag2-go/internal/graphtypes"
)

func TestCanonicalKey(t *testing.T) {
	tests := []struct{ a, b string }{
		{"Fabrikam Inc.", "Fabrikam Incorporated"},
		{"Acme Corp", "acme corporation"},
		{"Smith & Co.", "Smith Co"},
	}
	for _, tt := range tests {
		ka, kb := CanonicalKey(tt.a), CanonicalKey(tt.b)
		if ka != kb {
			t.Errorf("CanonicalKey(%q)=%q != CanonicalKey(%q)=%q", tt.a, ka, tt.b, kb)
		}
	}
}

func TestCanonicalKey_Stable(t *testing.T) {
	if CanonicalKey("Fabrikam Inc.") != CanonicalKey("Fabrikam Inc.") {
		t.Fatal("canonical key must be stable across repeated calls")
	}
}

func TestDedupe_ExactMergeByCanonicalKey(t *testing.T) {
	entities := []graphtypes.Entity{
		{ID: "e1", Name: "Fabrikam Inc."},
		{ID: "e2", Name: "Fabrikam Incorporated"},
		{ID: "e3", Name: "Contoso Ltd"},
	}
	res := Dedupe("group1", entities, 0.95)

	if len(res.Entities) != 2 {
		t.Fatalf("expected 2 merged entities, got %d", len(res.Entities))
	}
	if res.Remap["e1"] != res.Remap["e2"] {
		t.Errorf("e1 and e2 should map to the same canonical id")
	}
	if res.Remap["e3"] == res.Remap["e1"] {
		t.Errorf("e3 should not merge with e1/e2")
	}
}

func TestDedupe_DeterministicAcrossRuns(t *testing.T) {
	ents := []graphtypes.Entity{{ID: "e1", Name: "Acme Corp"}}
	r1 := Dedupe("group1", ents, 0.95)
	r2 := Dedupe("group1", ents, 0.95)
	if r1.Entities[0].ID != r2.Entities[0].ID {
		t.Fatal("dedupe must produce the same id for the same input across runs")
	}
}

func TestDedupe_NeverDropsMention(t *testing.T) {
	remap := map[string]string{"e1": "canonical1"}
	mentions := []graphtypes.Mention{{EntityID: "e1", ChunkID: "c1"}, {EntityID: "e2", ChunkID: "c2"}}
	out := RemapMentions(mentions, remap)
	if len(out) != len(mentions) {
		t.Fatalf("expected %d mentions, got %d", len(mentions), len(out))
	}
	if out[0].EntityID != "canonical1" {
		t.Errorf("expected remapped entity id, got %q", out[0].EntityID)
	}
	if out[1].EntityID != "e2" {
		t.Errorf("expected untouched entity id, got %q", out[1].EntityID)
	}
}
