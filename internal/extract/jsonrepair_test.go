package extract

import "testing"

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		ok   bool
	}{
		{"valid", `{"a": 1}`, true},
		{"unquoted key", `{a: 1}`, true},
		{"trailing comma", `{"a": 1,}`, true},
		{"doubled braces", `{{"a": 1}}`, true},
		{"missing closing brace", `{"a": 1`, true},
		{"markdown fence", "```json\n{\"a\": 1}\n```", true},
		{"empty", "", false},
		{"garbage", "not json at all {{{", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, ok := repairJSON(tt.in)
			if ok != tt.ok {
				t.Errorf("repairJSON(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
		})
	}
}

func TestParseAndValidate_DropsRelationsWithUnknownEntities(t *testing.T) {
	raw := `{"entities":[{"name":"Acme","type":"ORGANIZATION"}],"relations":[{"source":"Acme","target":"Ghost","label":"RELATED_TO"}]}`
	res, err := parseAndValidate("chunk1", raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Entities) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(res.Entities))
	}
	if len(res.Relations) != 0 {
		t.Errorf("expected relation referencing unknown entity to be dropped, got %d", len(res.Relations))
	}
	if res.ValidationDropped != 1 {
		t.Errorf("expected 1 dropped item, got %d", res.ValidationDropped)
	}
}

func TestParseAndValidate_UnknownLabelBecomesConcept(t *testing.T) {
	raw := `{"entities":[{"name":"Widget","type":"PRODUCT"}]}`
	res, err := parseAndValidate("chunk1", raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Entities) != 1 || res.Entities[0].Type != LabelConcept {
		t.Fatalf("expected unknown type to coerce to CONCEPT, got %+v", res.Entities)
	}
}
