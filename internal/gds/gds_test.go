package gds

import (
	"strings"
	"testing"

	"github.com/lex00/hipporag2-go/internal/algorithms"
)

func TestBuildLeiden_UsesStreamMode(t *testing.T) {
	l := buildLeiden("group1-entities", 1.0, 0.01, 0.0001, true)
	if l.GetMode() != algorithms.Stream {
		t.Errorf("GetMode() = %v, want stream", l.GetMode())
	}
	if l.GetGraphName() != "group1-entities" {
		t.Errorf("GetGraphName() = %v, want group1-entities", l.GetGraphName())
	}
	if !l.IncludeIntermediateCommunities {
		t.Error("expected IncludeIntermediateCommunities to be true")
	}
}

func TestBuildPageRank_CarriesWeightProperty(t *testing.T) {
	pr := buildPageRank("group1-full", 0.85, 20, 1e-7, "weight")
	if pr.RelationshipWeightProperty != "weight" {
		t.Errorf("RelationshipWeightProperty = %q, want weight", pr.RelationshipWeightProperty)
	}
	if pr.AlgorithmType() != "gds.pageRank" {
		t.Errorf("AlgorithmType() = %v, want gds.pageRank", pr.AlgorithmType())
	}
}

func TestBuildWCC_NamesIncludeGraphName(t *testing.T) {
	w := buildWCC("group1-entities")
	if !strings.Contains(w.AlgorithmName(), "group1-entities") {
		t.Errorf("AlgorithmName() = %q, want it to contain graph name", w.AlgorithmName())
	}
}

func TestRunner_AlgorithmSerializerProducesCallStatement(t *testing.T) {
	r := NewRunner(nil)
	stmt, err := r.algoSer.ToCypher(buildLeiden("g1", 1.0, 0.01, 0.0001, false))
	if err != nil {
		t.Fatalf("ToCypher: %v", err)
	}
	if !strings.Contains(stmt, "CALL gds.leiden.stream") {
		t.Errorf("statement = %q, want it to call gds.leiden.stream", stmt)
	}
	if !strings.Contains(stmt, "'g1'") {
		t.Errorf("statement = %q, want it to reference graph name g1", stmt)
	}
}
