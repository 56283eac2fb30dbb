package ppr

import (
	"math"
	"testing"
)

func TestRun_EmptySeedsReturnsEmptyResult(t *testing.T) {
	e := &Engine{index: map[string]int{}}
	e.addNode(KindEntity, "e1")
	e.adj = make([][]edge, len(e.nodes))
	e.outTotal = make([]float64, len(e.nodes))

	res := e.Run(nil, nil, DefaultParams)
	if len(res.EntityScores) != 0 || len(res.PassageScores) != 0 {
		t.Fatalf("expected empty result for zero seed mass, got %+v", res)
	}
}

func TestRun_TwoEntityRingConvergesToEqualMass(t *testing.T) {
	e := &Engine{index: map[string]int{}}
	e.addNode(KindEntity, "e1")
	e.addNode(KindEntity, "e2")
	e.adj = make([][]edge, 2)
	e.adj[0] = []edge{{to: 1, weight: 1.0}}
	e.adj[1] = []edge{{to: 0, weight: 1.0}}
	e.outTotal = []float64{1.0, 1.0}

	res := e.Run(map[string]float64{"e1": 0.5, "e2": 0.5}, nil, Params{Damping: 0.5, MaxIterations: 50, ConvergenceThreshold: 1e-9})
	if len(res.EntityScores) != 2 {
		t.Fatalf("expected 2 entity scores, got %d", len(res.EntityScores))
	}
	if math.Abs(res.EntityScores[0].Score-res.EntityScores[1].Score) > 1e-6 {
		t.Errorf("expected symmetric ring to converge to equal mass, got %+v", res.EntityScores)
	}
}

func TestRun_DeterministicAcrossRepeatedCalls(t *testing.T) {
	e := &Engine{index: map[string]int{}}
	e.addNode(KindEntity, "e1")
	e.addNode(KindEntity, "e2")
	e.addNode(KindChunk, "c1")
	e.adj = make([][]edge, 3)
	e.adj[0] = []edge{{to: 1, weight: 1.0}, {to: 2, weight: 0.05}}
	e.adj[1] = []edge{{to: 0, weight: 1.0}}
	e.adj[2] = []edge{{to: 0, weight: 0.05}}
	e.outTotal = []float64{1.05, 1.0, 0.05}

	seeds := map[string]float64{"e1": 1.0}
	r1 := e.Run(seeds, nil, DefaultParams)
	r2 := e.Run(seeds, nil, DefaultParams)

	if len(r1.EntityScores) != len(r2.EntityScores) || len(r1.PassageScores) != len(r2.PassageScores) {
		t.Fatal("expected identical result shapes across runs")
	}
	for i := range r1.EntityScores {
		if r1.EntityScores[i] != r2.EntityScores[i] {
			t.Fatalf("expected bit-identical entity scores, got %+v vs %+v", r1.EntityScores[i], r2.EntityScores[i])
		}
	}
}

func TestRun_PassageScoresSortedDescending(t *testing.T) {
	e := &Engine{index: map[string]int{}}
	e.addNode(KindChunk, "c1")
	e.addNode(KindChunk, "c2")
	e.addNode(KindEntity, "e1")
	e.adj = make([][]edge, 3)
	e.adj[2] = []edge{{to: 0, weight: 0.5}, {to: 1, weight: 0.05}}
	e.adj[0] = []edge{{to: 2, weight: 0.5}}
	e.adj[1] = []edge{{to: 2, weight: 0.05}}
	e.outTotal = []float64{0.5, 0.05, 0.55}

	res := e.Run(map[string]float64{"e1": 1.0}, nil, DefaultParams)
	if len(res.PassageScores) != 2 {
		t.Fatalf("expected 2 passage scores, got %d", len(res.PassageScores))
	}
	if res.PassageScores[0].Score < res.PassageScores[1].Score {
		t.Errorf("expected descending order, got %+v", res.PassageScores)
	}
	if res.PassageScores[0].ID != "c1" {
		t.Errorf("expected c1 (higher edge weight) to rank first, got %q", res.PassageScores[0].ID)
	}
}
