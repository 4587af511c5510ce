package agent

import (
	"testing"

	"sweeper-lite/mines"
)

func TestHeuristic_Ordering(t *testing.T) {
	h := Heuristic{}
	unknown, _ := h.Score(mines.FeatureVector{-1, -1, -1, -1, -1, -1, -1, -1})
	nextToZero, _ := h.Score(mines.FeatureVector{0, -1, -1, -1, -1, -1, -1, -1})
	nextToThree, _ := h.Score(mines.FeatureVector{3, 3, 3, 3, 3, -1, -1, -1})
	surroundedByOnes, _ := h.Score(mines.FeatureVector{1, 1, 1, 1, 1, 1, 1, 1})

	if unknown != 0.5 {
		t.Fatalf("no information should score 0.5, got %v", unknown)
	}
	if nextToZero <= unknown {
		t.Fatalf("a revealed zero neighbour should raise the score: %v <= %v", nextToZero, unknown)
	}
	if nextToThree >= unknown {
		t.Fatalf("high counts should lower the score: %v >= %v", nextToThree, unknown)
	}
	if surroundedByOnes <= nextToThree {
		t.Fatalf("small counts should beat large ones: %v <= %v", surroundedByOnes, nextToThree)
	}
	for _, s := range []float64{unknown, nextToZero, nextToThree, surroundedByOnes} {
		if s < 0 || s > 1 {
			t.Fatalf("score %v out of [0,1]", s)
		}
	}
}
