package candidate

import (
	"errors"
	"math"
	"testing"
)

// checkOneHot fails unless label has exactly one entry set to 1 and returns
// its index.
func checkOneHot(t *testing.T, label []float32) int {
	t.Helper()
	idx := -1
	for i, v := range label {
		switch v {
		case 0:
		case 1:
			if idx != -1 {
				t.Fatalf("label has more than one set entry (%d and %d)", idx, i)
			}
			idx = i
		default:
			t.Fatalf("label[%d] = %v, want 0 or 1", i, v)
		}
	}
	if idx == -1 {
		t.Fatalf("label has no set entry")
	}
	return idx
}

func TestCandidateGTScenario(t *testing.T) {
	cands := []Point{{0, 0}, {3, 4}, {10, 10}}
	label, offset, err := CandidateGT(cands, Point{3, 5})
	if err != nil {
		t.Fatalf("CandidateGT failed: %v", err)
	}
	if len(label) != len(cands) {
		t.Fatalf("label length %d != candidate count %d", len(label), len(cands))
	}
	if idx := checkOneHot(t, label); idx != 1 {
		t.Fatalf("selected index %d, want 1 for candidate (3, 4)", idx)
	}
	if offset[0] != 0 || offset[1] != 1 {
		t.Fatalf("offset = (%v, %v), want (0, 1)", offset[0], offset[1])
	}
}

func TestCandidateGTNearest(t *testing.T) {
	cands, err := UniformCandidateSampling(10, 9)
	if err != nil {
		t.Fatalf("UniformCandidateSampling failed: %v", err)
	}
	targets := []Point{{0, 0}, {-10, -10}, {3.2, -7.9}, {9.99, 10}}
	for _, target := range targets {
		label, offset, err := CandidateGT(cands, target)
		if err != nil {
			t.Fatalf("CandidateGT failed: %v", err)
		}
		k := checkOneHot(t, label)

		// The selected candidate must be nearest, and the offset must
		// reconstruct the target exactly from it.
		got := SquaredDistance(cands[k], target)
		for i, c := range cands {
			if d := SquaredDistance(c, target); d < got {
				t.Fatalf("candidate %d is closer than selected %d (%v < %v)", i, k, d, got)
			}
		}
		if cands[k].X+offset[0] != target.X || cands[k].Y+offset[1] != target.Y {
			t.Errorf("candidate + offset != target for target (%v, %v)", target.X, target.Y)
		}
	}
}

func TestCandidateGTTieBreak(t *testing.T) {
	// (0, 1) and (0, -1) are equidistant from the origin; the first
	// occurrence in candidate order must win.
	cands := []Point{{0, 1}, {0, -1}}
	label, _, err := CandidateGT(cands, Point{0, 0})
	if err != nil {
		t.Fatalf("CandidateGT failed: %v", err)
	}
	if idx := checkOneHot(t, label); idx != 0 {
		t.Fatalf("tie resolved to index %d, want first occurrence 0", idx)
	}
}

func TestCandidateGTDeterminism(t *testing.T) {
	cands := []Point{{1, 2}, {-3, 0.5}, {4, 4}, {0, 0}}
	target := Point{0.3, 0.4}

	label1, off1, err := CandidateGT(cands, target)
	if err != nil {
		t.Fatalf("CandidateGT failed: %v", err)
	}
	label2, off2, err := CandidateGT(cands, target)
	if err != nil {
		t.Fatalf("CandidateGT failed: %v", err)
	}
	if off1 != off2 {
		t.Fatalf("offsets differ across identical calls: %v vs %v", off1, off2)
	}
	for i := range label1 {
		if label1[i] != label2[i] {
			t.Fatalf("labels differ at %d across identical calls", i)
		}
	}
}

func TestCandidateGTInvalidInput(t *testing.T) {
	if _, _, err := CandidateGT(nil, Point{0, 0}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty candidate set: expected ErrInvalidInput, got %v", err)
	}
	if _, _, err := CandidateGT([]Point{{1, 1}}, Point{math.NaN(), 0}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("NaN target: expected ErrInvalidInput, got %v", err)
	}
	if _, _, err := CandidateGT([]Point{{1, 1}}, Point{0, math.Inf(1)}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Inf target: expected ErrInvalidInput, got %v", err)
	}
	// A NaN candidate would poison every distance comparison; the whole
	// set must be rejected instead of silently mislabeling.
	if _, _, err := CandidateGT([]Point{{math.NaN(), 0}, {1, 1}}, Point{1, 1}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("NaN candidate: expected ErrInvalidInput, got %v", err)
	}
	if _, _, err := CandidateGT([]Point{{0, 0}, {math.Inf(-1), 0}}, Point{0, 0}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Inf candidate: expected ErrInvalidInput, got %v", err)
	}
}
