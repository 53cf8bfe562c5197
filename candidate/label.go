package candidate

import "fmt"

// CandidateGT selects the candidate nearest to target by squared Euclidean
// distance and returns the one-hot selection label over the candidate set
// together with the residual offset target − candidates[k]. Ties resolve to
// the first occurrence in candidate order; that tie break is part of the
// contract, so the label assignment is stable for a given ordering.
//
// The label has exactly len(candidates) entries with exactly one entry set
// to 1. An empty candidate set, a non-finite candidate or a non-finite
// target fails with ErrInvalidInput.
func CandidateGT(candidates []Point, target Point) ([]float32, [2]float64, error) {
	if len(candidates) == 0 {
		return nil, [2]float64{}, fmt.Errorf("%w: empty candidate set", ErrInvalidInput)
	}
	if !target.IsFinite() {
		return nil, [2]float64{}, fmt.Errorf("%w: target must be finite, got (%v, %v)", ErrInvalidInput, target.X, target.Y)
	}
	for i, c := range candidates {
		if !c.IsFinite() {
			return nil, [2]float64{}, fmt.Errorf("%w: candidate %d must be finite, got (%v, %v)", ErrInvalidInput, i, c.X, c.Y)
		}
	}

	best := 0
	bestDist := SquaredDistance(candidates[0], target)
	for i := 1; i < len(candidates); i++ {
		if d := SquaredDistance(candidates[i], target); d < bestDist {
			best = i
			bestDist = d
		}
	}

	label := make([]float32, len(candidates))
	label[best] = 1

	offset := [2]float64{
		target.X - candidates[best].X,
		target.Y - candidates[best].Y,
	}
	return label, offset, nil
}
