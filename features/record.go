package features

import (
	"fmt"

	"github.com/gomlx/gomlx/pkg/core/tensors"

	"github.com/Henry1iu/TNT-Trajectory-Predition/candidate"
)

// Intermediate holds the feature-relevant fields extracted from one
// sequence, in the agent-centric frame: all coordinates are translated so
// the agent's last observed position is the origin.
type Intermediate struct {
	SeqID string

	// Trajectory is the full agent track, time-ordered; the first
	// Observed points are history, the rest is future.
	Trajectory []candidate.Point
	Observed   int

	// Target is the ground-truth final position (the last future point).
	Target candidate.Point

	// Lanes are the centerlines near the agent, already translated.
	Lanes []candidate.Polyline

	// Origin is the world-frame position subtracted from everything,
	// kept so consumers can map results back.
	Origin candidate.Point
}

// Record is the encoded feature record for one sequence. Coordinate data
// is stored in flat row-major float32 buffers with explicit dimensions;
// these are trivial to reshape into tensors of any flavor.
type Record struct {
	SeqID string

	// Trajectory is [TrajSteps][2] flattened; the first Observed steps
	// are history.
	Trajectory []float32
	TrajSteps  int
	Observed   int

	// Candidates is [NumCandidates][2] flattened. GTLabel is the one-hot
	// selection over the same ordering; GTOffset is target − selected
	// candidate.
	Candidates    []float32
	NumCandidates int
	GTLabel       []float32
	GTOffset      []float32

	// Target and Origin are length-2 (x, y).
	Target []float32
	Origin []float32
}

// Tensors converts the record's buffers into gomlx tensors: the agent
// trajectory [TrajSteps][2], the candidate set [NumCandidates][2], the
// one-hot selection label [NumCandidates] and the offset [2].
func (r *Record) Tensors() (traj, cands, label, offset *tensors.Tensor, err error) {
	trajRows, err := reshape2D(r.Trajectory, r.TrajSteps, 2)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("record %s trajectory: %w", r.SeqID, err)
	}
	candRows, err := reshape2D(r.Candidates, r.NumCandidates, 2)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("record %s candidates: %w", r.SeqID, err)
	}
	if len(r.GTLabel) != r.NumCandidates {
		return nil, nil, nil, nil, fmt.Errorf("record %s: label length %d != candidate count %d",
			r.SeqID, len(r.GTLabel), r.NumCandidates)
	}

	traj = tensors.FromAnyValue(trajRows)
	cands = tensors.FromAnyValue(candRows)
	label = tensors.FromAnyValue(r.GTLabel)
	offset = tensors.FromAnyValue(r.GTOffset)
	return traj, cands, label, offset, nil
}

// reshape2D views a flat buffer as rows slices of length cols.
func reshape2D(buf []float32, rows, cols int) ([][]float32, error) {
	if len(buf) != rows*cols {
		return nil, fmt.Errorf("buffer has %d values, want %d (%dx%d)", len(buf), rows*cols, rows, cols)
	}
	out := make([][]float32, rows)
	for i := 0; i < rows; i++ {
		out[i] = buf[i*cols : (i+1)*cols]
	}
	return out, nil
}

// flattenPoints packs points into a flat [n][2] float32 buffer.
func flattenPoints(pts []candidate.Point) []float32 {
	buf := make([]float32, 0, 2*len(pts))
	for _, p := range pts {
		buf = append(buf, float32(p.X), float32(p.Y))
	}
	return buf
}
