package candidate

import (
	"fmt"
	"math"
)

// epsilon guards the division by segment length on degenerate segments.
// It is machine-epsilon scale on the lengths involved here, so it cannot
// materially bias the step size for any segment of non-negligible length.
// It is a constant, not a tunable.
const epsilon = 1e-12

// Observer receives the input polylines and the final candidate set after
// sampling. It is a debug/visualization hook: it runs after the result is
// fully built and cannot alter it.
type Observer func(lanes []Polyline, candidates []Point)

// SamplingOption configures optional behavior of LaneCandidateSampling.
type SamplingOption func(*samplingOptions)

type samplingOptions struct {
	observer Observer
}

// WithObserver attaches an observer that is called once with the input
// polylines and the deduplicated candidate set. A nil observer is ignored.
func WithObserver(obs Observer) SamplingOption {
	return func(o *samplingOptions) {
		o.observer = obs
	}
}

// UniformCandidateSampling returns rate*rate candidate points uniformly
// tiling the closed square [-r, r] x [-r, r]. The 1D coordinate values are
// rate evenly spaced values spanning [-r, r] inclusive of both endpoints;
// the result is their full Cartesian product in row-major order. Callers
// must rely on set membership only, not on ordering.
//
// rate == 1 degenerates to the single point (-r, -r): the linear-spacing
// formula places the lone value at the interval start, not the center.
// This is defined, if unintuitive, behavior. r == 0 is rejected along with
// negative ranges.
func UniformCandidateSampling(r float64, rate int) ([]Point, error) {
	if !(r > 0) || math.IsInf(r, 0) {
		return nil, fmt.Errorf("%w: sampling range must be positive, got %v", ErrInvalidInput, r)
	}
	if rate < 1 {
		return nil, fmt.Errorf("%w: sampling rate must be >= 1, got %d", ErrInvalidInput, rate)
	}

	vals := linspace(-r, r, rate)
	pts := make([]Point, 0, rate*rate)
	for _, y := range vals {
		for _, x := range vals {
			pts = append(pts, Point{X: x, Y: y})
		}
	}
	return pts, nil
}

// linspace returns n evenly spaced values over the closed interval [lo, hi].
// For n == 1 the single value is lo.
func linspace(lo, hi float64, n int) []float64 {
	vals := make([]float64, n)
	if n == 1 {
		vals[0] = lo
		return vals
	}
	step := (hi - lo) / float64(n-1)
	for i := range vals {
		vals[i] = lo + float64(i)*step
	}
	// Force the endpoint exactly; accumulated rounding must not move it.
	vals[n-1] = hi
	return vals
}

// LaneCandidateSampling walks every polyline segment-by-segment and emits a
// candidate every distance units of arclength along the segment, plus the
// segment's starting vertex, then deduplicates the collection by exact
// coordinate value (first occurrence wins, order preserved).
//
// Segment handling, per consecutive pair (p, q):
//   - the pair is skipped entirely when either endpoint is non-finite;
//     candidates from unrelated segments are unaffected,
//   - the pair is skipped when both coordinate deltas are exactly zero,
//   - p itself is always emitted, so original vertices are covered even on
//     segments shorter than the step,
//   - the step count is floor(length/distance), so a trailing partial step
//     is truncated and the far vertex q is not guaranteed to appear. The
//     truncation is preserved deliberately for compatibility with existing
//     feature sets.
//
// An empty result is possible when every pair is degenerate; that is not an
// error here, the labeler rejects empty candidate sets instead.
func LaneCandidateSampling(lanes []Polyline, distance float64, opts ...SamplingOption) ([]Point, error) {
	if !(distance > 0) || math.IsInf(distance, 0) {
		return nil, fmt.Errorf("%w: sampling distance must be positive, got %v", ErrInvalidInput, distance)
	}

	var options samplingOptions
	for _, opt := range opts {
		opt(&options)
	}

	var raw []Point
	for _, lane := range lanes {
		for i := 0; i+1 < len(lane); i++ {
			p, q := lane[i], lane[i+1]
			if !p.IsFinite() || !q.IsFinite() {
				continue
			}
			dx := q.X - p.X
			dy := q.Y - p.Y
			if dx == 0 && dy == 0 {
				continue
			}

			raw = append(raw, p)

			length := math.Hypot(dx, dy) + epsilon
			stepX := dx / length * distance
			stepY := dy / length * distance
			steps := int(length / distance)

			cur := p
			for s := 0; s < steps; s++ {
				cur = Point{X: cur.X + stepX, Y: cur.Y + stepY}
				raw = append(raw, cur)
			}
		}
	}

	cands := dedup(raw)
	if options.observer != nil {
		options.observer(lanes, cands)
	}
	return cands, nil
}

// dedup removes exact-value duplicates, keeping the first occurrence and
// the relative order of survivors.
func dedup(pts []Point) []Point {
	seen := make(map[Point]struct{}, len(pts))
	out := make([]Point, 0, len(pts))
	for _, p := range pts {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
