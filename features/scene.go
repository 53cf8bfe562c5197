package features

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Henry1iu/TNT-Trajectory-Predition/candidate"
	"github.com/Henry1iu/TNT-Trajectory-Predition/featurestore"
	"github.com/Henry1iu/TNT-Trajectory-Predition/trajdata"
)

// Config holds the tunables of a ScenePreprocessor. Zero values are
// replaced by defaults in NewScenePreprocessor.
type Config struct {
	// Distance is the arclength step for lane candidate sampling.
	// Default: 0.5.
	Distance float64

	// ObservedSteps is the number of history steps; the remaining steps
	// of a track are future and the last one is the target. Default: 20.
	ObservedSteps int

	// AgentType is the object_type value marking the track to predict,
	// matched case-insensitively. Default: "agent".
	AgentType string

	// LaneRadius selects lanes with at least one vertex within this
	// distance of the agent's last observed position. Default: 30.
	LaneRadius float64

	// GridRange and GridRate configure the uniform-grid fallback used
	// when no lane is near enough to sample from. Defaults: 50, 30.
	GridRange float64
	GridRate  int

	// Store receives encoded records in Save. It may be nil for
	// pipelines that never reach Save.
	Store *featurestore.Store

	// Observer, if set, is passed to lane candidate sampling. It is a
	// debug/visualization hook and has no effect on the result.
	Observer candidate.Observer
}

// ScenePreprocessor is the concrete pipeline for CSV scene data loaded via
// trajdata. It is stateless across sequences: every stage reads its input
// and the immutable configuration only.
type ScenePreprocessor struct {
	cfg   Config
	lanes []candidate.Polyline
}

// NewScenePreprocessor creates a preprocessor over the given lane
// centerlines (world frame). lanes may be empty; encoding then falls back
// to the uniform grid.
func NewScenePreprocessor(cfg Config, lanes []candidate.Polyline) (*ScenePreprocessor, error) {
	if cfg.Distance == 0 {
		cfg.Distance = 0.5
	}
	if cfg.ObservedSteps == 0 {
		cfg.ObservedSteps = 20
	}
	if cfg.AgentType == "" {
		cfg.AgentType = "agent"
	}
	// Row object types are lower-cased at parse time; match that here so
	// a mixed-case configured type still selects the track.
	cfg.AgentType = strings.ToLower(cfg.AgentType)
	if cfg.LaneRadius == 0 {
		cfg.LaneRadius = 30
	}
	if cfg.GridRange == 0 {
		cfg.GridRange = 50
	}
	if cfg.GridRate == 0 {
		cfg.GridRate = 30
	}

	if cfg.Distance < 0 {
		return nil, fmt.Errorf("sampling distance must be positive, got %v", cfg.Distance)
	}
	if cfg.ObservedSteps < 1 {
		return nil, fmt.Errorf("observed steps must be >= 1, got %d", cfg.ObservedSteps)
	}
	if cfg.LaneRadius < 0 {
		return nil, fmt.Errorf("lane radius must be positive, got %v", cfg.LaneRadius)
	}
	if cfg.GridRange < 0 || cfg.GridRate < 1 {
		return nil, fmt.Errorf("invalid grid fallback: range %v, rate %d", cfg.GridRange, cfg.GridRate)
	}

	return &ScenePreprocessor{cfg: cfg, lanes: lanes}, nil
}

// Process keeps only the agent track with finite coordinates, ordered by
// timestamp. The input sequence is left untouched.
func (p *ScenePreprocessor) Process(seq *trajdata.Sequence) (*trajdata.Sequence, error) {
	out := &trajdata.Sequence{ID: seq.ID}
	for _, row := range seq.Rows {
		if row.ObjectType != p.cfg.AgentType {
			continue
		}
		if math.IsNaN(row.X) || math.IsInf(row.X, 0) || math.IsNaN(row.Y) || math.IsInf(row.Y, 0) {
			continue
		}
		out.Rows = append(out.Rows, row)
	}
	if len(out.Rows) == 0 {
		return nil, fmt.Errorf("sequence %s has no usable %s rows", seq.ID, p.cfg.AgentType)
	}
	sort.SliceStable(out.Rows, func(i, j int) bool {
		return out.Rows[i].Timestamp < out.Rows[j].Timestamp
	})
	return out, nil
}

// ExtractFeature derives the agent trajectory, target point and nearby
// lanes, all translated into the agent-centric frame whose origin is the
// last observed position.
func (p *ScenePreprocessor) ExtractFeature(seq *trajdata.Sequence) (*Intermediate, error) {
	obs := p.cfg.ObservedSteps
	if len(seq.Rows) < obs+1 {
		return nil, fmt.Errorf("sequence %s too short: %d rows, need at least %d observed + 1 future",
			seq.ID, len(seq.Rows), obs)
	}

	origin := candidate.Point{X: seq.Rows[obs-1].X, Y: seq.Rows[obs-1].Y}

	traj := make([]candidate.Point, len(seq.Rows))
	for i, row := range seq.Rows {
		traj[i] = candidate.Point{X: row.X - origin.X, Y: row.Y - origin.Y}
	}

	return &Intermediate{
		SeqID:      seq.ID,
		Trajectory: traj,
		Observed:   obs,
		Target:     traj[len(traj)-1],
		Lanes:      p.nearbyLanes(origin),
		Origin:     origin,
	}, nil
}

// nearbyLanes returns the lanes with at least one finite vertex within
// LaneRadius of center, translated into the agent-centric frame.
func (p *ScenePreprocessor) nearbyLanes(center candidate.Point) []candidate.Polyline {
	r2 := p.cfg.LaneRadius * p.cfg.LaneRadius
	var out []candidate.Polyline
	for _, lane := range p.lanes {
		near := false
		for _, v := range lane {
			if v.IsFinite() && candidate.SquaredDistance(v, center) <= r2 {
				near = true
				break
			}
		}
		if !near {
			continue
		}
		shifted := make(candidate.Polyline, len(lane))
		for i, v := range lane {
			shifted[i] = candidate.Point{X: v.X - center.X, Y: v.Y - center.Y}
		}
		out = append(out, shifted)
	}
	return out
}

// EncodeFeature samples target candidates from the nearby lanes (falling
// back to the uniform grid when no lane produced any), labels the
// candidate nearest to the ground-truth target, and packs everything into
// a Record.
func (p *ScenePreprocessor) EncodeFeature(inter *Intermediate) (*Record, error) {
	var opts []candidate.SamplingOption
	if p.cfg.Observer != nil {
		opts = append(opts, candidate.WithObserver(p.cfg.Observer))
	}
	cands, err := candidate.LaneCandidateSampling(inter.Lanes, p.cfg.Distance, opts...)
	if err != nil {
		return nil, err
	}
	if len(cands) == 0 {
		cands, err = candidate.UniformCandidateSampling(p.cfg.GridRange, p.cfg.GridRate)
		if err != nil {
			return nil, err
		}
	}

	label, offset, err := candidate.CandidateGT(cands, inter.Target)
	if err != nil {
		return nil, err
	}

	return &Record{
		SeqID:         inter.SeqID,
		Trajectory:    flattenPoints(inter.Trajectory),
		TrajSteps:     len(inter.Trajectory),
		Observed:      inter.Observed,
		Candidates:    flattenPoints(cands),
		NumCandidates: len(cands),
		GTLabel:       label,
		GTOffset:      []float32{float32(offset[0]), float32(offset[1])},
		Target:        []float32{float32(inter.Target.X), float32(inter.Target.Y)},
		Origin:        []float32{float32(inter.Origin.X), float32(inter.Origin.Y)},
	}, nil
}

// Save persists the record under the named split.
func (p *ScenePreprocessor) Save(split string, rec *Record) error {
	if p.cfg.Store == nil {
		return fmt.Errorf("no feature store configured")
	}
	return p.cfg.Store.Save(split, rec.SeqID, rec)
}
