// Package features turns raw motion sequences into encoded feature records
// for target-driven trajectory prediction. The pipeline has four
// polymorphic stages applied per sequence: Process (filter raw rows),
// ExtractFeature (derive trajectory, target and map context),
// EncodeFeature (sample target candidates, label the ground truth and
// assemble the record) and Save (persist the record under a split).
package features

import (
	"errors"
	"fmt"

	"github.com/Henry1iu/TNT-Trajectory-Predition/trajdata"
)

// ErrNotImplemented is returned by UnimplementedPreprocessor stages when
// invoked directly. They are contracts for concrete variants, not runnable
// behavior.
var ErrNotImplemented = errors.New("not implemented")

// Preprocessor is the per-dataset preprocessing pipeline. Concrete variants
// implement all four stages; each stage is a pure function of its input
// plus the preprocessor's immutable configuration, so one Preprocessor may
// serve many sequences concurrently.
type Preprocessor interface {
	// Process filters the raw sequence down to the rows the later stages
	// consume. The input sequence is not mutated.
	Process(seq *trajdata.Sequence) (*trajdata.Sequence, error)

	// ExtractFeature derives the feature-relevant fields: the agent
	// trajectory, the ground-truth target and the map context.
	ExtractFeature(seq *trajdata.Sequence) (*Intermediate, error)

	// EncodeFeature assembles the algorithm-specific feature record,
	// including target candidates and their ground-truth label.
	EncodeFeature(inter *Intermediate) (*Record, error)

	// Save persists the encoded record, keyed by sequence id, under the
	// named split.
	Save(split string, rec *Record) error
}

// UnimplementedPreprocessor implements every stage with ErrNotImplemented.
// Embed it to build partial variants; override the stages you support.
type UnimplementedPreprocessor struct{}

func (UnimplementedPreprocessor) Process(*trajdata.Sequence) (*trajdata.Sequence, error) {
	return nil, fmt.Errorf("%w: Process", ErrNotImplemented)
}

func (UnimplementedPreprocessor) ExtractFeature(*trajdata.Sequence) (*Intermediate, error) {
	return nil, fmt.Errorf("%w: ExtractFeature", ErrNotImplemented)
}

func (UnimplementedPreprocessor) EncodeFeature(*Intermediate) (*Record, error) {
	return nil, fmt.Errorf("%w: EncodeFeature", ErrNotImplemented)
}

func (UnimplementedPreprocessor) Save(string, *Record) error {
	return fmt.Errorf("%w: Save", ErrNotImplemented)
}

// Run chains the four stages for one sequence and returns the encoded
// record after it has been saved.
func Run(p Preprocessor, seq *trajdata.Sequence, split string) (*Record, error) {
	filtered, err := p.Process(seq)
	if err != nil {
		return nil, fmt.Errorf("process sequence %s: %w", seq.ID, err)
	}
	inter, err := p.ExtractFeature(filtered)
	if err != nil {
		return nil, fmt.Errorf("extract features for sequence %s: %w", seq.ID, err)
	}
	rec, err := p.EncodeFeature(inter)
	if err != nil {
		return nil, fmt.Errorf("encode features for sequence %s: %w", seq.ID, err)
	}
	if err := p.Save(split, rec); err != nil {
		return nil, fmt.Errorf("save features for sequence %s: %w", seq.ID, err)
	}
	return rec, nil
}
