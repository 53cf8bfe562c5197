package features

import (
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/gomlx/gomlx/pkg/core/tensors"

	"github.com/Henry1iu/TNT-Trajectory-Predition/featurestore"
)

// RecordDataset exposes a stored split of encoded feature records through
// the dataset interface used by gomlx training loops. Records are loaded
// lazily, one file per access; only the id list is held in memory.
type RecordDataset struct {
	store *featurestore.Store
	split string
	ids   []string

	rand   *rand.Rand
	cursor int
}

// NewRecordDataset opens the records stored under split.
func NewRecordDataset(store *featurestore.Store, split string) (*RecordDataset, error) {
	ids, err := store.List(split)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("split %q has no feature records under %s", split, store.Root())
	}
	return &RecordDataset{
		store: store,
		split: split,
		ids:   ids,
		rand:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Len returns the number of stored records.
func (d *RecordDataset) Len() int {
	return len(d.ids)
}

// Example loads the record at index i in the current ordering.
func (d *RecordDataset) Example(i int) (*Record, error) {
	if i < 0 || i >= len(d.ids) {
		return nil, fmt.Errorf("index %d out of range [0, %d)", i, len(d.ids))
	}
	var rec Record
	if err := d.store.Load(d.split, d.ids[i], &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Batch loads multiple records by their indices.
func (d *RecordDataset) Batch(indices []int) ([]*Record, error) {
	recs := make([]*Record, len(indices))
	for i, idx := range indices {
		rec, err := d.Example(idx)
		if err != nil {
			return nil, err
		}
		recs[i] = rec
	}
	return recs, nil
}

// Shuffle reorders the records with the given seed.
func (d *RecordDataset) Shuffle(seed int64) {
	d.rand.Seed(seed)
	d.rand.Shuffle(len(d.ids), func(i, j int) {
		d.ids[i], d.ids[j] = d.ids[j], d.ids[i]
	})
}

// Name returns the name of the dataset.
func (d *RecordDataset) Name() string {
	return "RecordDataset(" + d.split + ")"
}

// Yield returns the next record as gomlx tensors, for the gomlx Dataset
// interface. Candidate counts vary per sequence, so each yield carries a
// single sequence: inputs are the trajectory [T][2] and the candidate set
// [N][2]; labels are the one-hot selection [N] and the offset [2]. Returns
// io.EOF after the last record of the epoch.
func (d *RecordDataset) Yield() (spec any, inputs []*tensors.Tensor, labels []*tensors.Tensor, err error) {
	if d.cursor >= len(d.ids) {
		return nil, nil, nil, io.EOF
	}
	rec, err := d.Example(d.cursor)
	if err != nil {
		return nil, nil, nil, err
	}
	d.cursor++

	traj, cands, label, offset, err := rec.Tensors()
	if err != nil {
		return nil, nil, nil, err
	}
	return nil, []*tensors.Tensor{traj, cands}, []*tensors.Tensor{label, offset}, nil
}

// Restart resets the dataset for a new epoch.
func (d *RecordDataset) Restart() error {
	d.cursor = 0
	return nil
}
