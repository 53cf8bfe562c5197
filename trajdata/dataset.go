// Package trajdata loads motion-sequence CSV data and lane centerlines for
// preprocessing. Sequence files are discovered by glob pattern and indexed
// up-front by a sequence id column; row data is read lazily per sequence,
// so large splits do not have to fit in memory.
package trajdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Henry1iu/TNT-Trajectory-Predition/candidate"
)

// Row is one observation of one track at one timestamp.
type Row struct {
	Timestamp  float64
	TrackID    string
	ObjectType string
	X          float64
	Y          float64
}

// Sequence is one scene: all rows sharing a sequence id, in file order.
type Sequence struct {
	ID   string
	Rows []Row
}

// Dataset provides lazy access to sequences stored across CSV files.
// Expected columns (case-insensitive): the sequence id column plus
// "timestamp", "track_id", "object_type", "x", "y".
type Dataset struct {
	// Pattern used to find CSV files (e.g., "assets/argoverse/train/*.csv").
	Pattern string

	csvPaths []string

	// Column indices discovered from the first file's header.
	seqIDCol   int
	timeCol    int
	trackCol   int
	typeCol    int
	xCol, yCol int

	// seqLocations maps a sequence id to the data-row indices (header
	// excluded) belonging to it, per contributing file. A sequence may
	// span several CSV files; each part keeps its own file's indices.
	seqLocations map[string][]seqPart

	seqIDs []string
}

type seqPart struct {
	fileIdx int
	rows    []int
}

// Open discovers CSV files matching pattern and indexes their sequences.
// seqIDCol names the sequence id column; if empty, common names
// ("seq_id", "sequence_id", "seq") are tried.
func Open(pattern, seqIDCol string) (*Dataset, error) {
	csvPaths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to glob pattern %s: %w", pattern, err)
	}
	if len(csvPaths) == 0 {
		return nil, fmt.Errorf("no CSV files found matching pattern: %s", pattern)
	}
	sort.Strings(csvPaths)

	d := &Dataset{
		Pattern:      pattern,
		csvPaths:     csvPaths,
		seqLocations: make(map[string][]seqPart),
	}
	if err := d.initializeColumns(seqIDCol); err != nil {
		return nil, err
	}
	if err := d.buildSequenceIndex(); err != nil {
		return nil, err
	}
	return d, nil
}

// initializeColumns reads the first CSV to determine column indices.
func (d *Dataset) initializeColumns(seqIDCol string) error {
	file, err := os.Open(d.csvPaths[0])
	if err != nil {
		return fmt.Errorf("failed to open first CSV %s: %w", d.csvPaths[0], err)
	}
	defer file.Close()

	header, err := csv.NewReader(file).Read()
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.TrimSpace(strings.ToLower(col))] = i
	}

	seqIdx := -1
	if seqIDCol != "" {
		if idx, ok := colIndex[strings.ToLower(seqIDCol)]; ok {
			seqIdx = idx
		}
	}
	if seqIdx == -1 {
		for _, name := range []string{"seq_id", "sequence_id", "seq"} {
			if idx, ok := colIndex[name]; ok {
				seqIdx = idx
				break
			}
		}
	}
	if seqIdx == -1 {
		return fmt.Errorf("could not find sequence id column in %s", d.csvPaths[0])
	}
	d.seqIDCol = seqIdx

	required := map[string]*int{
		"timestamp":   &d.timeCol,
		"track_id":    &d.trackCol,
		"object_type": &d.typeCol,
		"x":           &d.xCol,
		"y":           &d.yCol,
	}
	for name, dst := range required {
		idx, ok := colIndex[name]
		if !ok {
			return fmt.Errorf("required column %q not found in CSV", name)
		}
		*dst = idx
	}
	return nil
}

// buildSequenceIndex scans all files and records which rows belong to which
// sequence id.
func (d *Dataset) buildSequenceIndex() error {
	for fileIdx, path := range d.csvPaths {
		if err := d.scanFileForSequences(fileIdx, path); err != nil {
			return fmt.Errorf("failed to scan %s: %w", path, err)
		}
	}
	d.seqIDs = make([]string, 0, len(d.seqLocations))
	for id := range d.seqLocations {
		d.seqIDs = append(d.seqIDs, id)
	}
	sort.Strings(d.seqIDs)
	return nil
}

func (d *Dataset) scanFileForSequences(fileIdx int, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	if _, err := reader.Read(); err != nil {
		return err
	}

	fileRows := make(map[string][]int)
	var fileIDs []string
	rowIdx := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		id := strings.TrimSpace(record[d.seqIDCol])
		if fileRows[id] == nil {
			fileIDs = append(fileIDs, id)
		}
		fileRows[id] = append(fileRows[id], rowIdx)
		rowIdx++
	}

	// One part per (sequence, file): an id spanning several files keeps
	// each file's row indices separate.
	for _, id := range fileIDs {
		d.seqLocations[id] = append(d.seqLocations[id], seqPart{
			fileIdx: fileIdx,
			rows:    fileRows[id],
		})
	}
	return nil
}

// Len returns the number of distinct sequences.
func (d *Dataset) Len() int {
	return len(d.seqIDs)
}

// SequenceIDs returns all sequence ids, sorted.
func (d *Dataset) SequenceIDs() []string {
	return append([]string(nil), d.seqIDs...)
}

// Sequence loads all rows of one sequence, in file order. A sequence that
// spans several CSV files is stitched together part by part, each file
// read at its own row indices.
func (d *Dataset) Sequence(id string) (*Sequence, error) {
	parts, ok := d.seqLocations[id]
	if !ok {
		return nil, fmt.Errorf("sequence id %s not found", id)
	}

	total := 0
	for _, part := range parts {
		total += len(part.rows)
	}
	seq := &Sequence{ID: id, Rows: make([]Row, 0, total)}
	for _, part := range parts {
		if err := d.readPart(seq, part); err != nil {
			return nil, err
		}
	}
	return seq, nil
}

// readPart appends one file's share of a sequence to seq.
func (d *Dataset) readPart(seq *Sequence, part seqPart) error {
	file, err := os.Open(d.csvPaths[part.fileIdx])
	if err != nil {
		return err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	if _, err := reader.Read(); err != nil {
		return err
	}

	wanted := make(map[int]bool, len(part.rows))
	for _, r := range part.rows {
		wanted[r] = true
	}

	rowIdx := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if wanted[rowIdx] {
			row, err := d.parseRow(record)
			if err != nil {
				return fmt.Errorf("sequence %s row %d: %w", seq.ID, rowIdx, err)
			}
			seq.Rows = append(seq.Rows, row)
		}
		rowIdx++
	}
	return nil
}

func (d *Dataset) parseRow(record []string) (Row, error) {
	ts, err := parseFloat(record[d.timeCol])
	if err != nil {
		return Row{}, fmt.Errorf("failed to parse timestamp: %w", err)
	}
	x, err := parseFloat(record[d.xCol])
	if err != nil {
		return Row{}, fmt.Errorf("failed to parse x: %w", err)
	}
	y, err := parseFloat(record[d.yCol])
	if err != nil {
		return Row{}, fmt.Errorf("failed to parse y: %w", err)
	}
	return Row{
		Timestamp:  ts,
		TrackID:    strings.TrimSpace(record[d.trackCol]),
		ObjectType: strings.TrimSpace(strings.ToLower(record[d.typeCol])),
		X:          x,
		Y:          y,
	}, nil
}

// LoadLanes reads lane centerlines from a CSV with columns
// (case-insensitive) "lane_id", "x", "y". Rows sharing a lane id form one
// polyline in row order; polylines are returned in first-seen lane order.
func LoadLanes(path string) ([]candidate.Polyline, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open lanes CSV %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read lanes header: %w", err)
	}
	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.TrimSpace(strings.ToLower(col))] = i
	}
	laneCol, ok := colIndex["lane_id"]
	if !ok {
		return nil, fmt.Errorf("required column %q not found in %s", "lane_id", path)
	}
	xCol, ok := colIndex["x"]
	if !ok {
		return nil, fmt.Errorf("required column %q not found in %s", "x", path)
	}
	yCol, ok := colIndex["y"]
	if !ok {
		return nil, fmt.Errorf("required column %q not found in %s", "y", path)
	}

	laneIdx := make(map[string]int)
	var lanes []candidate.Polyline
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read lanes row: %w", err)
		}
		x, err := parseFloat(record[xCol])
		if err != nil {
			return nil, fmt.Errorf("failed to parse lane x: %w", err)
		}
		y, err := parseFloat(record[yCol])
		if err != nil {
			return nil, fmt.Errorf("failed to parse lane y: %w", err)
		}
		id := strings.TrimSpace(record[laneCol])
		idx, ok := laneIdx[id]
		if !ok {
			idx = len(lanes)
			laneIdx[id] = idx
			lanes = append(lanes, nil)
		}
		lanes[idx] = append(lanes[idx], candidate.Point{X: x, Y: y})
	}
	return lanes, nil
}
