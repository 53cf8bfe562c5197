// Command preprocess runs the feature preprocessing pipeline over a split
// of sequence CSVs: it samples target candidates along lane centerlines,
// labels the ground-truth candidate and offset per sequence, and stores
// one encoded feature record per sequence id under the output root.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Henry1iu/TNT-Trajectory-Predition/candidate"
	"github.com/Henry1iu/TNT-Trajectory-Predition/features"
	"github.com/Henry1iu/TNT-Trajectory-Predition/featurestore"
	"github.com/Henry1iu/TNT-Trajectory-Predition/render"
	"github.com/Henry1iu/TNT-Trajectory-Predition/trajdata"
)

func main() {
	dataPattern := flag.String("data", "", "glob pattern for sequence CSV files (required)")
	lanesPath := flag.String("lanes", "", "path to lane centerline CSV (optional; grid fallback without it)")
	outRoot := flag.String("out", "output/features", "root directory for stored feature records")
	split := flag.String("split", "train", "split name the records are stored under")
	seqCol := flag.String("seq-col", "", "sequence id column name (auto-detected when empty)")

	distance := flag.Float64("distance", 0.5, "arclength step for lane candidate sampling")
	obsSteps := flag.Int("obs", 20, "number of observed (history) steps per track")
	agentType := flag.String("agent-type", "agent", "object_type value marking the track to predict")
	laneRadius := flag.Float64("lane-radius", 30, "radius around the agent for lane selection")
	gridRange := flag.Float64("grid-range", 50, "half-range of the uniform grid fallback")
	gridRate := flag.Int("grid-rate", 30, "per-axis resolution of the uniform grid fallback")

	workers := flag.Int("workers", 0, "number of preprocessing workers (0 = NumCPU)")
	progressInterval := flag.Int("progress-interval", 3, "progress logging interval in seconds")

	vizCount := flag.Int("viz", 0, "render candidate plots for the first N sequences")
	vizDir := flag.String("viz-dir", "plots", "output directory for candidate plots")

	configPath := flag.String("config", "", "optional JSON config file; CLI flags take precedence")
	flag.Parse()

	if *dataPattern == "" {
		log.Fatalf("missing required -data pattern")
	}

	// Merge JSON config under CLI precedence: a JSON value applies only
	// when the corresponding flag was left at its default.
	if *configPath != "" {
		if err := mergeConfig(*configPath, distance, obsSteps, laneRadius, workers, progressInterval); err != nil {
			log.Fatalf("failed to load config %s: %v", *configPath, err)
		}
	}

	ds, err := trajdata.Open(*dataPattern, *seqCol)
	if err != nil {
		log.Fatalf("failed to open sequence dataset: %v", err)
	}
	log.Printf("Sequence dataset loaded: %d sequences (pattern %s)", ds.Len(), *dataPattern)

	var lanes []candidate.Polyline
	if *lanesPath != "" {
		lanes, err = trajdata.LoadLanes(*lanesPath)
		if err != nil {
			log.Fatalf("failed to load lanes: %v", err)
		}
		log.Printf("Loaded %d lane centerlines from %s", len(lanes), *lanesPath)
	} else {
		log.Printf("No lanes provided; candidates fall back to a %dx%d uniform grid", *gridRate, *gridRate)
	}

	store, err := featurestore.New(*outRoot)
	if err != nil {
		log.Fatalf("failed to create feature store: %v", err)
	}

	cfg := features.Config{
		Distance:      *distance,
		ObservedSteps: *obsSteps,
		AgentType:     *agentType,
		LaneRadius:    *laneRadius,
		GridRange:     *gridRange,
		GridRate:      *gridRate,
		Store:         store,
	}
	pp, err := features.NewScenePreprocessor(cfg, lanes)
	if err != nil {
		log.Fatalf("failed to create preprocessor: %v", err)
	}

	ids := ds.SequenceIDs()
	n := len(ids)
	if n == 0 {
		log.Printf("no sequences found; nothing to do")
		return
	}

	w := *workers
	if w <= 0 {
		w = runtime.NumCPU()
	}
	if w > n {
		w = n
	}
	if w < 1 {
		w = 1
	}

	jobs := make(chan string, n)
	var wg sync.WaitGroup
	wg.Add(w)

	var done, failed int64

	ticker := time.NewTicker(time.Duration(*progressInterval) * time.Second)
	stopProgress := make(chan struct{})
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				d := atomic.LoadInt64(&done)
				percent := (float64(d) / float64(n)) * 100.0
				log.Printf("[preprocess] progress: %d/%d (%.1f%%), %d failed",
					d, n, percent, atomic.LoadInt64(&failed))
			case <-stopProgress:
				log.Printf("[preprocess] completed: %d/%d, %d failed",
					atomic.LoadInt64(&done), n, atomic.LoadInt64(&failed))
				return
			}
		}
	}()

	start := time.Now()
	for i := 0; i < w; i++ {
		go func() {
			defer wg.Done()
			for id := range jobs {
				if err := processOne(ds, pp, id, *split); err != nil {
					log.Printf("warning: sequence %s skipped: %v", id, err)
					atomic.AddInt64(&failed, 1)
				}
				atomic.AddInt64(&done, 1)
			}
		}()
	}
	for _, id := range ids {
		jobs <- id
	}
	close(jobs)
	wg.Wait()
	close(stopProgress)

	log.Printf("Preprocessing %s split finished in %v (%d sequences, %d failed), records under %s",
		*split, time.Since(start), n, atomic.LoadInt64(&failed), filepath.Join(*outRoot, *split))

	if *vizCount > 0 {
		renderSome(ds, cfg, lanes, ids, *vizCount, *vizDir)
	}
}

// processOne runs the full pipeline for a single sequence id.
func processOne(ds *trajdata.Dataset, pp features.Preprocessor, id, split string) error {
	seq, err := ds.Sequence(id)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	_, err = features.Run(pp, seq, split)
	return err
}

// renderSome re-encodes the first count sequences with a rendering
// observer attached, writing one candidate plot per sequence. Failures are
// logged and skipped; plots are a debug aid, not an output contract.
func renderSome(ds *trajdata.Dataset, cfg features.Config, lanes []candidate.Polyline, ids []string, count int, dir string) {
	if count > len(ids) {
		count = len(ids)
	}
	for _, id := range ids[:count] {
		out := filepath.Join(dir, "candidates_"+id+".png")
		vcfg := cfg
		vcfg.Store = nil
		vcfg.Observer = render.Observer(out)
		vp, err := features.NewScenePreprocessor(vcfg, lanes)
		if err != nil {
			log.Printf("warning: viz preprocessor for %s: %v", id, err)
			continue
		}
		seq, err := ds.Sequence(id)
		if err != nil {
			log.Printf("warning: viz load %s: %v", id, err)
			continue
		}
		filtered, err := vp.Process(seq)
		if err != nil {
			log.Printf("warning: viz process %s: %v", id, err)
			continue
		}
		inter, err := vp.ExtractFeature(filtered)
		if err != nil {
			log.Printf("warning: viz extract %s: %v", id, err)
			continue
		}
		if _, err := vp.EncodeFeature(inter); err != nil {
			log.Printf("warning: viz encode %s: %v", id, err)
			continue
		}
	}
	log.Printf("Candidate plots written to %s", dir)
}

// mergeConfig reads a JSON tunables file and applies its values to flags
// still at their defaults.
func mergeConfig(path string, distance *float64, obsSteps *int, laneRadius *float64, workers, progressInterval *int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var raw struct {
		Distance                *float64 `json:"distance"`
		ObservedSteps           *int     `json:"observed_steps"`
		LaneRadius              *float64 `json:"lane_radius"`
		Workers                 *int     `json:"workers"`
		ProgressIntervalSeconds *int     `json:"progress_interval_seconds"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Distance != nil && *distance == 0.5 {
		*distance = *raw.Distance
	}
	if raw.ObservedSteps != nil && *obsSteps == 20 {
		*obsSteps = *raw.ObservedSteps
	}
	if raw.LaneRadius != nil && *laneRadius == 30 {
		*laneRadius = *raw.LaneRadius
	}
	if raw.Workers != nil && *workers == 0 {
		*workers = *raw.Workers
	}
	if raw.ProgressIntervalSeconds != nil && *progressInterval == 3 {
		*progressInterval = *raw.ProgressIntervalSeconds
	}
	return nil
}
