// Package render draws lane centerlines and sampled candidate points to
// PNG files. It is a debug aid for inspecting candidate coverage; nothing
// in the sampling or labeling path depends on it.
package render

import (
	"image/color"
	"log"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/Henry1iu/TNT-Trajectory-Predition/candidate"
)

// Candidates writes a PNG visualizing the lanes (grey lines) and the
// candidate set (red points) to outPath, creating parent directories as
// needed. Non-finite lane vertices are skipped.
func Candidates(outPath string, lanes []candidate.Polyline, cands []candidate.Point) error {
	p := plot.New()
	p.Title.Text = "Target candidates"
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"

	for i, lane := range lanes {
		xys := make(plotter.XYs, 0, len(lane))
		for _, v := range lane {
			if !v.IsFinite() {
				continue
			}
			xys = append(xys, plotter.XY{X: v.X, Y: v.Y})
		}
		if len(xys) < 2 {
			continue
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return err
		}
		line.Color = color.RGBA{R: 120, G: 120, B: 120, A: 200}
		line.Width = vg.Points(1)
		p.Add(line)
		if i == 0 {
			p.Legend.Add("centerlines", line)
		}
	}

	candXY := make(plotter.XYs, 0, len(cands))
	for _, c := range cands {
		candXY = append(candXY, plotter.XY{X: c.X, Y: c.Y})
	}
	sc, err := plotter.NewScatter(candXY)
	if err != nil {
		return err
	}
	sc.GlyphStyle.Color = color.RGBA{R: 200, G: 30, B: 30, A: 200}
	sc.GlyphStyle.Radius = vg.Points(1.6)
	p.Add(sc)
	p.Legend.Add("candidates", sc)

	p.Add(plotter.NewGrid())
	xmin, xmax, ymin, ymax := autoRange(candXY)
	p.X.Min = xmin
	p.X.Max = xmax
	p.Y.Min = ymin
	p.Y.Max = ymax

	if dir := filepath.Dir(outPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return p.Save(8*vg.Inch, 6*vg.Inch, outPath)
}

// Observer adapts Candidates into a sampling observer writing to outPath.
// Rendering failures are logged, not surfaced: the observer must not
// affect the sampling result.
func Observer(outPath string) candidate.Observer {
	return func(lanes []candidate.Polyline, cands []candidate.Point) {
		if err := Candidates(outPath, lanes, cands); err != nil {
			log.Printf("warning: failed to render candidates to %s: %v", outPath, err)
		}
	}
}

// autoRange computes padded min/max for X and Y for a set of points.
func autoRange(xys plotter.XYs) (xmin, xmax, ymin, ymax float64) {
	if len(xys) == 0 {
		return -1, 1, -1, 1
	}
	xmin = math.Inf(1)
	xmax = math.Inf(-1)
	ymin = math.Inf(1)
	ymax = math.Inf(-1)
	for _, p := range xys {
		xmin = math.Min(xmin, p.X)
		xmax = math.Max(xmax, p.X)
		ymin = math.Min(ymin, p.Y)
		ymax = math.Max(ymax, p.Y)
	}
	padx := (xmax - xmin) * 0.06
	pady := (ymax - ymin) * 0.06
	if padx == 0 {
		padx = 1.0
	}
	if pady == 0 {
		pady = 1.0
	}
	return xmin - padx, xmax + padx, ymin - pady, ymax + pady
}
