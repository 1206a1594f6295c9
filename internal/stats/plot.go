package stats

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"bitsearch/internal/model"
)

// WriteConvergencePlot draws best and mean error per generation. The image
// format follows the extension of path (.png, .svg, .pdf).
func WriteConvergencePlot(path, title string, diagnostics []model.GenerationDiagnostics) error {
	if len(diagnostics) == 0 {
		return fmt.Errorf("no diagnostics to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Error"

	bestPts := make(plotter.XYs, len(diagnostics))
	meanPts := make(plotter.XYs, len(diagnostics))
	for i, diag := range diagnostics {
		bestPts[i].X = float64(diag.Generation)
		bestPts[i].Y = float64(diag.BestError)
		meanPts[i].X = float64(diag.Generation)
		meanPts[i].Y = diag.MeanError
	}

	bestLine, err := plotter.NewLine(bestPts)
	if err != nil {
		return err
	}
	meanLine, err := plotter.NewLine(meanPts)
	if err != nil {
		return err
	}
	meanLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(bestLine, meanLine, plotter.NewGrid())
	p.Legend.Add("best", bestLine)
	p.Legend.Add("mean", meanLine)
	p.Legend.Top = true

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
