package viz

import (
	"fmt"
	"io"
	"os"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/pthm-cable/drift/sim"
)

// RenderEventChart plots cumulative containment events against the
// iteration count of each checkpoint and writes the chart as PNG.
// At least two checkpoints are needed for a line.
func RenderEventChart(checkpoints []sim.Checkpoint, w io.Writer) error {
	if len(checkpoints) < 2 {
		return fmt.Errorf("viz: need at least 2 checkpoints, got %d", len(checkpoints))
	}

	xs := make([]float64, len(checkpoints))
	ys := make([]float64, len(checkpoints))
	for i, cp := range checkpoints {
		xs[i] = float64(cp.Iteration)
		ys[i] = float64(cp.Events)
	}

	graph := chart.Chart{
		Width:  640,
		Height: 360,
		XAxis: chart.XAxis{
			Name:  "iteration",
			Style: chart.Style{FontSize: 10.0},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%d", int(v.(float64)))
			},
		},
		YAxis: chart.YAxis{
			Name:  "containment events",
			Style: chart.Style{FontSize: 10.0},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "events",
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: chart.ColorRed,
					StrokeWidth: 2.0,
				},
			},
		},
	}

	return graph.Render(chart.PNG, w)
}

// SaveEventChart renders the event chart into a file at path.
func SaveEventChart(checkpoints []sim.Checkpoint, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	return RenderEventChart(checkpoints, f)
}
