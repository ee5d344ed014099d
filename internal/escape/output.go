package escape

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/guptarohit/asciigraph"
	plt "github.com/phil-mansfield/pyplot"
	"github.com/phil-mansfield/table"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const (
	xLabel = "frame"
	yLabel = "escaped"
)

// WriteTable writes one "frame escaped" row per frame.
func WriteTable(w io.Writer, counts []int) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %s %s\n", xLabel, yLabel)
	for f, n := range counts {
		fmt.Fprintf(bw, "%d %d\n", f, n)
	}
	return bw.Flush()
}

// SaveTable writes the table to path.
func SaveTable(path string, counts []int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteTable(f, counts); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// ReadTable reads a table written by SaveTable back into counts indexed by frame.
func ReadTable(path string) ([]int, error) {
	cols, err := table.ReadTable(path, []int{0, 1}, nil)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	frames, escaped := cols[0], cols[1]
	counts := make([]int, len(frames))
	for i := range frames {
		f := int(frames[i])
		if f < 0 || f >= len(counts) {
			return nil, fmt.Errorf("read %s: frame %d out of range", path, f)
		}
		counts[f] = int(escaped[i])
	}
	return counts, nil
}

// series returns frames on x and counts on y.
func series(counts []int) (xs, ys []float64) {
	xs = make([]float64, len(counts))
	ys = make([]float64, len(counts))
	for i, n := range counts {
		xs[i], ys[i] = float64(i), float64(n)
	}
	return xs, ys
}

// SavePNG renders the escape curve with gonum/plot.
func SavePNG(path, title string, counts []int) error {
	if len(counts) == 0 {
		return ErrNoFrames
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Y.Min = 0

	xs, ys := series(counts)
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X, pts[i].Y = xs[i], ys[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.LineStyle.Width = vg.Points(2)
	p.Add(line)

	if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// Pyplot renders the escape curve through matplotlib. It needs a python3
// with matplotlib on PATH.
func Pyplot(path, title string, counts []int) error {
	if len(counts) == 0 {
		return ErrNoFrames
	}
	xs, ys := series(counts)
	plt.Figure()
	plt.Plot(xs, ys, "k", plt.LW(2))
	plt.Title(title)
	plt.XLabel(xLabel, plt.FontSize(16))
	plt.YLabel(yLabel, plt.FontSize(16))
	plt.SaveFig(path)
	plt.Execute()
	return nil
}

// Chart draws the escape curve for a terminal.
func Chart(counts []int, height int) string {
	if len(counts) == 0 {
		return ""
	}
	_, ys := series(counts)
	return asciigraph.Plot(ys, asciigraph.Height(height), asciigraph.Caption("escaped per frame"))
}
