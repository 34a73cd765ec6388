// Package report provides report generators for finished benchmark suites.
package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/whhaicheng/benchto-driver/internal/domain/execution"
)

// ChartGenerator generates text-based charts for reports.
type ChartGenerator struct{}

// NewChartGenerator creates a new chart generator.
func NewChartGenerator() *ChartGenerator {
	return &ChartGenerator{}
}

// GenerateDurationSparkline plots successful execution durations in
// submission order, in milliseconds.
func (g *ChartGenerator) GenerateDurationSparkline(executions []execution.QueryExecution, width, height int) string {
	values := make([]float64, 0, len(executions))
	for i := range executions {
		if executions[i].Successful() {
			values = append(values, millis(executions[i].Duration()))
		}
	}
	if len(values) == 0 {
		return ""
	}
	return g.generateSparkline(values, width, height, "Duration (ms)")
}

// GenerateMeanChart draws one bar per benchmark with its mean duration in milliseconds.
func (g *ChartGenerator) GenerateMeanChart(results []*execution.BenchmarkExecutionResult, width int) string {
	labels := make([]string, 0, len(results))
	values := make([]float64, 0, len(results))
	for _, r := range results {
		labels = append(labels, r.BenchmarkName())
		values = append(values, millis(r.Summary().Mean))
	}
	return g.GenerateBarChart(labels, values, width)
}

// generateSparkline generates a sparkline chart for a series of values.
func (g *ChartGenerator) generateSparkline(values []float64, width, height int, label string) string {
	if len(values) == 0 || width < 1 {
		return ""
	}
	if height < 2 {
		height = 2
	}

	lo, hi := g.minMax(values)
	rangeVal := hi - lo
	if rangeVal == 0 {
		rangeVal = 1
	}

	sampled := g.downsample(values, width)

	lines := make([][]rune, height)
	for i := range lines {
		lines[i] = []rune(strings.Repeat(" ", len(sampled)))
	}

	for i, val := range sampled {
		normalized := (val - lo) / rangeVal
		y := height - 1 - int(normalized*float64(height-1))
		y = min(max(y, 0), height-1)
		lines[y][i] = '█'
	}

	var sb strings.Builder
	sb.WriteString(label)
	sb.WriteString("\n")
	for i, line := range lines {
		labelVal := hi - (float64(i)/float64(height-1))*(hi-lo)
		fmt.Fprintf(&sb, "%8.2f │%s\n", labelVal, strings.TrimRight(string(line), " "))
	}

	return sb.String()
}

// downsample reduces the number of data points to fit the width.
func (g *ChartGenerator) downsample(values []float64, width int) []float64 {
	if len(values) <= width {
		return values
	}
	if width == 1 {
		return values[:1]
	}

	step := float64(len(values)-1) / float64(width-1)
	result := make([]float64, width)
	for i := 0; i < width; i++ {
		pos := min(int(float64(i)*step), len(values)-1)
		result[i] = values[pos]
	}

	return result
}

// minMax finds the minimum and maximum values in a slice.
func (g *ChartGenerator) minMax(values []float64) (float64, float64) {
	lo := math.Inf(1)
	hi := math.Inf(-1)

	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	if math.IsInf(lo, 1) || math.IsInf(hi, -1) {
		return 0, 1
	}

	return lo, hi
}

// GenerateBarChart generates a simple horizontal bar chart.
func (g *ChartGenerator) GenerateBarChart(labels []string, values []float64, width int) string {
	if len(labels) != len(values) || len(labels) == 0 {
		return ""
	}

	peak := 0.0
	for _, v := range values {
		peak = math.Max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}

	maxLabelLen := 0
	for _, l := range labels {
		maxLabelLen = max(maxLabelLen, len(l))
	}

	barWidth := max(width-maxLabelLen-10, 10)

	var sb strings.Builder
	for i, label := range labels {
		barLength := int(values[i] / peak * float64(barWidth))
		bar := strings.Repeat("█", barLength)
		fmt.Fprintf(&sb, "%*s │%s%s %.2f\n", maxLabelLen, label, bar, strings.Repeat(" ", barWidth-barLength), values[i])
	}

	return sb.String()
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
