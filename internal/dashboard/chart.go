package dashboard

import (
	"math"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/NimbleMarkets/ntcharts/linechart/timeserieslinechart"
	"github.com/charmbracelet/lipgloss"

	"stockcast/internal/view"
)

var (
	axisStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	emptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
)

const (
	minPlotWidth  = 10
	minPlotHeight = 3
	dateLayout    = "2006-01-02"
)

// TextRenderer implements view.Renderer with ntcharts models.
type TextRenderer struct {
	live int
}

// NewTextRenderer creates a renderer.
func NewTextRenderer() *TextRenderer { return &TextRenderer{} }

// Render creates a chart instance for spec. The underlying model is built
// on the first Draw, once the size is known.
func (r *TextRenderer) Render(spec view.ChartSpec) view.Instance {
	r.live++
	return &textChart{spec: spec, owner: r}
}

// Live returns the number of instances not yet destroyed.
func (r *TextRenderer) Live() int { return r.live }

// model is the part of an ntcharts chart an instance holds on to.
type model interface {
	View() string
}

type textChart struct {
	spec      view.ChartSpec
	owner     *TextRenderer
	model     model
	w, h      int
	destroyed bool
}

func (c *textChart) Destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true
	c.model = nil
	c.owner.live--
}

func (c *textChart) Draw(width, height int) string {
	if c.destroyed {
		return ""
	}
	_, hi, ok := bounds(c.spec)
	if !ok {
		return emptyStyle.Render("no data")
	}

	caption := c.caption(hi)
	plotW := max(width, minPlotWidth)
	plotH := height
	if caption != "" {
		plotH--
	}
	plotH = max(plotH, minPlotHeight)

	if c.model == nil || c.w != plotW || c.h != plotH {
		switch c.spec.Kind {
		case view.Bar:
			c.model = barModel(c.spec, plotW, plotH)
		default:
			c.model = lineModel(c.spec, plotW, plotH)
		}
		c.w, c.h = plotW, plotH
	}

	out := c.model.View()
	if caption != "" {
		out += "\n" + caption
	}
	return out
}

// caption is the line under the plot: the legend, or the peak value for
// bar charts drawn without one.
func (c *textChart) caption(peak float64) string {
	if c.spec.Legend {
		parts := make([]string, 0, len(c.spec.Datasets))
		for _, ds := range c.spec.Datasets {
			swatch := "━━"
			if ds.Dashed {
				swatch = "╍╍"
			}
			parts = append(parts, colored(ds.Color).Render(swatch+" "+ds.Label))
		}
		return strings.Join(parts, "  ")
	}
	if c.spec.Kind == view.Bar {
		return axisStyle.Render(strings.TrimSpace(c.spec.Y.Title + " peak " + FormatTick(c.spec.Y.Ticks, peak)))
	}
	return ""
}

func lineModel(spec view.ChartSpec, w, h int) model {
	m := timeserieslinechart.New(w, h,
		timeserieslinechart.WithYLabelFormatter(func(_ int, v float64) string {
			return FormatTick(spec.Y.Ticks, v)
		}),
	)
	times := timeline(spec)
	for _, ds := range spec.Datasets {
		for i, v := range ds.Values {
			// Gaps are skipped; the line joins the points either side.
			if v == nil || i >= len(times) {
				continue
			}
			m.PushDataSet(ds.Label, timeserieslinechart.TimePoint{Time: times[i], Value: *v})
		}
		m.SetDataSetStyle(ds.Label, colored(ds.Color))
	}
	m.DrawBrailleAll()
	return &m
}

func barModel(spec view.ChartSpec, w, h int) model {
	n := points(spec)
	size := max((n+w-1)/w, 1)
	data := make([]barchart.BarData, (n+size-1)/size)
	for i := range data {
		if !spec.X.Hidden && i*size < len(spec.Labels) {
			data[i].Label = spec.Labels[i*size]
		}
	}
	for _, ds := range spec.Datasets {
		style := colored(ds.Color)
		for i, v := range bucket(ds.Values, size) {
			data[i].Values = append(data[i].Values, barchart.BarValue{Name: ds.Label, Value: v, Style: style})
		}
	}

	m := barchart.New(w, h)
	m.PushAll(data)
	m.Draw()
	return &m
}

// bucket folds values into groups of size, keeping each group's peak.
// Missing values count as zero.
func bucket(values []*float64, size int) []float64 {
	out := make([]float64, 0, (len(values)+size-1)/size)
	for start := 0; start < len(values); start += size {
		peak := 0.0
		for _, v := range values[start:min(start+size, len(values))] {
			if v != nil && *v > peak {
				peak = *v
			}
		}
		out = append(out, peak)
	}
	return out
}

// timeline maps each point index to a time. Labels are used when every one
// parses as a date; otherwise points are spaced a day apart.
func timeline(spec view.ChartSpec) []time.Time {
	n := points(spec)
	out := make([]time.Time, n)
	if spec.X.Scale == view.Time && len(spec.Labels) == n {
		parsed := true
		for i, l := range spec.Labels {
			t, err := time.Parse(dateLayout, l)
			if err != nil {
				parsed = false
				break
			}
			out[i] = t
		}
		if parsed {
			return out
		}
	}
	epoch := time.Unix(0, 0).UTC()
	for i := range out {
		out[i] = epoch.AddDate(0, 0, i)
	}
	return out
}

func colored(hex string) lipgloss.Style {
	if hex == "" {
		return axisStyle
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex))
}

func bounds(spec view.ChartSpec) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, ds := range spec.Datasets {
		for _, v := range ds.Values {
			if v == nil {
				continue
			}
			lo = math.Min(lo, *v)
			hi = math.Max(hi, *v)
			ok = true
		}
	}
	return lo, hi, ok
}

func points(spec view.ChartSpec) int {
	n := len(spec.Labels)
	for _, ds := range spec.Datasets {
		n = max(n, len(ds.Values))
	}
	return n
}
