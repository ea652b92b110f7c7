package dashboard

import (
	"strings"
	"testing"
	"time"

	"stockcast/internal/view"
)

func TestFormatCompact(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{2_500_000_000, "2.5B"},
		{1_000_000, "1.0M"},
		{1_500, "1.5K"},
		{999, "999"},
		{0, "0"},
	}
	for _, tt := range tests {
		if got := FormatCompact(tt.in); got != tt.want {
			t.Errorf("FormatCompact(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatTick(t *testing.T) {
	if got := FormatTick(view.TickDollars, 12.5); got != "$12.50" {
		t.Errorf("FormatTick(dollars) = %q, want $12.50", got)
	}
	if got := FormatTick(view.TickCompact, 3_400_000); got != "3.4M" {
		t.Errorf("FormatTick(compact) = %q, want 3.4M", got)
	}
	if got := FormatTick(view.TickPlain, 1); got != "1.00" {
		t.Errorf("FormatTick(plain) = %q, want 1.00", got)
	}
}

func fp(v float64) *float64 { return &v }

func priceSpec() view.ChartSpec {
	return view.ChartSpec{
		Kind:   view.Line,
		Labels: []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04"},
		Datasets: []view.Dataset{
			{Label: view.LabelHistorical, Values: []*float64{fp(10), fp(12), nil}},
			{Label: view.LabelPredicted, Values: []*float64{nil, nil, nil, fp(15)}, Dashed: true},
		},
		X:      view.Axis{Scale: view.Time},
		Y:      view.Axis{Ticks: view.TickDollars},
		Legend: true,
	}
}

func isBraille(r rune) bool { return r >= 0x2800 && r <= 0x28FF }

func isBlock(r rune) bool { return r >= 0x2580 && r <= 0x259F }

func TestLineChartDraw(t *testing.T) {
	r := NewTextRenderer()
	out := r.Render(priceSpec()).Draw(60, 10)

	for _, want := range []string{"$", "Historical Close", "Predicted Price", "╍╍"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if !strings.ContainsFunc(out, isBraille) {
		t.Errorf("expected braille plot:\n%s", out)
	}
	if lines := strings.Count(out, "\n") + 1; lines > 10 {
		t.Errorf("lines = %d, want at most 10", lines)
	}
}

func TestBarChartDraw(t *testing.T) {
	r := NewTextRenderer()
	spec := view.ChartSpec{
		Kind:     view.Bar,
		Labels:   []string{"a", "b", "c"},
		Datasets: []view.Dataset{{Label: view.LabelVolume, Values: []*float64{fp(1_000_000), fp(2_000_000), nil}}},
		X:        view.Axis{Hidden: true},
		Y:        view.Axis{Title: "Volume", Ticks: view.TickCompact},
	}
	out := r.Render(spec).Draw(40, 5)
	if !strings.Contains(out, "Volume peak 2.0M") {
		t.Errorf("missing peak caption:\n%s", out)
	}
	if !strings.ContainsFunc(out, isBlock) {
		t.Errorf("expected bars:\n%s", out)
	}
}

func TestDrawRebuildsOnResize(t *testing.T) {
	r := NewTextRenderer()
	c := r.Render(priceSpec()).(*textChart)

	c.Draw(60, 10)
	first := c.model
	c.Draw(60, 10)
	if c.model != first {
		t.Error("expected model reused at the same size")
	}
	c.Draw(80, 12)
	if c.model == first || c.w != 80 || c.h != 11 {
		t.Errorf("size = %dx%d, want rebuilt at 80x11", c.w, c.h)
	}
}

func TestBucket(t *testing.T) {
	got := bucket([]*float64{fp(1), fp(5), nil, fp(2), fp(3)}, 2)
	want := []float64{5, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("bucket() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bucket()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestTimeline(t *testing.T) {
	times := timeline(priceSpec())
	if len(times) != 4 || times[3].Format(dateLayout) != "2024-01-04" {
		t.Errorf("timeline() = %v, want parsed dates", times)
	}

	spec := priceSpec()
	spec.Labels[1] = "not a date"
	times = timeline(spec)
	if got := times[2].Sub(times[1]); got != 24*time.Hour {
		t.Errorf("fallback spacing = %v, want 24h", got)
	}
}

func TestEmptyChart(t *testing.T) {
	r := NewTextRenderer()
	spec := view.ChartSpec{Kind: view.Bar, Datasets: []view.Dataset{{Label: view.LabelVolume, Values: []*float64{}}}}
	if out := r.Render(spec).Draw(40, 5); !strings.Contains(out, "no data") {
		t.Errorf("Draw() = %q, want no data", out)
	}
}

func TestDestroyReleasesInstance(t *testing.T) {
	r := NewTextRenderer()
	slot := view.NewSlot(r)

	slot.Replace(priceSpec())
	slot.Replace(priceSpec())
	if r.Live() != 1 {
		t.Errorf("Live() = %d, want 1 after replace", r.Live())
	}

	inst := r.Render(priceSpec())
	inst.Destroy()
	inst.Destroy()
	if r.Live() != 1 {
		t.Errorf("Live() = %d, want 1 after double destroy", r.Live())
	}
	if inst.Draw(40, 5) != "" {
		t.Error("expected destroyed instance to draw nothing")
	}

	slot.Clear()
	if r.Live() != 0 {
		t.Errorf("Live() = %d, want 0", r.Live())
	}
}
