package view

// ChartKind selects line or bar rendering.
type ChartKind int

const (
	Line ChartKind = iota
	Bar
)

// Scale is an axis scale.
type Scale int

const (
	Linear Scale = iota
	Time
)

// TickFormat selects how axis values are labelled.
type TickFormat int

const (
	TickPlain   TickFormat = iota
	TickDollars            // $X.XX
	TickCompact            // 1.2B / 3.4M / 5.6K
)

// Axis describes one chart axis.
type Axis struct {
	Scale  Scale
	Title  string
	Hidden bool
	Ticks  TickFormat
}

// Dataset is one labelled series. Nil values are gaps.
type Dataset struct {
	Label  string
	Values []*float64
	Color  string // hex, e.g. "#36A2EB"
	Dashed bool
}

// ChartSpec is everything a renderer needs to draw a chart.
type ChartSpec struct {
	Kind     ChartKind
	Labels   []string
	Datasets []Dataset
	X, Y     Axis
	Legend   bool
}

// Dataset returns the dataset with the given label.
func (c ChartSpec) Dataset(label string) (Dataset, bool) {
	for _, d := range c.Datasets {
		if d.Label == label {
			return d, true
		}
	}
	return Dataset{}, false
}

// Renderer turns a ChartSpec into a live chart.
type Renderer interface {
	Render(spec ChartSpec) Instance
}

// Instance is a rendered chart. Destroy releases it; a destroyed instance is
// never drawn again.
type Instance interface {
	Draw(width, height int) string
	Destroy()
}

// Slot owns at most one live chart instance.
type Slot struct {
	renderer Renderer
	inst     Instance
	spec     ChartSpec
}

// NewSlot creates an empty slot drawing with r.
func NewSlot(r Renderer) *Slot {
	return &Slot{renderer: r}
}

// Replace destroys the current instance, if any, then renders spec.
func (s *Slot) Replace(spec ChartSpec) {
	s.Clear()
	s.inst = s.renderer.Render(spec)
	s.spec = spec
}

// Clear destroys the current instance without replacement.
func (s *Slot) Clear() {
	if s.inst != nil {
		s.inst.Destroy()
		s.inst = nil
	}
	s.spec = ChartSpec{}
}

// Active reports whether a chart is live in the slot.
func (s *Slot) Active() bool { return s.inst != nil }

// Spec returns the spec of the live chart.
func (s *Slot) Spec() (ChartSpec, bool) { return s.spec, s.inst != nil }

// View draws the live chart, or nothing.
func (s *Slot) View(width, height int) string {
	if s.inst == nil {
		return ""
	}
	return s.inst.Draw(width, height)
}
