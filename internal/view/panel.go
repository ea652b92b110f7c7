package view

// Phase is the results panel state.
type Phase int

const (
	Idle Phase = iota // initial placeholder shown
	Loading
	Ready
	Failed
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Panel is the visible results area.
type Panel struct {
	Phase    Phase
	Visible  bool // results area shown, placeholder hidden
	Loading  bool
	Title    string
	Error    string
	Accuracy string
	Stats    *Stats
	Price    *Slot
	Volume   *Slot

	projection *Projection
}

// NewPanel creates an idle panel whose charts draw with r.
func NewPanel(r Renderer) *Panel {
	return &Panel{Price: NewSlot(r), Volume: NewSlot(r)}
}

// BeginLoading resets the panel for a new request about name.
func (p *Panel) BeginLoading(name string) {
	p.Phase = Loading
	p.Visible = true
	p.Loading = true
	p.Title = "Loading prediction for " + name + "..."
	p.Error = ""
	p.Accuracy = ""
	p.Stats = nil
	p.projection = nil
	p.Price.Clear()
	p.Volume.Clear()
}

// SetLoading toggles the loading indicator only.
func (p *Panel) SetLoading(on bool) { p.Loading = on }

// Fail shows title and message with stats hidden and charts cleared.
func (p *Panel) Fail(title, message string) {
	p.Phase = Failed
	p.Visible = true
	p.Title = title
	p.Error = message
	p.Accuracy = ""
	p.Stats = nil
	p.projection = nil
	p.Price.Clear()
	p.Volume.Clear()
}

// Apply displays pr, replacing both charts.
func (p *Panel) Apply(pr Projection) {
	p.Phase = Ready
	p.Visible = true
	p.Title = pr.Title
	p.Error = ""
	p.Accuracy = pr.Accuracy
	p.Stats = pr.Stats
	p.Price.Replace(pr.Price)
	p.Volume.Replace(pr.Volume)
	p.projection = &pr
}

// Projection returns the displayed projection while the panel is Ready.
func (p *Panel) Projection() (Projection, bool) {
	if p.projection == nil {
		return Projection{}, false
	}
	return *p.projection, true
}
