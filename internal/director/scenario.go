package director

// ScenarioVersion is written into every new scenario file.
const ScenarioVersion = "1.0"

// Scenario is the YAML form of a slide list
type Scenario struct {
	Version string  `yaml:"version"`
	Slides  []Slide `yaml:"slides"`
}

// Slide represents a single image with its optional motion
type Slide struct {
	ID    int `yaml:"id"`
	Entry `yaml:",inline"`
}

// NewScenario numbers entries from 1.
func NewScenario(entries []Entry) *Scenario {
	sc := &Scenario{Version: ScenarioVersion, Slides: make([]Slide, len(entries))}
	for i, e := range entries {
		sc.Slides[i] = Slide{ID: i + 1, Entry: e}
	}
	return sc
}

// Entries returns the slides in file order.
func (s *Scenario) Entries() []Entry {
	entries := make([]Entry, len(s.Slides))
	for i, sl := range s.Slides {
		entries[i] = sl.Entry
	}
	return entries
}
