// Package render is the report client's state machine. It is implemented
// here, against abstract chart and theme boundaries, so its invariants are
// testable without a browser; the script embedded in the report is a direct
// port of this logic.
package render

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/KaramelBytes/datasight/internal/report"
)

// Theme is the report-wide color scheme. It is a preference, not a lifecycle
// state: it toggles freely at any time.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// DefaultTheme applies when the store holds no preference.
const DefaultTheme = ThemeDark

// ThemeKey is the persistence key for the theme preference. In the browser
// port it addresses localStorage.
const ThemeKey = "datasight-theme"

// ErrUnknownSection reports activation of a section the document does not
// contain.
var ErrUnknownSection = errors.New("unknown section")

// Surface is where charts materialize. In the browser this is the chart
// library bound to panel DOM nodes; in tests it is a recorder.
type Surface interface {
	// RenderChart instantiates one chart inside a section panel.
	RenderChart(sectionID string, spec report.ChartSpec, theme Theme) error
	// RestyleChart re-themes an already instantiated chart.
	RestyleChart(sectionID, chartID string, theme Theme) error
	// SetPanelVisible controls actual panel visibility. The renderer calls
	// it for every section on every navigation, so a panel can never end up
	// active-but-hidden or hidden-but-active.
	SetPanelVisible(sectionID string, visible bool)
}

// ThemeStore persists the theme preference across page loads.
type ThemeStore interface {
	Load() (Theme, bool)
	Save(Theme)
}

// Renderer drives lazy section rendering. Sections move Unrendered→Rendered
// exactly once; navigating back to a rendered section re-shows its panel
// without touching its charts.
type Renderer struct {
	doc     *report.Document
	surface Surface
	store   ThemeStore
	log     *zap.Logger

	theme    Theme
	active   string
	rendered map[string]bool
	failed   map[string][]string
}

// New builds the renderer in its pre-load state: theme restored from the
// store, nothing active, nothing rendered. Call Start to mirror page load.
func New(doc *report.Document, surface Surface, store ThemeStore, log *zap.Logger) *Renderer {
	theme := DefaultTheme
	if t, ok := store.Load(); ok && (t == ThemeLight || t == ThemeDark) {
		theme = t
	}
	return &Renderer{
		doc:      doc,
		surface:  surface,
		store:    store,
		log:      log,
		theme:    theme,
		rendered: make(map[string]bool),
		failed:   make(map[string][]string),
	}
}

// Start activates the document's first section, the one marked active at
// load. A document with no sections is a no-op.
func (r *Renderer) Start() error {
	if len(r.doc.Sections) == 0 {
		return nil
	}
	return r.Activate(r.doc.Sections[0].ID)
}

// Activate makes the given section the single active one. First activation
// renders its charts under the current theme; later activations only switch
// visibility. A chart that fails to render is logged and recorded, and its
// siblings still render.
func (r *Renderer) Activate(sectionID string) error {
	sec, ok := r.doc.Section(sectionID)
	if !ok {
		return errors.Wrapf(ErrUnknownSection, "section %q", sectionID)
	}

	r.active = sectionID
	// Visibility is re-asserted for every panel on every navigation, not
	// just the two panels that changed.
	for i := range r.doc.Sections {
		id := r.doc.Sections[i].ID
		r.surface.SetPanelVisible(id, id == r.active)
	}

	if r.rendered[sectionID] {
		return nil
	}
	for _, spec := range sec.Charts {
		if err := r.surface.RenderChart(sectionID, spec, r.theme); err != nil {
			r.failed[sectionID] = append(r.failed[sectionID], spec.ID)
			r.log.Warn("chart render failed",
				zap.String("section", sectionID),
				zap.String("chart", spec.ID),
				zap.Error(err))
		}
	}
	r.rendered[sectionID] = true
	return nil
}

// SetTheme persists the preference and restyles only charts that already
// rendered. Sections still Unrendered pick up the new theme naturally on
// first render.
func (r *Renderer) SetTheme(theme Theme) {
	if theme != ThemeLight && theme != ThemeDark {
		return
	}
	r.theme = theme
	r.store.Save(theme)
	for i := range r.doc.Sections {
		sec := &r.doc.Sections[i]
		if !r.rendered[sec.ID] {
			continue
		}
		for _, spec := range sec.Charts {
			if r.chartFailed(sec.ID, spec.ID) {
				continue
			}
			if err := r.surface.RestyleChart(sec.ID, spec.ID, theme); err != nil {
				r.log.Warn("chart restyle failed",
					zap.String("section", sec.ID),
					zap.String("chart", spec.ID),
					zap.Error(err))
			}
		}
	}
}

// ToggleTheme flips between light and dark.
func (r *Renderer) ToggleTheme() {
	if r.theme == ThemeDark {
		r.SetTheme(ThemeLight)
		return
	}
	r.SetTheme(ThemeDark)
}

// ActiveSection reports the single active section, empty before Start.
func (r *Renderer) ActiveSection() string { return r.active }

// Theme reports the current theme.
func (r *Renderer) Theme() Theme { return r.theme }

// Rendered reports whether a section has left the Unrendered state.
func (r *Renderer) Rendered(sectionID string) bool { return r.rendered[sectionID] }

// FailedCharts lists chart IDs that failed to render in a section.
func (r *Renderer) FailedCharts(sectionID string) []string { return r.failed[sectionID] }

func (r *Renderer) chartFailed(sectionID, chartID string) bool {
	for _, id := range r.failed[sectionID] {
		if id == chartID {
			return true
		}
	}
	return false
}
