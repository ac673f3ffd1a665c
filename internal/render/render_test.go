package render

import (
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KaramelBytes/datasight/internal/report"
)

// recordingSurface counts every renderer call so tests can assert exact
// instantiation behavior.
type recordingSurface struct {
	renders  []string // "section/chart"
	restyles []string
	visible  map[string]bool
	failOn   map[string]bool
}

func newRecordingSurface() *recordingSurface {
	return &recordingSurface{visible: map[string]bool{}, failOn: map[string]bool{}}
}

func (s *recordingSurface) RenderChart(sectionID string, spec report.ChartSpec, _ Theme) error {
	if s.failOn[spec.ID] {
		return errors.Newf("malformed spec %q", spec.ID)
	}
	s.renders = append(s.renders, sectionID+"/"+spec.ID)
	return nil
}

func (s *recordingSurface) RestyleChart(sectionID, chartID string, _ Theme) error {
	s.restyles = append(s.restyles, sectionID+"/"+chartID)
	return nil
}

func (s *recordingSurface) SetPanelVisible(sectionID string, visible bool) {
	s.visible[sectionID] = visible
}

func (s *recordingSurface) visibleSections() []string {
	var out []string
	for id, v := range s.visible {
		if v {
			out = append(out, id)
		}
	}
	return out
}

func twoSectionDoc() *report.Document {
	return &report.Document{
		Sections: []report.SectionPayload{
			{ID: "a", Title: "A", Charts: []report.ChartSpec{{ID: "a1"}, {ID: "a2"}}},
			{ID: "b", Title: "B", Charts: []report.ChartSpec{{ID: "b1"}}},
		},
	}
}

func TestStartActivatesFirstSection(t *testing.T) {
	surface := newRecordingSurface()
	r := New(twoSectionDoc(), surface, &MemoryThemeStore{}, zap.NewNop())
	require.NoError(t, r.Start())

	assert.Equal(t, "a", r.ActiveSection())
	assert.True(t, r.Rendered("a"))
	assert.False(t, r.Rendered("b"))
	assert.Equal(t, []string{"a/a1", "a/a2"}, surface.renders)
	assert.Equal(t, []string{"a"}, surface.visibleSections())
}

func TestActivateIsIdempotent(t *testing.T) {
	surface := newRecordingSurface()
	r := New(twoSectionDoc(), surface, &MemoryThemeStore{}, zap.NewNop())
	require.NoError(t, r.Start())

	require.NoError(t, r.Activate("a"))
	require.NoError(t, r.Activate("a"))
	assert.Equal(t, []string{"a/a1", "a/a2"}, surface.renders,
		"re-activating must never duplicate chart instantiations")
}

func TestExactlyOneVisiblePanelAfterEveryNavigation(t *testing.T) {
	surface := newRecordingSurface()
	r := New(twoSectionDoc(), surface, &MemoryThemeStore{}, zap.NewNop())
	require.NoError(t, r.Start())

	for _, id := range []string{"b", "a", "b", "b", "a"} {
		require.NoError(t, r.Activate(id))
		vis := surface.visibleSections()
		require.Len(t, vis, 1, "after activating %q", id)
		assert.Equal(t, id, vis[0])
		assert.Equal(t, id, r.ActiveSection())
	}
}

func TestReturnNavigationSkipsCharts(t *testing.T) {
	surface := newRecordingSurface()
	r := New(twoSectionDoc(), surface, &MemoryThemeStore{}, zap.NewNop())
	require.NoError(t, r.Start())
	require.NoError(t, r.Activate("b"))
	before := len(surface.renders)

	require.NoError(t, r.Activate("a"))
	assert.Len(t, surface.renders, before, "rendered sections only flip visibility")
}

func TestActivateUnknownSection(t *testing.T) {
	r := New(twoSectionDoc(), newRecordingSurface(), &MemoryThemeStore{}, zap.NewNop())
	err := r.Activate("nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownSection)
}

func TestThemeToggleBeforeAnyRenderIsNoop(t *testing.T) {
	surface := newRecordingSurface()
	store := &MemoryThemeStore{}
	r := New(twoSectionDoc(), surface, store, zap.NewNop())

	r.ToggleTheme()
	assert.Empty(t, surface.restyles, "nothing rendered, nothing to restyle")
	assert.Equal(t, ThemeLight, r.Theme())

	saved, ok := store.Load()
	require.True(t, ok, "preference persists even before first render")
	assert.Equal(t, ThemeLight, saved)
}

func TestThemeToggleRestylesOnlyRenderedSections(t *testing.T) {
	surface := newRecordingSurface()
	r := New(twoSectionDoc(), surface, &MemoryThemeStore{}, zap.NewNop())
	require.NoError(t, r.Start())

	r.ToggleTheme()
	assert.Equal(t, []string{"a/a1", "a/a2"}, surface.restyles,
		"section b is unrendered and must not be restyled")
}

func TestLaterRendersUseCurrentTheme(t *testing.T) {
	doc := twoSectionDoc()
	var seen []Theme
	surface := &themeSpySurface{inner: newRecordingSurface(), seen: &seen}
	r := New(doc, surface, &MemoryThemeStore{}, zap.NewNop())
	require.NoError(t, r.Start())

	r.ToggleTheme()
	require.NoError(t, r.Activate("b"))
	assert.Equal(t, ThemeLight, seen[len(seen)-1],
		"first render after a toggle reads the current theme, no backfill needed")
}

type themeSpySurface struct {
	inner *recordingSurface
	seen  *[]Theme
}

func (s *themeSpySurface) RenderChart(sectionID string, spec report.ChartSpec, theme Theme) error {
	*s.seen = append(*s.seen, theme)
	return s.inner.RenderChart(sectionID, spec, theme)
}
func (s *themeSpySurface) RestyleChart(sectionID, chartID string, theme Theme) error {
	return s.inner.RestyleChart(sectionID, chartID, theme)
}
func (s *themeSpySurface) SetPanelVisible(sectionID string, visible bool) {
	s.inner.SetPanelVisible(sectionID, visible)
}

func TestMalformedChartDoesNotBlockSiblingsOrOtherSections(t *testing.T) {
	surface := newRecordingSurface()
	surface.failOn["a1"] = true
	r := New(twoSectionDoc(), surface, &MemoryThemeStore{}, zap.NewNop())
	require.NoError(t, r.Start())

	assert.Equal(t, []string{"a/a2"}, surface.renders, "sibling still renders")
	assert.Equal(t, []string{"a1"}, r.FailedCharts("a"))
	assert.True(t, r.Rendered("a"))

	require.NoError(t, r.Activate("b"))
	assert.Contains(t, surface.renders, "b/b1", "failure in a must not affect b")
}

func TestFailedChartSkippedOnRestyle(t *testing.T) {
	surface := newRecordingSurface()
	surface.failOn["a1"] = true
	r := New(twoSectionDoc(), surface, &MemoryThemeStore{}, zap.NewNop())
	require.NoError(t, r.Start())

	r.ToggleTheme()
	assert.Equal(t, []string{"a/a2"}, surface.restyles)
}

func TestStoredThemeRestoredAtLoad(t *testing.T) {
	store := &MemoryThemeStore{}
	store.Save(ThemeLight)
	r := New(twoSectionDoc(), newRecordingSurface(), store, zap.NewNop())
	assert.Equal(t, ThemeLight, r.Theme())

	r2 := New(twoSectionDoc(), newRecordingSurface(), &MemoryThemeStore{}, zap.NewNop())
	assert.Equal(t, DefaultTheme, r2.Theme())
}

func TestEmptyDocumentStart(t *testing.T) {
	r := New(&report.Document{}, newRecordingSurface(), &MemoryThemeStore{}, zap.NewNop())
	require.NoError(t, r.Start())
	assert.Equal(t, "", r.ActiveSection())
}

func TestManySectionsStayConsistent(t *testing.T) {
	doc := &report.Document{}
	for i := 0; i < 8; i++ {
		doc.Sections = append(doc.Sections, report.SectionPayload{
			ID:     fmt.Sprintf("s%d", i),
			Charts: []report.ChartSpec{{ID: fmt.Sprintf("c%d", i)}},
		})
	}
	surface := newRecordingSurface()
	r := New(doc, surface, &MemoryThemeStore{}, zap.NewNop())
	require.NoError(t, r.Start())
	for _, id := range []string{"s3", "s1", "s3", "s7", "s0"} {
		require.NoError(t, r.Activate(id))
		require.Len(t, surface.visibleSections(), 1)
	}
	assert.Len(t, surface.renders, 4, "s0, s1, s3 and s7 render exactly once each")
}
