package render

// MemoryThemeStore is the in-process ThemeStore. The browser port swaps it
// for localStorage under the same key.
type MemoryThemeStore struct {
	theme Theme
	set   bool
}

func (s *MemoryThemeStore) Load() (Theme, bool) { return s.theme, s.set }

func (s *MemoryThemeStore) Save(t Theme) {
	s.theme = t
	s.set = true
}
