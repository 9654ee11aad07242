package settings

import "sync/atomic"

// StyleFlags is the projection of Settings that the rendering surface applies
// globally. It carries no state of its own.
type StyleFlags struct {
	HighContrast bool `json:"high_contrast"`
	LargeFonts   bool `json:"large_fonts"`
	ReduceMotion bool `json:"reduce_motion"`
}

func (s Settings) Styles() StyleFlags {
	return StyleFlags{
		HighContrast: s.HighContrast,
		LargeFonts:   s.LargeFonts,
		ReduceMotion: s.ReduceMotion,
	}
}

// Classes returns the root class names to toggle on, in a fixed order.
func (f StyleFlags) Classes() []string {
	classes := make([]string, 0, 3)
	if f.HighContrast {
		classes = append(classes, "high-contrast")
	}
	if f.LargeFonts {
		classes = append(classes, "large-fonts")
	}
	if f.ReduceMotion {
		classes = append(classes, "reduce-motion")
	}
	return classes
}

// StyleMirror reflects the StyleFlags of a Store on every change.
type StyleMirror struct {
	flags       atomic.Pointer[StyleFlags]
	unsubscribe func()
}

// MirrorStyles subscribes to s and keeps the latest projection available.
// apply, when non-nil, is called with each new projection.
func MirrorStyles(s *Store, apply func(StyleFlags)) *StyleMirror {
	m := &StyleMirror{}
	initial := s.Current().Styles()
	m.flags.Store(&initial)
	m.unsubscribe = s.Subscribe(func(v Settings) {
		f := v.Styles()
		m.flags.Store(&f)
		if apply != nil {
			apply(f)
		}
	})
	return m
}

func (m *StyleMirror) Flags() StyleFlags {
	return *m.flags.Load()
}

func (m *StyleMirror) Close() {
	m.unsubscribe()
}
