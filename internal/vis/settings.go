package vis

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Settings holds the validated, clamped knobs shared by every renderer.
// Values are only ever produced by merge, so a Settings read from the store
// is always within range.
type Settings struct {
	Sensitivity           float64 // [0.1, 5]
	AnimationSpeed        float64 // [0.1, 5]
	BarCount              int     // [8, 256]
	BarSpacing            float64 // >= 0
	MirrorEffect          bool
	GlowEffect            bool
	BackgroundColor       Color
	GradientBackground    bool
	FFTSize               int     // power of two in [256, 8192]
	SmoothingTimeConstant float64 // [0, 1]
}

// DefaultSettings returns the initial configuration.
func DefaultSettings() Settings {
	return Settings{
		Sensitivity:           1.0,
		AnimationSpeed:        1.0,
		BarCount:              64,
		BarSpacing:            2,
		MirrorEffect:          false,
		GlowEffect:            true,
		BackgroundColor:       RGB(8, 10, 18),
		GradientBackground:    true,
		FFTSize:               2048,
		SmoothingTimeConstant: 0.8,
	}
}

// Patch is a partial settings update. Nil fields keep their current value;
// set fields are clamped, never rejected.
type Patch struct {
	Sensitivity           *float64
	AnimationSpeed        *float64
	BarCount              *int
	BarSpacing            *float64
	MirrorEffect          *bool
	GlowEffect            *bool
	BackgroundColor       *Color
	GradientBackground    *bool
	FFTSize               *int
	SmoothingTimeConstant *float64
}

func (s Settings) merge(p Patch) Settings {
	if p.Sensitivity != nil {
		s.Sensitivity = clampf(*p.Sensitivity, 0.1, 5)
	}
	if p.AnimationSpeed != nil {
		s.AnimationSpeed = clampf(*p.AnimationSpeed, 0.1, 5)
	}
	if p.BarCount != nil {
		n := *p.BarCount
		if n < 8 {
			n = 8
		}
		if n > 256 {
			n = 256
		}
		s.BarCount = n
	}
	if p.BarSpacing != nil {
		v := *p.BarSpacing
		if v < 0 {
			v = 0
		}
		s.BarSpacing = v
	}
	if p.MirrorEffect != nil {
		s.MirrorEffect = *p.MirrorEffect
	}
	if p.GlowEffect != nil {
		s.GlowEffect = *p.GlowEffect
	}
	if p.BackgroundColor != nil {
		s.BackgroundColor = (*p.BackgroundColor).Alpha(1)
	}
	if p.GradientBackground != nil {
		s.GradientBackground = *p.GradientBackground
	}
	if p.FFTSize != nil {
		n := *p.FFTSize
		if n < 256 {
			n = 256
		}
		if n > 8192 {
			n = 8192
		}
		s.FFTSize = n
	}
	if p.SmoothingTimeConstant != nil {
		s.SmoothingTimeConstant = clampf(*p.SmoothingTimeConstant, 0, 1)
	}
	return s
}

// View is the immutable per-tick snapshot renderers read.
type View struct {
	Settings Settings
	Palette  Palette
}

// Store holds the canonical settings and active palette. Writes are atomic
// and become visible to readers before the next scheduled tick.
type Store struct {
	mu sync.Mutex
	v  atomic.Value // View
}

// NewStore creates a store with default settings and the default palette.
func NewStore() *Store {
	s := &Store{}
	s.v.Store(View{Settings: DefaultSettings(), Palette: PaletteByName("")})
	return s
}

// View returns the current snapshot.
func (s *Store) View() View {
	return s.v.Load().(View)
}

// Apply merges a partial update into the settings.
func (s *Store) Apply(p Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.v.Load().(View)
	cur.Settings = cur.Settings.merge(p)
	s.v.Store(cur)
}

// SetPalette switches to the named palette, falling back to the default for
// unknown names.
func (s *Store) SetPalette(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.v.Load().(View)
	cur.Palette = PaletteByName(name)
	s.v.Store(cur)
}

// CyclePalette advances to the next palette in order.
func (s *Store) CyclePalette() {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.v.Load().(View)
	cur.Palette = NextPalette(cur.Palette.Name)
	s.v.Store(cur)
}

// PatchFromMap converts a flat option map into a Patch. Recognized keys match
// the external settings surface; unknown keys and mistyped values error.
func PatchFromMap(opts map[string]any) (Patch, error) {
	var p Patch
	for key, val := range opts {
		switch key {
		case "sensitivity":
			f, err := asFloat(key, val)
			if err != nil {
				return Patch{}, err
			}
			p.Sensitivity = &f
		case "animationSpeed":
			f, err := asFloat(key, val)
			if err != nil {
				return Patch{}, err
			}
			p.AnimationSpeed = &f
		case "barCount":
			f, err := asFloat(key, val)
			if err != nil {
				return Patch{}, err
			}
			n := int(f)
			p.BarCount = &n
		case "barSpacing":
			f, err := asFloat(key, val)
			if err != nil {
				return Patch{}, err
			}
			p.BarSpacing = &f
		case "mirrorEffect":
			b, err := asBool(key, val)
			if err != nil {
				return Patch{}, err
			}
			p.MirrorEffect = &b
		case "glowEffect":
			b, err := asBool(key, val)
			if err != nil {
				return Patch{}, err
			}
			p.GlowEffect = &b
		case "backgroundColor":
			s, ok := val.(string)
			if !ok {
				return Patch{}, fmt.Errorf("option %q: expected hex string", key)
			}
			c, err := ParseHex(s)
			if err != nil {
				return Patch{}, fmt.Errorf("option %q: %w", key, err)
			}
			p.BackgroundColor = &c
		case "gradientBackground":
			b, err := asBool(key, val)
			if err != nil {
				return Patch{}, err
			}
			p.GradientBackground = &b
		case "fftSize":
			f, err := asFloat(key, val)
			if err != nil {
				return Patch{}, err
			}
			n := int(f)
			p.FFTSize = &n
		case "smoothingTimeConstant":
			f, err := asFloat(key, val)
			if err != nil {
				return Patch{}, err
			}
			p.SmoothingTimeConstant = &f
		default:
			return Patch{}, fmt.Errorf("unknown option %q", key)
		}
	}
	return p, nil
}

func asFloat(key string, val any) (float64, error) {
	switch v := val.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	}
	return 0, fmt.Errorf("option %q: expected number, got %T", key, val)
}

func asBool(key string, val any) (bool, error) {
	if b, ok := val.(bool); ok {
		return b, nil
	}
	return false, fmt.Errorf("option %q: expected bool, got %T", key, val)
}
