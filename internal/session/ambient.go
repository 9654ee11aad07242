package session

import (
	"strings"

	"github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/settings"
)

const (
	HeaderPrefersContrast      = "Sec-CH-Prefers-Contrast"
	HeaderPrefersReducedMotion = "Sec-CH-Prefers-Reduced-Motion"
)

// HintAmbient reads the platform's accessibility preferences from user-agent
// client hints. A missing hint defers to Fallback.
type HintAmbient struct {
	Contrast      string
	ReducedMotion string
	Fallback      settings.Ambient
}

// HintsFrom builds a HintAmbient from a header getter such as fiber's
// Ctx.Get.
func HintsFrom(get func(key string, defaultValue ...string) string, fallback settings.Ambient) HintAmbient {
	return HintAmbient{
		Contrast:      get(HeaderPrefersContrast),
		ReducedMotion: get(HeaderPrefersReducedMotion),
		Fallback:      fallback,
	}
}

func (h HintAmbient) PrefersHighContrast() bool {
	if v := hintValue(h.Contrast); v != "" {
		return v == "more"
	}
	return h.Fallback != nil && h.Fallback.PrefersHighContrast()
}

func (h HintAmbient) PrefersReducedMotion() bool {
	if v := hintValue(h.ReducedMotion); v != "" {
		return v == "reduce"
	}
	return h.Fallback != nil && h.Fallback.PrefersReducedMotion()
}

func hintValue(raw string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(raw), `"`))
}
