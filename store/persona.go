package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Tone values the persona accepts. Anything else falls back to ToneDry.
const (
	ToneDry      = "dry"
	ToneWarm     = "warm"
	ToneClipped  = "clipped"
	ToneMilitary = "military"
)

// Persona holds the per-channel behavior sliders injected into the system
// prompt. Slider fields stay inside their declared bounds after every
// mutation; clamping happens on write, not on read.
type Persona struct {
	Snark        float64 `json:"snark"`        // 0-10
	Formality    float64 `json:"formality"`    // 0-10
	Verbosity    float64 `json:"verbosity"`    // 0-10
	Humor        float64 `json:"humor"`        // 0-10
	Temperature  float64 `json:"temperature"`  // 0.2-1.2, model sampling temperature
	Tone         string  `json:"tone"`         // dry|warm|clipped|military
	MemoryWindow int     `json:"memoryWindow"` // 0-50, memories injected per prompt
}

// PersonaPatch is a partial update; nil fields are left unchanged.
type PersonaPatch struct {
	Snark        *float64
	Formality    *float64
	Verbosity    *float64
	Humor        *float64
	Temperature  *float64
	Tone         *string
	MemoryWindow *int
}

// DefaultPersona returns the documented defaults a channel starts with.
func DefaultPersona() Persona {
	return Persona{
		Snark:        5,
		Formality:    5,
		Verbosity:    5,
		Humor:        5,
		Temperature:  0.7,
		Tone:         ToneDry,
		MemoryWindow: 10,
	}
}

// Text renders the persona as a short prompt fragment.
func (p Persona) Text() string {
	return fmt.Sprintf(
		"Persona sliders (0-10): snark=%.1f formality=%.1f verbosity=%.1f humor=%.1f. Tone: %s.",
		p.Snark, p.Formality, p.Verbosity, p.Humor, p.Tone)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// normalize forces every field back inside its declared bounds.
func (p *Persona) normalize() {
	p.Snark = clamp(p.Snark, 0, 10)
	p.Formality = clamp(p.Formality, 0, 10)
	p.Verbosity = clamp(p.Verbosity, 0, 10)
	p.Humor = clamp(p.Humor, 0, 10)
	p.Temperature = clamp(p.Temperature, 0.2, 1.2)
	switch p.Tone {
	case ToneDry, ToneWarm, ToneClipped, ToneMilitary:
	default:
		p.Tone = ToneDry
	}
	if p.MemoryWindow < 0 {
		p.MemoryWindow = 0
	}
	if p.MemoryWindow > 50 {
		p.MemoryWindow = 50
	}
}

// PersonaStore manages one Persona per channel on top of a durable Store.
// Records are lazily created with defaults on first read and are never
// deleted, only reset.
type PersonaStore struct {
	st *Store
}

// NewPersonaStore wraps st as the persona store.
func NewPersonaStore(st *Store) *PersonaStore {
	return &PersonaStore{st: st}
}

// Get returns the persona for channel, materializing and persisting the
// defaults on first read so later reads are stable.
func (ps *PersonaStore) Get(ctx context.Context, channel string) (Persona, error) {
	var p Persona
	ok, err := ps.st.Get(ctx, channel, &p)
	if err != nil {
		return DefaultPersona(), err
	}
	if !ok {
		p = DefaultPersona()
		if err := ps.st.Put(ctx, channel, p, 0); err != nil {
			return p, err
		}
	}
	return p, nil
}

// Patch merges the non-nil fields of patch into the channel's persona,
// clamps every field and persists the merged result, which is returned.
func (ps *PersonaStore) Patch(ctx context.Context, channel string, patch PersonaPatch) (Persona, error) {
	p, err := ps.Get(ctx, channel)
	if err != nil {
		return p, err
	}
	if patch.Snark != nil {
		p.Snark = *patch.Snark
	}
	if patch.Formality != nil {
		p.Formality = *patch.Formality
	}
	if patch.Verbosity != nil {
		p.Verbosity = *patch.Verbosity
	}
	if patch.Humor != nil {
		p.Humor = *patch.Humor
	}
	if patch.Temperature != nil {
		p.Temperature = *patch.Temperature
	}
	if patch.Tone != nil {
		p.Tone = strings.ToLower(strings.TrimSpace(*patch.Tone))
	}
	if patch.MemoryWindow != nil {
		p.MemoryWindow = *patch.MemoryWindow
	}
	p.normalize()
	if err := ps.st.Put(ctx, channel, p, 0); err != nil {
		return p, err
	}
	return p, nil
}

// Reset overwrites the channel's persona with the defaults.
func (ps *PersonaStore) Reset(ctx context.Context, channel string) (Persona, error) {
	p := DefaultPersona()
	if err := ps.st.Put(ctx, channel, p, 0); err != nil {
		return p, err
	}
	return p, nil
}

// PatchField builds a single-field patch from its textual form, as used by
// the "persona set <field> <value>" command.
func PatchField(field, value string) (PersonaPatch, error) {
	var patch PersonaPatch
	field = strings.ToLower(strings.TrimSpace(field))
	switch field {
	case "tone":
		v := value
		patch.Tone = &v
	case "memorywindow", "window":
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return patch, fmt.Errorf("%s wants an integer, got %q", field, value)
		}
		patch.MemoryWindow = &n
	case "snark", "formality", "verbosity", "humor", "temperature":
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return patch, fmt.Errorf("%s wants a number, got %q", field, value)
		}
		switch field {
		case "snark":
			patch.Snark = &f
		case "formality":
			patch.Formality = &f
		case "verbosity":
			patch.Verbosity = &f
		case "humor":
			patch.Humor = &f
		case "temperature":
			patch.Temperature = &f
		}
	default:
		return patch, fmt.Errorf("unknown persona field %q", field)
	}
	return patch, nil
}
