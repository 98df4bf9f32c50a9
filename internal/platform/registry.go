package platform

import (
	"sort"
)

// ActiveDays describes which days of the week a platform's default
// cadence applies to.
type ActiveDays string

const (
	DaysDaily    ActiveDays = "daily"
	DaysWeekdays ActiveDays = "weekdays"
)

// Descriptor contains per-platform posting metadata. Descriptors are
// immutable at runtime.
type Descriptor struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	MaxChars   int        `json:"max_chars"`
	Slots      []string   `json:"slots"` // "HH:MM", ordered, local wall-clock
	ActiveDays ActiveDays `json:"active_days"`
	Style      string     `json:"style,omitempty"`
	Tone       string     `json:"tone,omitempty"`
}

// builtins holds the descriptors for the platforms crier knows about.
var builtins = map[string]Descriptor{
	"instagram": {
		ID: "instagram", Name: "Instagram", MaxChars: 2200,
		Slots: []string{"11:00", "21:00"}, ActiveDays: DaysDaily,
		Style: "visual-first, aesthetic, hashtag-rich",
		Tone:  "aspirational, authentic",
	},
	"x": {
		ID: "x", Name: "X (Twitter)", MaxChars: 280,
		Slots: []string{"09:00", "12:00", "17:00"}, ActiveDays: DaysDaily,
		Style: "concise, punchy, thread-friendly",
		Tone:  "casual, witty, conversational",
	},
	"linkedin": {
		ID: "linkedin", Name: "LinkedIn", MaxChars: 3000,
		Slots: []string{"07:30", "12:00"}, ActiveDays: DaysWeekdays,
		Style: "professional, thought-leadership, storytelling",
		Tone:  "professional, insightful, value-driven",
	},
	"meta": {
		ID: "meta", Name: "Facebook", MaxChars: 63206,
		Slots: []string{"09:00", "13:00", "19:00"}, ActiveDays: DaysDaily,
		Style: "visual-first, engaging, shareable",
		Tone:  "friendly, relatable",
	},
	"tiktok": {
		ID: "tiktok", Name: "TikTok", MaxChars: 2200,
		Slots: []string{"12:00", "19:00", "22:00"}, ActiveDays: DaysDaily,
		Style: "trend-aware, hook-driven, entertaining",
		Tone:  "casual, fun",
	},
	"reddit": {
		ID: "reddit", Name: "Reddit", MaxChars: 40000,
		Slots: []string{"10:00", "19:00"}, ActiveDays: DaysDaily,
		Style: "authentic, community-focused, non-promotional",
		Tone:  "genuine, helpful, not salesy",
	},
	"youtube": {
		ID: "youtube", Name: "YouTube", MaxChars: 5000,
		Slots: []string{"15:00"}, ActiveDays: DaysDaily,
		Style: "SEO-optimized, descriptive",
		Tone:  "informative, engaging",
	},
	"threads": {
		ID: "threads", Name: "Threads", MaxChars: 500,
		Slots: []string{"09:00", "18:00"}, ActiveDays: DaysDaily,
		Style: "conversational, authentic",
		Tone:  "casual, genuine",
	},
	"pinterest": {
		ID: "pinterest", Name: "Pinterest", MaxChars: 500,
		Slots: []string{"14:00", "21:00"}, ActiveDays: DaysDaily,
		Style: "descriptive, keyword-rich",
		Tone:  "inspiring, actionable",
	},
}

// DefaultDescriptor returns the descriptor used for platforms not in
// the registry. Callers can schedule against any platform id without
// special-casing; unknown ids get a conservative generic cadence.
func DefaultDescriptor(id string) Descriptor {
	return Descriptor{
		ID:         id,
		Name:       id,
		MaxChars:   280,
		Slots:      []string{"12:00"},
		ActiveDays: DaysDaily,
	}
}

// Registry is a read-only lookup table of platform descriptors.
type Registry struct {
	descriptors map[string]Descriptor
}

// NewRegistry creates a registry populated with the builtin platforms.
func NewRegistry() *Registry {
	descriptors := make(map[string]Descriptor, len(builtins))
	for id, d := range builtins {
		descriptors[id] = d
	}
	return &Registry{descriptors: descriptors}
}

// Describe returns the descriptor for a platform id. Unknown ids fall
// back to DefaultDescriptor and never fail.
func (r *Registry) Describe(id string) Descriptor {
	if d, ok := r.descriptors[id]; ok {
		return d
	}
	return DefaultDescriptor(id)
}

// Known reports whether the platform id has a builtin descriptor.
func (r *Registry) Known(id string) bool {
	_, ok := r.descriptors[id]
	return ok
}

// All returns every registered descriptor sorted by id.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
