package schedule

import (
	"fmt"
	"strconv"
	"time"

	"github.com/crierhq/crier/internal/platform"
)

// Policy selects how publish times are assigned to a campaign's posts.
type Policy string

const (
	// PolicyImmediate posts as soon as possible, staggered so a
	// campaign does not burst every platform at the same instant.
	PolicyImmediate Policy = "immediate"
	// PolicyOptimal posts at the platform's next recommended slot.
	PolicyOptimal Policy = "optimal"
	// PolicySpread distributes posts evenly over a fixed interval.
	PolicySpread Policy = "spread"
	// PolicyCustom uses caller-supplied times, one per post.
	PolicyCustom Policy = "custom"
)

const (
	DefaultStagger  = 30 * time.Second
	DefaultInterval = 4 * time.Hour
)

// Config carries the policy parameters. Zero values fall back to the
// defaults above; a zero Start means "now" and an empty Policy means
// PolicyOptimal.
type Config struct {
	Policy   Policy
	Stagger  time.Duration // immediate: delay between consecutive posts
	Start    time.Time     // spread: first publish time
	Interval time.Duration // spread: gap between consecutive posts
	Times    []time.Time   // custom: explicit time per post index
}

// Slot is one planned publish instant. Tag disambiguates the job id
// derived from (campaign, platform) so re-planning the same campaign
// produces the same set of ids.
type Slot struct {
	Platform string
	At       time.Time
	Tag      string
}

// ValidPolicy reports whether p names a known policy. The empty
// string is valid and selects PolicyOptimal.
func ValidPolicy(p Policy) bool {
	switch p {
	case PolicyImmediate, PolicyOptimal, PolicySpread, PolicyCustom, "":
		return true
	}
	return false
}

// Plan computes one Slot per input post. It is pure: all time
// arithmetic derives from the injected now.
func Plan(reg *platform.Registry, now time.Time, platforms []string, cfg Config) ([]Slot, error) {
	switch cfg.Policy {
	case PolicyImmediate:
		return planImmediate(now, platforms, cfg), nil
	case PolicyOptimal, "":
		return planOptimal(reg, now, platforms), nil
	case PolicySpread:
		return planSpread(now, platforms, cfg), nil
	case PolicyCustom:
		return planCustom(now, platforms, cfg), nil
	default:
		return nil, fmt.Errorf("unknown scheduling policy: %q", cfg.Policy)
	}
}

func planImmediate(now time.Time, platforms []string, cfg Config) []Slot {
	stagger := cfg.Stagger
	if stagger <= 0 {
		stagger = DefaultStagger
	}

	slots := make([]Slot, len(platforms))
	for i, p := range platforms {
		slots[i] = Slot{
			Platform: p,
			At:       now.Add(time.Duration(i) * stagger),
			Tag:      strconv.Itoa(i),
		}
	}
	return slots
}

func planOptimal(reg *platform.Registry, now time.Time, platforms []string) []Slot {
	slots := make([]Slot, len(platforms))
	for i, p := range platforms {
		slots[i] = Slot{
			Platform: p,
			At:       NextSlot(reg.Describe(p), now),
			Tag:      "optimal",
		}
	}
	return slots
}

func planSpread(now time.Time, platforms []string, cfg Config) []Slot {
	start := cfg.Start
	if start.IsZero() {
		start = now
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	slots := make([]Slot, len(platforms))
	for i, p := range platforms {
		slots[i] = Slot{
			Platform: p,
			At:       start.Add(time.Duration(i) * interval),
			Tag:      "spread_" + strconv.Itoa(i),
		}
	}
	return slots
}

func planCustom(now time.Time, platforms []string, cfg Config) []Slot {
	slots := make([]Slot, len(platforms))
	for i, p := range platforms {
		at := now.Add(time.Duration(i+1) * time.Hour)
		if i < len(cfg.Times) {
			at = cfg.Times[i]
		}
		slots[i] = Slot{
			Platform: p,
			At:       at,
			Tag:      "custom_" + strconv.Itoa(i),
		}
	}
	return slots
}

// NextSlot returns the first of the platform's recommended slots
// strictly after now, at minute precision. When every slot today has
// passed, or today is outside the platform's active days, the first
// slot of the next active day is used.
func NextSlot(desc platform.Descriptor, now time.Time) time.Time {
	slots := desc.Slots
	if len(slots) == 0 {
		slots = []string{"12:00"}
	}

	if activeDay(desc.ActiveDays, now) {
		for _, s := range slots {
			hour, minute, err := parseSlot(s)
			if err != nil {
				continue
			}
			at := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
			if at.After(now) {
				return at
			}
		}
	}

	day := now
	for {
		day = day.AddDate(0, 0, 1)
		if activeDay(desc.ActiveDays, day) {
			break
		}
	}

	hour, minute, err := parseSlot(slots[0])
	if err != nil {
		hour, minute = 12, 0
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, now.Location())
}

// activeDay reports whether t falls on a day the cadence applies to.
func activeDay(days platform.ActiveDays, t time.Time) bool {
	if days != platform.DaysWeekdays {
		return true
	}
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// parseSlot parses an "HH:MM" time-of-day value.
func parseSlot(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid slot %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}
