package platform

import (
	"testing"
)

func TestDescribeUnknownFallsBack(t *testing.T) {
	r := NewRegistry()

	for _, id := range []string{"myspace", "mastodon", ""} {
		d := r.Describe(id)
		if d.ID != id {
			t.Errorf("Describe(%q).ID = %q, want %q", id, d.ID, id)
		}
		if d.MaxChars != 280 {
			t.Errorf("Describe(%q).MaxChars = %d, want 280", id, d.MaxChars)
		}
		if len(d.Slots) != 1 || d.Slots[0] != "12:00" {
			t.Errorf("Describe(%q).Slots = %v, want [12:00]", id, d.Slots)
		}
		if d.ActiveDays != DaysDaily {
			t.Errorf("Describe(%q).ActiveDays = %s, want daily", id, d.ActiveDays)
		}
	}
}

func TestDescribeBuiltins(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		id       string
		maxChars int
		slots    int
		days     ActiveDays
	}{
		{"x", 280, 3, DaysDaily},
		{"linkedin", 3000, 2, DaysWeekdays},
		{"reddit", 40000, 2, DaysDaily},
		{"youtube", 5000, 1, DaysDaily},
		{"meta", 63206, 3, DaysDaily},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			d := r.Describe(tt.id)
			if d.MaxChars != tt.maxChars {
				t.Errorf("MaxChars = %d, want %d", d.MaxChars, tt.maxChars)
			}
			if len(d.Slots) != tt.slots {
				t.Errorf("len(Slots) = %d, want %d", len(d.Slots), tt.slots)
			}
			if d.ActiveDays != tt.days {
				t.Errorf("ActiveDays = %s, want %s", d.ActiveDays, tt.days)
			}
		})
	}
}

func TestAllSorted(t *testing.T) {
	r := NewRegistry()

	all := r.All()
	if len(all) != len(builtins) {
		t.Fatalf("All() returned %d descriptors, want %d", len(all), len(builtins))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].ID >= all[i].ID {
			t.Errorf("All() not sorted: %q before %q", all[i-1].ID, all[i].ID)
		}
	}
}

func TestKnown(t *testing.T) {
	r := NewRegistry()

	if !r.Known("x") {
		t.Error("Known(x) = false, want true")
	}
	if r.Known("myspace") {
		t.Error("Known(myspace) = true, want false")
	}
}
