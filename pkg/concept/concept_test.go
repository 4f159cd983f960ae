package concept

import "testing"

func TestParseLayer(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Layer
	}{
		{name: "priority", raw: "priority", want: LayerPriority},
		{name: "secondary with noise", raw: "  Secondary ", want: LayerSecondary},
		{name: "tertiary", raw: "tertiary", want: LayerTertiary},
		{name: "invalid defaults to tertiary", raw: "critical", want: LayerTertiary},
		{name: "empty defaults to tertiary", raw: "", want: LayerTertiary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLayer(tt.raw); got != tt.want {
				t.Errorf("ParseLayer(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestConceptAddAppearance(t *testing.T) {
	c := NewConcept("Machine Learning", LayerPriority)
	if c.ID != "machine learning" {
		t.Fatalf("expected normalized id, got %q", c.ID)
	}

	c.AddAppearance(Appearance{Section: "Intro", SectionIndex: 0}, "machine learning")
	c.AddAppearance(Appearance{Section: "Intro", SectionIndex: 0}, "ML")
	c.AddAppearance(Appearance{Section: "History", SectionIndex: 1}, "ml")

	if c.Frequency != 3 {
		t.Errorf("expected frequency 3, got %d", c.Frequency)
	}
	if c.SectionCount != 2 {
		t.Errorf("expected section count 2, got %d", c.SectionCount)
	}
	if len(c.Appearances) != 3 {
		t.Fatalf("expected 3 appearances, got %d", len(c.Appearances))
	}
	for i, app := range c.Appearances {
		if app.ID == "" {
			t.Errorf("appearance %d has no id", i)
		}
	}

	variants := c.Variants()
	if len(variants) != 1 || variants[0] != "ml" {
		t.Errorf("expected variants [ml], got %v", variants)
	}
}

func TestConceptPromote(t *testing.T) {
	c := NewConcept("entropy", LayerTertiary)

	c.Promote(LayerSecondary)
	if c.Layer != LayerSecondary {
		t.Errorf("expected promotion to secondary, got %q", c.Layer)
	}

	c.Promote(LayerTertiary)
	if c.Layer != LayerSecondary {
		t.Errorf("layer was demoted to %q", c.Layer)
	}

	c.Promote(LayerPriority)
	if c.Layer != LayerPriority {
		t.Errorf("expected promotion to priority, got %q", c.Layer)
	}
}

func TestConceptMergeFrom(t *testing.T) {
	a := NewConcept("neural network", LayerSecondary)
	a.Evidence = "short"
	a.AddAppearance(Appearance{Section: "Intro", SectionIndex: 0}, "neural network")
	a.AddAppearance(Appearance{Section: "Intro", SectionIndex: 0}, "NN")

	b := NewConcept("neural network", LayerPriority)
	b.Evidence = "a considerably longer piece of evidence"
	b.AddAppearance(Appearance{Section: "Models", SectionIndex: 2}, "neural net")

	a.MergeFrom(b)

	if a.Frequency != 3 {
		t.Errorf("expected frequency 3, got %d", a.Frequency)
	}
	if a.SectionCount != 2 {
		t.Errorf("expected section count 2, got %d", a.SectionCount)
	}
	if a.Layer != LayerPriority {
		t.Errorf("expected merged layer priority, got %q", a.Layer)
	}
	if a.Evidence != b.Evidence {
		t.Errorf("expected the longer evidence to survive, got %q", a.Evidence)
	}

	variants := a.Variants()
	if len(variants) != 2 {
		t.Errorf("expected 2 variants, got %v", variants)
	}
}

func TestConceptViewIsDetached(t *testing.T) {
	c := NewConcept("gradient descent", LayerSecondary)
	c.AddAppearance(Appearance{Section: "Training", SectionIndex: 1}, "gradient descent")

	view := c.View()
	view.Appearances[0].Section = "mutated"

	if c.Appearances[0].Section != "Training" {
		t.Error("mutating a view leaked into the concept")
	}
}
