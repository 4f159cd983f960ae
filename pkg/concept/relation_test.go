package concept

import "testing"

func TestRelationKeyCaseInsensitive(t *testing.T) {
	a := Relation{Source: "Machine Learning", Type: "Is-A", Target: "Artificial Intelligence"}
	b := Relation{Source: "machine learning", Type: "is-a", Target: "artificial intelligence", Evidence: "different"}

	if a.Key() != b.Key() {
		t.Errorf("expected matching keys, got %q and %q", a.Key(), b.Key())
	}

	c := Relation{Source: "artificial intelligence", Type: "is-a", Target: "machine learning"}
	if a.Key() == c.Key() {
		t.Error("reversed endpoints must not share a key")
	}
}

func TestTrackerMasterDedupe(t *testing.T) {
	tr := NewTracker(3)

	tr.AddLocal([]Relation{
		{Source: "a", Type: "uses", Target: "b", Evidence: "short", Section: "Intro", SectionIndex: 0},
		{Source: "b", Type: "part-of", Target: "c", Evidence: "x", Section: "Intro", SectionIndex: 0},
	})
	tr.AddLocal([]Relation{
		{Source: "A", Type: "USES", Target: "B", Evidence: "a much longer evidence span", Section: "Body", SectionIndex: 1},
	})

	master := tr.Master()
	if len(master) != 2 {
		t.Fatalf("expected 2 master relations, got %d", len(master))
	}
	if master[0].Evidence != "a much longer evidence span" {
		t.Errorf("expected longest evidence to survive, got %q", master[0].Evidence)
	}
	if master[0].Section != "Intro" {
		t.Errorf("expected first-encounter provenance to survive, got %q", master[0].Section)
	}
	if len(tr.Local()) != 3 {
		t.Errorf("local pool must keep every sighting, got %d", len(tr.Local()))
	}
}

func TestTrackerGlobalProvenance(t *testing.T) {
	tr := NewTracker(3)
	tr.AddGlobal([]Relation{
		{Source: "a", Type: "uses", Target: "b", Evidence: "doc-wide", Section: "Intro", SectionIndex: 4},
	})

	global := tr.Global()
	if len(global) != 1 {
		t.Fatalf("expected 1 global relation, got %d", len(global))
	}
	if global[0].Section != GlobalSectionName || global[0].SectionIndex != GlobalSectionIndex {
		t.Errorf("expected global provenance, got section=%q index=%d", global[0].Section, global[0].SectionIndex)
	}
}

func TestTrackerCadence(t *testing.T) {
	tr := NewTracker(3)

	var due []int
	for i := 0; i < 7; i++ {
		tr.AddLocal(nil)
		if tr.ShouldExtractGlobal() {
			due = append(due, tr.Counter())
		}
	}

	want := []int{3, 6}
	if len(due) != len(want) {
		t.Fatalf("expected extractions at %v, got %v", want, due)
	}
	for i := range want {
		if due[i] != want[i] {
			t.Errorf("expected extraction at unit %d, got %d", want[i], due[i])
		}
	}
}

func TestTrackerReset(t *testing.T) {
	tr := NewTracker(2)
	tr.AddLocal([]Relation{{Source: "a", Type: "uses", Target: "b"}})
	tr.AddGlobal([]Relation{{Source: "b", Type: "uses", Target: "c"}})

	tr.Reset()

	if tr.Counter() != 0 || len(tr.Local()) != 0 || len(tr.Global()) != 0 || len(tr.Master()) != 0 {
		t.Error("reset left state behind")
	}
}
