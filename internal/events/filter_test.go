package events

import "testing"

func typesOf(ev []Event) []Type {
	out := make([]Type, len(ev))
	for i, e := range ev {
		out[i] = e.Type
	}
	return out
}

func equalTypes(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestByMinPriorityCritical(t *testing.T) {
	ev := []Event{{Type: TypeMessage}, {Type: TypeError}, {Type: TypeThinkingDelta}, {Type: TypeFileWrite}}
	got := typesOf(ByMinPriority(ev, PriorityCritical))
	want := []Type{TypeError, TypeFileWrite}
	if !equalTypes(got, want) {
		t.Errorf("ByMinPriority(critical) = %v, want %v", got, want)
	}
}

func TestByMinPriorityImportantIncludesCritical(t *testing.T) {
	ev := []Event{{Type: TypeMessage}, {Type: TypeError}, {Type: TypeRaw}, {Type: TypeBash}}
	got := typesOf(ByMinPriority(ev, PriorityImportant))
	want := []Type{TypeMessage, TypeError, TypeBash}
	if !equalTypes(got, want) {
		t.Errorf("ByMinPriority(important) = %v, want %v", got, want)
	}
}

func TestByMinPriorityVerboseKeepsEverything(t *testing.T) {
	ev := []Event{{Type: TypeRaw}, {Type: TypeInit}, {Type: TypeError}}
	got := ByMinPriority(ev, PriorityVerbose)
	if len(got) != len(ev) {
		t.Errorf("expected verbose threshold to keep every event, got %d of %d", len(got), len(ev))
	}
}

func TestByType(t *testing.T) {
	ev := []Event{{Type: TypeMessage}, {Type: TypeBash}, {Type: TypeFileRead}, {Type: TypeBash}}
	got := typesOf(ByType(ev, TypeBash))
	want := []Type{TypeBash, TypeBash}
	if !equalTypes(got, want) {
		t.Errorf("ByType(bash) = %v, want %v", got, want)
	}
}
