package sync

import "testing"

func TestComposeCommentEmpty(t *testing.T) {
	if got := ComposeComment(""); got != Marker {
		t.Fatalf("empty comment should become the marker alone, got %q", got)
	}
	if got := ComposeComment("   "); got != Marker {
		t.Fatalf("blank comment should become the marker alone, got %q", got)
	}
}

func TestComposeCommentAppendsToHumanText(t *testing.T) {
	got := ComposeComment("reserved for staging")
	want := "reserved for staging | " + Marker
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestComposeCommentIdempotent(t *testing.T) {
	inputs := []string{"", "  ", Marker, "note | " + Marker, "plain note", Marker + " trailing"}
	for _, input := range inputs {
		once := ComposeComment(input)
		twice := ComposeComment(once)
		if once != twice {
			t.Fatalf("compose not idempotent for %q: %q != %q", input, once, twice)
		}
	}
}

func TestComposeCommentAlreadyMarkedUnchanged(t *testing.T) {
	marked := "note | " + Marker
	if got := ComposeComment(marked); got != marked {
		t.Fatalf("already-marked comment must pass through unchanged, got %q", got)
	}
}
