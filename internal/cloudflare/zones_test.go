package cloudflare

import "testing"

func TestMatchZonePrefersLongestSuffix(t *testing.T) {
	zones := []Zone{
		{ID: "zone-1", Name: "example.com"},
		{ID: "zone-2", Name: "sub.example.com"},
	}
	match, ok := MatchZone("a.sub.example.com", zones)
	if !ok {
		t.Fatalf("expected a zone match")
	}
	if match.ZoneID != "zone-2" || match.ZoneName != "sub.example.com" {
		t.Fatalf("expected sub.example.com to win, got %+v", match)
	}
}

func TestMatchZoneExactName(t *testing.T) {
	zones := []Zone{{ID: "zone-1", Name: "example.com"}}
	match, ok := MatchZone("example.com", zones)
	if !ok || match.ZoneID != "zone-1" {
		t.Fatalf("expected exact-name match, got ok=%v match=%+v", ok, match)
	}
}

func TestMatchZoneRejectsPartialLabelSuffix(t *testing.T) {
	// notexample.com must not match zone example.com.
	zones := []Zone{{ID: "zone-1", Name: "example.com"}}
	if _, ok := MatchZone("notexample.com", zones); ok {
		t.Fatalf("partial label suffix must not match")
	}
}

func TestMatchZoneNoMatchReturnsFalse(t *testing.T) {
	zones := []Zone{{ID: "zone-1", Name: "example.com"}}
	if _, ok := MatchZone("a.other.net", zones); ok {
		t.Fatalf("expected no match for a.other.net")
	}
}

func TestMatchZoneSkipsIncompleteZones(t *testing.T) {
	zones := []Zone{
		{ID: "", Name: "example.com"},
		{ID: "zone-2", Name: ""},
	}
	if _, ok := MatchZone("a.example.com", zones); ok {
		t.Fatalf("zones missing id or name must be ignored")
	}
}
