package sync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"traefik-dns-sync/internal/cloudflare"
)

// fakeProvider serves canned zone/record state and counts mutations.
type fakeProvider struct {
	zones   []cloudflare.Zone
	records map[string][]cloudflare.Record // zoneID -> records

	creates int
	updates int
	deletes int

	failCreateFor string
}

func (f *fakeProvider) ListZones(ctx context.Context) ([]cloudflare.Zone, error) {
	return f.zones, nil
}

func (f *fakeProvider) ListARecords(ctx context.Context, zoneID, name string) ([]cloudflare.Record, error) {
	var out []cloudflare.Record
	for _, rec := range f.records[zoneID] {
		if name == "" || strings.EqualFold(rec.Name, name) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeProvider) CreateARecord(ctx context.Context, zoneID, name, ip string, proxied bool, comment string) (cloudflare.Record, error) {
	if f.failCreateFor == name {
		return cloudflare.Record{}, errors.New("create rejected")
	}
	f.creates++
	rec := cloudflare.Record{ID: "created-" + name, Name: name, Content: ip, Proxied: proxied, Comment: comment}
	f.records[zoneID] = append(f.records[zoneID], rec)
	return rec, nil
}

func (f *fakeProvider) UpdateARecord(ctx context.Context, zoneID, recordID, name, ip string, proxied bool, comment string) (cloudflare.Record, error) {
	f.updates++
	for i, rec := range f.records[zoneID] {
		if rec.ID == recordID {
			f.records[zoneID][i] = cloudflare.Record{ID: recordID, Name: name, Content: ip, Proxied: proxied, Comment: comment}
			return f.records[zoneID][i], nil
		}
	}
	return cloudflare.Record{}, errors.New("record not found")
}

func (f *fakeProvider) DeleteRecord(ctx context.Context, zoneID, recordID string) error {
	f.deletes++
	records := f.records[zoneID]
	for i, rec := range records {
		if rec.ID == recordID {
			f.records[zoneID] = append(records[:i:i], records[i+1:]...)
			return nil
		}
	}
	return errors.New("record not found")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func hostSet(hosts ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		set[h] = struct{}{}
	}
	return set
}

func newScenarioProvider() *fakeProvider {
	return &fakeProvider{
		zones: []cloudflare.Zone{{ID: "zone-1", Name: "example.com"}},
		records: map[string][]cloudflare.Record{
			"zone-1": {
				{ID: "r-exists", Name: "exists.example.com", Content: "198.51.100.10", Proxied: true, Comment: ""},
				{ID: "r-same", Name: "same.example.com", Content: "203.0.113.10", Proxied: false, Comment: Marker},
				{ID: "r-stale", Name: "stale.example.com", Content: "198.51.100.99", Proxied: false, Comment: Marker},
			},
		},
	}
}

func TestRunEndToEndScenario(t *testing.T) {
	provider := newScenarioProvider()
	engine := &Engine{Provider: provider, Log: testLogger(), CleanupStale: true}

	summary, err := engine.Run(context.Background(), hostSet("new.example.com", "exists.example.com", "same.example.com"), "203.0.113.10")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := Summary{Creates: 1, Updates: 1, Noops: 1, Deletes: 1}
	if summary != want {
		t.Fatalf("expected %+v, got %+v", want, summary)
	}
	if provider.creates != 1 || provider.updates != 1 || provider.deletes != 1 {
		t.Fatalf("unexpected mutation counts: creates=%d updates=%d deletes=%d", provider.creates, provider.updates, provider.deletes)
	}
}

func TestRunDryRunNeverMutates(t *testing.T) {
	provider := newScenarioProvider()
	engine := &Engine{Provider: provider, Log: testLogger(), CleanupStale: true, DryRun: true}

	summary, err := engine.Run(context.Background(), hostSet("new.example.com", "exists.example.com", "same.example.com"), "203.0.113.10")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := Summary{Creates: 1, Updates: 1, Noops: 1, Deletes: 1}
	if summary != want {
		t.Fatalf("dry run must report the same counts, got %+v", summary)
	}
	if provider.creates != 0 || provider.updates != 0 || provider.deletes != 0 {
		t.Fatalf("dry run issued mutations: creates=%d updates=%d deletes=%d", provider.creates, provider.updates, provider.deletes)
	}
}

func TestRunCountsUnmatchedHostAsSkipped(t *testing.T) {
	provider := &fakeProvider{
		zones:   []cloudflare.Zone{{ID: "zone-1", Name: "example.com"}},
		records: map[string][]cloudflare.Record{"zone-1": nil},
	}
	engine := &Engine{Provider: provider, Log: testLogger()}

	summary, err := engine.Run(context.Background(), hostSet("a.other.net"), "203.0.113.10")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Skipped != 1 {
		t.Fatalf("expected skipped=1, got %+v", summary)
	}
	if provider.creates != 0 {
		t.Fatalf("unmatched host must not be created")
	}
}

func TestPruneNeverDeletesUnmarkedRecords(t *testing.T) {
	provider := &fakeProvider{
		zones: []cloudflare.Zone{{ID: "zone-1", Name: "example.com"}},
		records: map[string][]cloudflare.Record{
			"zone-1": {
				{ID: "r-stale", Name: "stale.example.com", Content: "198.51.100.1", Comment: Marker},
				{ID: "r-hand", Name: "other.example.com", Content: "198.51.100.2", Comment: ""},
			},
		},
	}
	engine := &Engine{Provider: provider, Log: testLogger(), CleanupStale: true}

	summary, err := engine.Run(context.Background(), hostSet(), "203.0.113.10")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Deletes != 1 {
		t.Fatalf("expected exactly one delete, got %+v", summary)
	}
	remaining := provider.records["zone-1"]
	if len(remaining) != 1 || remaining[0].ID != "r-hand" {
		t.Fatalf("unmarked record must survive cleanup, remaining=%+v", remaining)
	}
}

func TestRunAbortsCycleOnProviderError(t *testing.T) {
	provider := newScenarioProvider()
	provider.failCreateFor = "new.example.com"
	engine := &Engine{Provider: provider, Log: testLogger(), CleanupStale: true}

	// Hostnames run in sorted order: exists < new < same. The update lands,
	// the failing create aborts the rest of the cycle including cleanup.
	summary, err := engine.Run(context.Background(), hostSet("new.example.com", "exists.example.com", "same.example.com"), "203.0.113.10")
	if err == nil {
		t.Fatalf("expected cycle error")
	}
	if provider.updates != 1 {
		t.Fatalf("earlier update should have been applied, got %d", provider.updates)
	}
	if provider.deletes != 0 {
		t.Fatalf("cleanup must not run after a failed mutation")
	}
	if summary.Updates != 1 || summary.Deletes != 0 {
		t.Fatalf("unexpected partial summary %+v", summary)
	}
}

func TestRunPrefersMostSpecificZone(t *testing.T) {
	provider := &fakeProvider{
		zones: []cloudflare.Zone{
			{ID: "zone-parent", Name: "example.com"},
			{ID: "zone-child", Name: "sub.example.com"},
		},
		records: map[string][]cloudflare.Record{"zone-parent": nil, "zone-child": nil},
	}
	engine := &Engine{Provider: provider, Log: testLogger()}

	if _, err := engine.Run(context.Background(), hostSet("a.sub.example.com"), "203.0.113.10"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(provider.records["zone-child"]) != 1 {
		t.Fatalf("record should be created in the most specific zone")
	}
	if len(provider.records["zone-parent"]) != 0 {
		t.Fatalf("record must not land in the parent zone")
	}
}
