// Package sync implements one reconciliation cycle: it converges Cloudflare A
// records toward the hostnames Traefik currently routes and the host's public
// IPv4 address. Cycles are stateless; every run works from freshly fetched
// provider state, so external edits and restarts self-heal on the next cycle.
package sync

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"traefik-dns-sync/internal/cloudflare"
)

// Provider is the slice of the Cloudflare client the engine depends on. Each
// call is atomic and retries transient failures internally; an error returned
// here is final for the cycle.
type Provider interface {
	ListZones(ctx context.Context) ([]cloudflare.Zone, error)
	ListARecords(ctx context.Context, zoneID, name string) ([]cloudflare.Record, error)
	CreateARecord(ctx context.Context, zoneID, name, ip string, proxied bool, comment string) (cloudflare.Record, error)
	UpdateARecord(ctx context.Context, zoneID, recordID, name, ip string, proxied bool, comment string) (cloudflare.Record, error)
	DeleteRecord(ctx context.Context, zoneID, recordID string) error
}

// Summary counts the actions of one cycle. It is produced fresh each cycle,
// never accumulated.
type Summary struct {
	Creates int `json:"creates"`
	Updates int `json:"updates"`
	Noops   int `json:"noops"`
	Deletes int `json:"deletes"`
	Skipped int `json:"skipped"`
}

// Engine reconciles desired hostnames against Cloudflare state.
type Engine struct {
	Provider Provider
	Log      *slog.Logger

	// DefaultProxied is applied to newly created records only; updates keep
	// the existing record's proxied flag.
	DefaultProxied bool
	// DryRun computes and counts actions without issuing any mutation.
	DryRun bool
	// CleanupStale enables deletion of managed records whose hostname is no
	// longer desired. It is the only destructive path and is gated separately
	// from create/update.
	CleanupStale bool
}

// Run performs one reconciliation cycle and returns its summary. On a provider
// error the cycle aborts and the partial summary accompanies the error;
// already-applied mutations stand and the next cycle converges from scratch.
func (e *Engine) Run(ctx context.Context, hostnames map[string]struct{}, publicIP string) (Summary, error) {
	var summary Summary

	zones, err := e.Provider.ListZones(ctx)
	if err != nil {
		return summary, err
	}

	sorted := make([]string, 0, len(hostnames))
	for hostname := range hostnames {
		sorted = append(sorted, hostname)
	}
	sort.Strings(sorted)

	// Hostnames are processed in sorted order so logs and summaries are
	// reproducible across cycles.
	matched := make([]string, 0, len(sorted))
	zoneFor := make(map[string]cloudflare.ZoneMatch, len(sorted))
	for _, hostname := range sorted {
		match, ok := cloudflare.MatchZone(hostname, zones)
		if !ok {
			e.Log.Warn("skipping host: no matching cloudflare zone", "host", hostname)
			summary.Skipped++
			continue
		}
		matched = append(matched, hostname)
		zoneFor[hostname] = match
	}

	for _, hostname := range matched {
		if err := e.syncHost(ctx, zoneFor[hostname].ZoneID, hostname, publicIP, &summary); err != nil {
			return summary, err
		}
	}

	if e.CleanupStale {
		if err := e.pruneStale(ctx, zones, hostnames, &summary); err != nil {
			return summary, err
		}
	}

	return summary, nil
}

func (e *Engine) syncHost(ctx context.Context, zoneID, hostname, publicIP string, summary *Summary) error {
	listed, err := e.Provider.ListARecords(ctx, zoneID, hostname)
	if err != nil {
		return err
	}
	// The name filter is exact server-side; keep the guard anyway.
	var records []cloudflare.Record
	for _, rec := range listed {
		if strings.EqualFold(rec.Name, hostname) {
			records = append(records, rec)
		}
	}

	d := decide(publicIP, records, e.DefaultProxied)
	if d.MultipleRecords {
		e.Log.Warn("multiple a records found, using deterministic first record", "host", hostname)
	}

	switch d.Action {
	case ActionCreate:
		summary.Creates++
		e.Log.Info("create a record", "host", hostname, "ip", publicIP, "dry_run", e.DryRun)
		if e.DryRun {
			return nil
		}
		_, err := e.Provider.CreateARecord(ctx, zoneID, hostname, publicIP, d.Proxied, d.Comment)
		return err
	case ActionUpdate:
		summary.Updates++
		e.Log.Info("update a record", "host", hostname, "from", d.CurrentIP, "to", publicIP, "dry_run", e.DryRun)
		if e.DryRun {
			return nil
		}
		_, err := e.Provider.UpdateARecord(ctx, zoneID, d.RecordID, hostname, publicIP, d.Proxied, d.Comment)
		return err
	default:
		summary.Noops++
		e.Log.Debug("no change", "host", hostname, "ip", publicIP)
		return nil
	}
}

// pruneStale scans every zone's full A-record set and deletes records that
// carry the marker but whose name is no longer desired. Records without the
// marker are never deleted, desired or not.
func (e *Engine) pruneStale(ctx context.Context, zones []cloudflare.Zone, desired map[string]struct{}, summary *Summary) error {
	for _, zone := range zones {
		if zone.ID == "" {
			continue
		}
		records, err := e.Provider.ListARecords(ctx, zone.ID, "")
		if err != nil {
			return err
		}
		for _, rec := range records {
			if !strings.Contains(rec.Comment, Marker) {
				continue
			}
			name := strings.ToLower(rec.Name)
			if _, ok := desired[name]; ok {
				continue
			}
			summary.Deletes++
			e.Log.Info("delete stale managed a record", "host", name, "zone", zone.Name, "dry_run", e.DryRun)
			if e.DryRun {
				continue
			}
			if err := e.Provider.DeleteRecord(ctx, zone.ID, rec.ID); err != nil {
				return err
			}
		}
	}
	return nil
}
