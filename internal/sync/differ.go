package sync

import (
	"sort"
	"strings"

	"traefik-dns-sync/internal/cloudflare"
)

// Action indicates what the engine must do for one hostname.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionNoop   Action = "noop"
)

// decision carries an Action plus the data needed to execute it.
type decision struct {
	Action   Action
	RecordID string
	Proxied  bool
	Comment  string
	// CurrentIP is the target record's address before the change, for logs.
	CurrentIP string
	// MultipleRecords is set when more than one record exists for the
	// hostname; only the deterministically picked target is reconciled.
	MultipleRecords bool
}

// decide computes the action for one hostname given its existing records.
// With no records the result is a create using defaultProxied and a comment of
// exactly the marker. Otherwise the lexicographically-smallest record id is
// the target: a noop iff its address already equals ip and its raw comment
// already equals the composed comment, else an update that keeps the target's
// proxied flag and carries the composed comment.
func decide(ip string, records []cloudflare.Record, defaultProxied bool) decision {
	if len(records) == 0 {
		return decision{
			Action:  ActionCreate,
			Proxied: defaultProxied,
			Comment: Marker,
		}
	}

	target := pickRecord(records)
	comment := ComposeComment(target.Comment)
	d := decision{
		RecordID:        target.ID,
		Proxied:         target.Proxied,
		Comment:         comment,
		CurrentIP:       target.Content,
		MultipleRecords: len(records) > 1,
	}
	if target.Content == ip && comment == strings.TrimSpace(target.Comment) {
		d.Action = ActionNoop
		return d
	}
	d.Action = ActionUpdate
	return d
}

// pickRecord returns the record with the lexicographically-smallest id so the
// same target is chosen every cycle regardless of API response ordering.
func pickRecord(records []cloudflare.Record) cloudflare.Record {
	sorted := append([]cloudflare.Record{}, records...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return sorted[0]
}
