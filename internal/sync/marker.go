package sync

import "strings"

// Marker is the ownership token embedded in a record's comment. A record is
// managed by this tool iff its comment contains the marker; deletion during
// cleanup is gated on it so hand-created records are never touched.
const Marker = "managed-by=traefik-dns-sync"

// ComposeComment returns the comment a managed record should carry, merging
// the marker into any human-authored comment. Composing an already-marked
// comment returns it unchanged, so the operation is idempotent.
func ComposeComment(existing string) string {
	current := strings.TrimSpace(existing)
	if current == "" {
		return Marker
	}
	if strings.Contains(current, Marker) {
		return current
	}
	return current + " | " + Marker
}
