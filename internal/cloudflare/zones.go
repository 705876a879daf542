package cloudflare

import "strings"

// MatchZone selects the zone owning hostname. A zone owns a hostname when the
// hostname equals the zone name or ends with "." + zone name; among owners the
// longest zone name wins, so records land in the most specific zone when one
// zone is a suffix of another (example.com vs sub.example.com). The second
// return is false when no zone matches; that is not an error condition.
func MatchZone(hostname string, zones []Zone) (ZoneMatch, bool) {
	var best ZoneMatch
	found := false
	for _, zone := range zones {
		name := strings.ToLower(zone.Name)
		if name == "" || zone.ID == "" {
			continue
		}
		if hostname != name && !strings.HasSuffix(hostname, "."+name) {
			continue
		}
		if !found || len(name) > len(best.ZoneName) {
			best = ZoneMatch{ZoneID: zone.ID, ZoneName: name}
			found = true
		}
	}
	return best, found
}
