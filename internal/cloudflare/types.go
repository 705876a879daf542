package cloudflare

// Zone identifies a Cloudflare-hosted DNS zone.
type Zone struct {
	ID   string
	Name string
}

// Record represents the subset of A-record fields the sync engine acts on.
type Record struct {
	ID      string
	Name    string
	Content string
	Proxied bool
	Comment string
}

// ZoneMatch is the result of assigning a hostname to its owning zone.
type ZoneMatch struct {
	ZoneID   string
	ZoneName string
}
