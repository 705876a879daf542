// Package cloudflare wraps the Cloudflare v4 API with the handful of zone and
// A-record operations the sync engine needs.
package cloudflare

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	cf "github.com/cloudflare/cloudflare-go"
)

const (
	// automaticTTL asks Cloudflare to manage the record TTL.
	automaticTTL = 1

	retryMaxAttempts   = 3
	retryMinDelaySecs  = 1
	retryMaxDelaySecs  = 10
	recordListPageSize = 100
)

// Client performs zone and A-record operations against Cloudflare. Every
// mutation rewrites the full record; rate-limited and 5xx responses are
// retried with backoff inside the underlying API client before an error
// surfaces.
type Client struct {
	api *cf.API
}

// NewClient instantiates a Client using an API token. The timeout bounds each
// individual HTTP call, not a whole sync cycle.
func NewClient(apiToken string, timeout time.Duration, opts ...cf.Option) (*Client, error) {
	if strings.TrimSpace(apiToken) == "" {
		return nil, errors.New("cloudflare token is required")
	}
	options := append([]cf.Option{
		cf.HTTPClient(&http.Client{Timeout: timeout}),
		cf.UsingRetryPolicy(retryMaxAttempts, retryMinDelaySecs, retryMaxDelaySecs),
	}, opts...)
	api, err := cf.NewWithAPIToken(apiToken, options...)
	if err != nil {
		return nil, fmt.Errorf("init cloudflare client: %w", err)
	}
	return &Client{api: api}, nil
}

// ListZones returns every zone the token can see.
func (c *Client) ListZones(ctx context.Context) ([]Zone, error) {
	apiZones, err := c.api.ListZones(ctx)
	if err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}
	zones := make([]Zone, 0, len(apiZones))
	for _, z := range apiZones {
		zones = append(zones, Zone{ID: z.ID, Name: z.Name})
	}
	return zones, nil
}

// ListARecords returns the zone's A records, across all pages. When name is
// non-empty the listing is filtered server-side to that exact record name.
func (c *Client) ListARecords(ctx context.Context, zoneID, name string) ([]Record, error) {
	rc := cf.ZoneIdentifier(zoneID)
	params := cf.ListDNSRecordsParams{Type: "A", Name: name}
	params.ResultInfo.PerPage = recordListPageSize
	var all []Record
	for {
		records, info, err := c.api.ListDNSRecords(ctx, rc, params)
		if err != nil {
			return nil, fmt.Errorf("list a records: %w", err)
		}
		for _, rec := range records {
			all = append(all, fromAPIRecord(rec))
		}
		if info == nil || info.Page >= info.TotalPages || info.TotalPages == 0 {
			break
		}
		params.ResultInfo.Page = info.Page + 1
		params.ResultInfo.PerPage = info.PerPage
	}
	return all, nil
}

// CreateARecord creates an A record mapping name to ip.
func (c *Client) CreateARecord(ctx context.Context, zoneID, name, ip string, proxied bool, comment string) (Record, error) {
	rec, err := c.api.CreateDNSRecord(ctx, cf.ZoneIdentifier(zoneID), cf.CreateDNSRecordParams{
		Type:    "A",
		Name:    name,
		Content: ip,
		TTL:     automaticTTL,
		Proxied: &proxied,
		Comment: comment,
	})
	if err != nil {
		return Record{}, fmt.Errorf("create a record %s: %w", name, err)
	}
	return fromAPIRecord(rec), nil
}

// UpdateARecord rewrites the identified A record in full.
func (c *Client) UpdateARecord(ctx context.Context, zoneID, recordID, name, ip string, proxied bool, comment string) (Record, error) {
	rec, err := c.api.UpdateDNSRecord(ctx, cf.ZoneIdentifier(zoneID), cf.UpdateDNSRecordParams{
		ID:      recordID,
		Type:    "A",
		Name:    name,
		Content: ip,
		TTL:     automaticTTL,
		Proxied: &proxied,
		Comment: &comment,
	})
	if err != nil {
		return Record{}, fmt.Errorf("update a record %s: %w", name, err)
	}
	return fromAPIRecord(rec), nil
}

// DeleteRecord removes a record by id.
func (c *Client) DeleteRecord(ctx context.Context, zoneID, recordID string) error {
	if err := c.api.DeleteDNSRecord(ctx, cf.ZoneIdentifier(zoneID), recordID); err != nil {
		return fmt.Errorf("delete record %s: %w", recordID, err)
	}
	return nil
}

func fromAPIRecord(rec cf.DNSRecord) Record {
	proxied := false
	if rec.Proxied != nil {
		proxied = *rec.Proxied
	}
	return Record{
		ID:      rec.ID,
		Name:    rec.Name,
		Content: rec.Content,
		Proxied: proxied,
		Comment: rec.Comment,
	}
}
