// Package ipresolver discovers the host's public IPv4 address by querying
// plain-text lookup services with ordered fallback.
package ipresolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"
)

// DefaultSources are queried in order when no explicit list is configured.
var DefaultSources = []string{
	"https://api.ipify.org",
	"https://ifconfig.me/ip",
	"https://checkip.amazonaws.com",
}

const maxResponseBytes = 256

// Resolver queries lookup endpoints until one returns a valid IPv4 address.
type Resolver struct {
	Sources []string
	Timeout time.Duration
	Client  *http.Client
	Log     *slog.Logger
}

// New returns a Resolver over the given sources; nil or empty sources fall
// back to DefaultSources.
func New(sources []string, timeout time.Duration, log *slog.Logger) *Resolver {
	if len(sources) == 0 {
		sources = DefaultSources
	}
	return &Resolver{
		Sources: sources,
		Timeout: timeout,
		Client:  &http.Client{Timeout: timeout},
		Log:     log,
	}
}

// ResolveIPv4 returns the first valid public IPv4 reported by the configured
// sources, trying each in order. It fails only when every source fails or
// returns a non-IPv4 value.
func (r *Resolver) ResolveIPv4(ctx context.Context) (string, error) {
	var errs []error
	for _, source := range r.Sources {
		ip, err := r.query(ctx, source)
		if err != nil {
			r.Log.Warn("failed resolving public ip", "source", source, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", source, err))
			continue
		}
		return ip, nil
	}
	return "", fmt.Errorf("unable to resolve public ipv4 from configured sources: %w", errors.Join(errs...))
}

func (r *Resolver) query(ctx context.Context, source string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return "", err
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", err
	}
	value := strings.TrimSpace(string(body))
	addr, err := netip.ParseAddr(value)
	if err != nil {
		return "", fmt.Errorf("invalid address %q: %w", value, err)
	}
	if !addr.Is4() {
		return "", fmt.Errorf("not an ipv4 address: %s", value)
	}
	return addr.String(), nil
}
