package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"syscall"
	"time"

	"mealminder/internal/recipe"
)

// DefaultMaxBytes caps how much of a page is read.
const DefaultMaxBytes = 5 << 20

// ErrUnsupportedURL is returned for anything other than an absolute http(s) URL.
var ErrUnsupportedURL = errors.New("url must be an absolute http or https address")

// ErrForbiddenAddress is returned when a public fetcher is asked to reach a
// loopback, private, link-local or otherwise non-public address.
var ErrForbiddenAddress = errors.New("url resolves to a non-public address")

// carrier-grade NAT range, not covered by netip.Addr.IsPrivate
var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

// Fetcher downloads pages and extracts recipes from them. Each call makes exactly one
// request; failures are not retried.
type Fetcher struct {
	client    *http.Client
	maxBytes  int64
	userAgent string
}

func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		maxBytes:  DefaultMaxBytes,
		userAgent: "mealminder-scraper/1.0",
	}
}

// NewPublicFetcher returns a Fetcher that only connects to public addresses. The
// check runs on the resolved IP of every dial, so redirects are covered too.
func NewPublicFetcher(timeout time.Duration) *Fetcher {
	dialer := &net.Dialer{Timeout: timeout, Control: rejectNonPublic}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext

	f := NewFetcher(timeout)
	f.client.Transport = transport
	return f
}

func rejectNonPublic(network, address string, _ syscall.RawConn) error {
	addrPort, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrForbiddenAddress, address)
	}
	if !isPublic(addrPort.Addr()) {
		return fmt.Errorf("%w: %s", ErrForbiddenAddress, addrPort.Addr())
	}
	return nil
}

func isPublic(ip netip.Addr) bool {
	ip = ip.Unmap()
	switch {
	case !ip.IsValid(),
		ip.IsUnspecified(),
		ip.IsLoopback(),
		ip.IsPrivate(),
		ip.IsLinkLocalUnicast(),
		ip.IsLinkLocalMulticast(),
		ip.IsInterfaceLocalMulticast(),
		ip.IsMulticast(),
		sharedAddressSpace.Contains(ip):
		return false
	}
	return true
}

// ValidateURL checks that raw is an absolute http(s) URL.
func ValidateURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrUnsupportedURL
	}
	return u, nil
}

// Fetch downloads pageURL and extracts its recipe.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (recipe.Draft, error) {
	u, err := ValidateURL(pageURL)
	if err != nil {
		return recipe.Draft{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return recipe.Draft{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return recipe.Draft{}, fmt.Errorf("fetch %s: %w", u.Redacted(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return recipe.Draft{}, fmt.Errorf("fetch %s: unexpected status %d", u.Redacted(), resp.StatusCode)
	}

	return Extract(io.LimitReader(resp.Body, f.maxBytes))
}
