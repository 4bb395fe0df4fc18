package enrichment

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"
)

// ErrBlockedURL is returned for fetch targets that are not public http(s) pages
var ErrBlockedURL = errors.New("url not allowed")

// cgnat is the shared address space of RFC 6598, used by some cloud metadata services
var cgnat = &net.IPNet{IP: net.IPv4(100, 64, 0, 0), Mask: net.CIDRMask(10, 32)}

// URLGuard keeps fetches on the public internet. Loopback, private,
// link-local and unspecified addresses are refused unless allowPrivate is set.
type URLGuard struct {
	allowPrivate bool
	resolver     *net.Resolver
}

func NewURLGuard(allowPrivate bool) *URLGuard {
	return &URLGuard{allowPrivate: allowPrivate, resolver: net.DefaultResolver}
}

// Check validates the scheme and, unless private hosts are allowed, every
// address the host resolves to
func (g *URLGuard) Check(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBlockedURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrBlockedURL, u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("%w: missing host", ErrBlockedURL)
	}
	if g.allowPrivate {
		return nil
	}

	if ip := net.ParseIP(host); ip != nil {
		return checkIP(host, ip)
	}
	lower := strings.ToLower(strings.TrimSuffix(host, "."))
	if lower == "localhost" || strings.HasSuffix(lower, ".localhost") {
		return fmt.Errorf("%w: host %s", ErrBlockedURL, host)
	}

	addrs, err := g.resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", host, err)
	}
	for _, a := range addrs {
		if err := checkIP(host, a.IP); err != nil {
			return err
		}
	}
	return nil
}

// control is a net.Dialer Control hook. It re-checks the address actually
// dialed, which also covers redirects and DNS answers that change after Check.
func (g *URLGuard) control(_, address string, _ syscall.RawConn) error {
	if g.allowPrivate {
		return nil
	}
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBlockedURL, err)
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return fmt.Errorf("%w: unresolved address %s", ErrBlockedURL, address)
	}
	return checkIP(host, ip)
}

func checkIP(host string, ip net.IP) error {
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() || ip.IsMulticast() || cgnat.Contains(ip) {
		return fmt.Errorf("%w: %s resolves to non-public address %s", ErrBlockedURL, host, ip)
	}
	return nil
}
