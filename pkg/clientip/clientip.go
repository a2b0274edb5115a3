package clientip

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// DefaultHeaders are consulted in order before X-Forwarded-For.
var DefaultHeaders = []string{"CF-Connecting-IP", "X-Real-IP"}

// Config holds resolver settings loaded from the environment.
type Config struct {
	TrustedProxies []string `env:"CLIENTIP_TRUSTED_PROXIES" envSeparator:","`
	Headers        []string `env:"CLIENTIP_HEADERS" envSeparator:","`
}

// Resolver extracts client addresses from requests.
type Resolver struct {
	headers []string
	trusted []netip.Prefix
}

// Option configures a Resolver.
type Option func(*Resolver) error

// WithTrustedProxies limits header trust to peers inside the given addresses or CIDRs.
func WithTrustedProxies(proxies ...string) Option {
	return func(r *Resolver) error {
		for _, p := range proxies {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			prefix, err := parsePrefix(p)
			if err != nil {
				return err
			}
			r.trusted = append(r.trusted, prefix)
		}
		return nil
	}
}

// WithHeaders replaces DefaultHeaders.
func WithHeaders(headers ...string) Option {
	return func(r *Resolver) error {
		if len(headers) > 0 {
			r.headers = headers
		}
		return nil
	}
}

// NewResolver creates a resolver.
func NewResolver(opts ...Option) (*Resolver, error) {
	r := &Resolver{headers: DefaultHeaders}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// NewResolverFromConfig creates a resolver from cfg.
func NewResolverFromConfig(cfg Config) (*Resolver, error) {
	return NewResolver(WithTrustedProxies(cfg.TrustedProxies...), WithHeaders(cfg.Headers...))
}

var defaultResolver = &Resolver{headers: DefaultHeaders}

// GetIP returns the client address of r using default settings.
func GetIP(r *http.Request) string {
	return defaultResolver.IP(r)
}

// IP returns the normalized client address of req, or "" when none is valid.
func (r *Resolver) IP(req *http.Request) string {
	peer, ok := remoteAddr(req.RemoteAddr)
	if ok && !r.isTrusted(peer) {
		return peer.String()
	}

	for _, h := range r.headers {
		if addr, ok := parseAddr(req.Header.Get(h)); ok {
			return addr.String()
		}
	}

	if addr, ok := r.fromForwardedFor(req.Header.Values("X-Forwarded-For")); ok {
		return addr.String()
	}

	if ok {
		return peer.String()
	}
	return ""
}

func (r *Resolver) fromForwardedFor(values []string) (netip.Addr, bool) {
	var hops []netip.Addr
	for _, v := range values {
		for h := range strings.SplitSeq(v, ",") {
			if addr, ok := parseAddr(h); ok {
				hops = append(hops, addr)
			}
		}
	}
	if len(hops) == 0 {
		return netip.Addr{}, false
	}

	if len(r.trusted) > 0 {
		for i := len(hops) - 1; i >= 0; i-- {
			if !r.isTrusted(hops[i]) {
				return hops[i], true
			}
		}
	}
	// Every hop is trusted: the leftmost one is the original client.
	return hops[0], true
}

func (r *Resolver) isTrusted(addr netip.Addr) bool {
	if len(r.trusted) == 0 {
		return true
	}
	for _, p := range r.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func remoteAddr(s string) (netip.Addr, bool) {
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	return parseAddr(s)
}

func parseAddr(s string) (netip.Addr, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return netip.Addr{}, false
	}
	addr, err := netip.ParseAddr(strings.Trim(s, "[]"))
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap().WithZone(""), true
}

func parsePrefix(s string) (netip.Prefix, error) {
	if strings.Contains(s, "/") {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return netip.Prefix{}, fmt.Errorf("%w: %q: %w", ErrInvalidProxy, s, err)
		}
		return p.Masked(), nil
	}
	addr, ok := parseAddr(s)
	if !ok {
		return netip.Prefix{}, fmt.Errorf("%w: %q", ErrInvalidProxy, s)
	}
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}
