package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/labstack/echo/v4"
)

// forwardingHeaders are read in this order once the peer is trusted. The
// activity trail reads the same headers from every peer, so its recorded IP
// can differ from c.RealIP() for clients outside TRUSTED_PROXIES.
var forwardingHeaders = []string{"X-Forwarded-For", "X-Real-IP", "CF-Connecting-IP"}

// TrustedProxies makes c.RealIP() honour forwarding headers, but only on
// connections whose peer address falls in one of trustedCIDRs. Without it
// every client behind the reverse proxy shares one rate limit bucket.
func TrustedProxies(e *echo.Echo, trustedCIDRs []string) {
	e.IPExtractor = buildIPExtractor(trustedCIDRs)
}

func buildIPExtractor(trustedCIDRs []string) echo.IPExtractor {
	var trusted []netip.Prefix
	for _, cidr := range trustedCIDRs {
		p, err := netip.ParsePrefix(strings.TrimSpace(cidr))
		if err != nil {
			slog.Warn("ignoring invalid trusted proxy CIDR", slog.String("cidr", cidr))
			continue
		}
		trusted = append(trusted, p.Masked())
	}

	return func(req *http.Request) string {
		peer := peerAddr(req.RemoteAddr)
		if !peer.IsValid() || !contains(trusted, peer) {
			return hostOnly(req.RemoteAddr)
		}

		for _, name := range forwardingHeaders {
			v := req.Header.Get(name)
			if v == "" {
				continue
			}
			// X-Forwarded-For lists hops; the leftmost is the client.
			first, _, _ := strings.Cut(v, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}
		return peer.String()
	}
}

func peerAddr(remoteAddr string) netip.Addr {
	addr, err := netip.ParseAddr(hostOnly(remoteAddr))
	if err != nil {
		return netip.Addr{}
	}
	return addr.Unmap()
}

func hostOnly(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

func contains(prefixes []netip.Prefix, addr netip.Addr) bool {
	for _, p := range prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
