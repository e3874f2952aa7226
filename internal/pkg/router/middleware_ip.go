package router

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/samber/lo"
	"github.com/shandysiswandi/adminotp/internal/pkg/config"
)

// trustedProxies parses app.server.trusted_proxies. Entries may be bare
// addresses or CIDR prefixes; invalid ones are logged and skipped.
func trustedProxies(cfg config.Config) []netip.Prefix {
	if cfg == nil {
		return nil
	}

	return lo.FilterMap(cfg.GetArray("app.server.trusted_proxies"), func(entry string, _ int) (netip.Prefix, bool) {
		if prefix, err := netip.ParsePrefix(entry); err == nil {
			return prefix.Masked(), true
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			slog.Warn("ignoring invalid trusted proxy", "entry", entry, "error", err)
			return netip.Prefix{}, false
		}
		return netip.PrefixFrom(addr, addr.BitLen()), true
	})
}

// middlewareIP rewrites RemoteAddr to the client address. Forwarding headers
// are honored only when the direct peer is a trusted proxy, so a client cannot
// forge the address recorded in login audit events.
func middlewareIP(trusted []netip.Prefix) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rip := realIP(r, trusted); rip != "" {
				r.RemoteAddr = rip
			}
			next.ServeHTTP(w, r)
		})
	}
}

func realIP(r *http.Request, trusted []netip.Prefix) string {
	peer, ok := peerAddr(r.RemoteAddr)
	if !ok {
		return ""
	}

	isTrusted := lo.SomeBy(trusted, func(p netip.Prefix) bool { return p.Contains(peer) })
	if !isTrusted {
		return peer.String()
	}

	candidates := []string{
		r.Header.Get("True-Client-IP"),
		r.Header.Get("X-Real-IP"),
	}
	if first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ","); first != "" {
		candidates = append(candidates, first)
	}

	for _, c := range candidates {
		if addr, err := netip.ParseAddr(strings.TrimSpace(c)); err == nil {
			return addr.Unmap().String()
		}
	}

	return peer.String()
}

func peerAddr(remote string) (netip.Addr, bool) {
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		host = remote
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
