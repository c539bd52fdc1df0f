package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

const loopbackKey = "127.0.0.1"

// ClientKey extrai o endereço do cliente e o normaliza para uso como chave.
func ClientKey(r *http.Request) string {
	return NormalizeKey(extractIP(r))
}

// NormalizeKey maps equivalent spellings of one address to a single key:
// IPv4-mapped IPv6 is unmapped and every loopback address collapses to
// 127.0.0.1. Values that are not IP addresses are returned trimmed.
func NormalizeKey(raw string) string {
	raw = strings.TrimSpace(raw)
	addr, err := netip.ParseAddr(strings.Trim(raw, "[]"))
	if err != nil {
		return raw
	}
	addr = addr.Unmap().WithZone("")
	if addr.IsLoopback() {
		return loopbackKey
	}
	return addr.String()
}

func extractIP(r *http.Request) string {
	xForwardedFor := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if xForwardedFor != "" {
		parts := strings.Split(xForwardedFor, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}

	xRealIP := strings.TrimSpace(r.Header.Get("X-Real-IP"))
	if xRealIP != "" {
		return xRealIP
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}

	return host
}
