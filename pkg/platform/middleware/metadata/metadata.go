// Package metadata resolves who is calling: client IP (honouring
// X-Forwarded-For only from trusted proxies), raw User-Agent and a coarse
// platform label used in audit events and metric labels.
package metadata

import (
	"net/http"
	"net/netip"
	"strings"

	"github.com/mssola/useragent"

	"inro/pkg/requestcontext"
)

// MaxXFFHeaderLength bounds forwarded-for headers before parsing.
const MaxXFFHeaderLength = 500

// Platform labels. The set is closed so it is safe as a metric label.
const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
	PlatformMobile  = "mobile"
	PlatformDesktop = "desktop"
	PlatformBot     = "bot"
	PlatformOther   = "other"
	PlatformUnknown = "unknown"
)

type Config struct {
	// TrustedProxies may set X-Forwarded-For / X-Real-IP. Empty trusts nobody.
	TrustedProxies []netip.Prefix
}

type Middleware struct {
	config Config
}

func NewMiddleware(cfg *Config) *Middleware {
	m := &Middleware{}
	if cfg != nil {
		m.config = *cfg
	}
	return m
}

// Handler stores client IP, User-Agent and platform label on the context.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := r.Header.Get("User-Agent")

		ctx := requestcontext.WithClientMetadata(r.Context(), m.clientIP(r), ua)
		ctx = requestcontext.WithClientPlatform(ctx, Platform(ua))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Platform classifies a User-Agent. NFC-capable phones are what matter here,
// so iOS and Android get their own labels.
func Platform(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return PlatformUnknown
	}
	ua := useragent.New(userAgent)
	os := strings.ToLower(ua.OS())
	device := strings.ToLower(ua.Platform())

	switch {
	case ua.Bot():
		return PlatformBot
	case device == "iphone" || device == "ipad" || device == "ipod" || strings.Contains(os, "iphone os"):
		return PlatformIOS
	case strings.Contains(os, "android"):
		return PlatformAndroid
	case os == "":
		return PlatformOther
	case ua.Mobile():
		return PlatformMobile
	default:
		return PlatformDesktop
	}
}

func (m *Middleware) clientIP(r *http.Request) string {
	remote, ok := parseRemoteAddr(r.RemoteAddr)
	if !ok {
		return "unknown"
	}
	if !m.isTrustedProxy(remote) {
		return remote.String()
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if len(xff) > MaxXFFHeaderLength {
			return remote.String()
		}
		first, _, _ := strings.Cut(xff, ",")
		if addr, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return addr.String()
		}
		return remote.String()
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" && len(xri) <= MaxXFFHeaderLength {
		if addr, err := netip.ParseAddr(strings.TrimSpace(xri)); err == nil {
			return addr.String()
		}
	}
	return remote.String()
}

func (m *Middleware) isTrustedProxy(addr netip.Addr) bool {
	for _, prefix := range m.config.TrustedProxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// parseRemoteAddr accepts "ip:port", "[ipv6]:port" or a bare address.
func parseRemoteAddr(remoteAddr string) (netip.Addr, bool) {
	if remoteAddr == "" {
		return netip.Addr{}, false
	}
	if ap, err := netip.ParseAddrPort(remoteAddr); err == nil {
		return ap.Addr().Unmap(), true
	}
	if addr, err := netip.ParseAddr(remoteAddr); err == nil {
		return addr.Unmap(), true
	}
	return netip.Addr{}, false
}
