package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"

	"inro/pkg/requestcontext"
)

const (
	iPhoneUA  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1"
	androidUA = "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Mobile Safari/537.36"
	windowsUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	botUA     = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
)

func TestMiddlewareHandler(t *testing.T) {
	tests := []struct {
		name             string
		headers          map[string]string
		remoteAddr       string
		trustedProxies   []string
		expectedIP       string
		expectedUA       string
		expectedPlatform string
	}{
		{
			name:             "ignores XFF when no trusted proxies",
			headers:          map[string]string{"X-Forwarded-For": "203.0.113.1", "User-Agent": iPhoneUA},
			remoteAddr:       "192.168.1.1:12345",
			expectedIP:       "192.168.1.1",
			expectedUA:       iPhoneUA,
			expectedPlatform: PlatformIOS,
		},
		{
			name:             "trusts first XFF hop from trusted proxy",
			headers:          map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.2", "User-Agent": androidUA},
			remoteAddr:       "10.0.0.1:12345",
			trustedProxies:   []string{"10.0.0.0/8"},
			expectedIP:       "203.0.113.1",
			expectedUA:       androidUA,
			expectedPlatform: PlatformAndroid,
		},
		{
			name:             "rejects malformed XFF from trusted proxy",
			headers:          map[string]string{"X-Forwarded-For": "not-an-ip"},
			remoteAddr:       "10.0.0.1:12345",
			trustedProxies:   []string{"10.0.0.0/8"},
			expectedIP:       "10.0.0.1",
			expectedPlatform: PlatformUnknown,
		},
		{
			name:             "uses X-Real-IP from trusted proxy",
			headers:          map[string]string{"X-Real-IP": "198.51.100.4"},
			remoteAddr:       "10.0.0.1:12345",
			trustedProxies:   []string{"10.0.0.0/8"},
			expectedIP:       "198.51.100.4",
			expectedPlatform: PlatformUnknown,
		},
		{
			name:             "strips brackets and port from ipv6",
			remoteAddr:       "[2001:db8::1]:443",
			expectedIP:       "2001:db8::1",
			expectedPlatform: PlatformUnknown,
		},
		{
			name:             "unparseable remote addr",
			remoteAddr:       "",
			expectedIP:       "unknown",
			expectedPlatform: PlatformUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var capturedCtx context.Context
			testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				capturedCtx = r.Context()
			})

			var prefixes []netip.Prefix
			for _, cidr := range tt.trustedProxies {
				prefixes = append(prefixes, netip.MustParsePrefix(cidr))
			}
			handler := NewMiddleware(&Config{TrustedProxies: prefixes}).Handler(testHandler)

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.RemoteAddr = tt.remoteAddr
			for key, value := range tt.headers {
				req.Header.Set(key, value)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.expectedIP, requestcontext.ClientIP(capturedCtx), "IP address mismatch")
			assert.Equal(t, tt.expectedUA, requestcontext.UserAgent(capturedCtx), "User-Agent mismatch")
			assert.Equal(t, tt.expectedPlatform, requestcontext.ClientPlatform(capturedCtx), "platform mismatch")
		})
	}
}

func TestPlatform(t *testing.T) {
	assert.Equal(t, PlatformIOS, Platform(iPhoneUA))
	assert.Equal(t, PlatformAndroid, Platform(androidUA))
	assert.Equal(t, PlatformDesktop, Platform(windowsUA))
	assert.Equal(t, PlatformBot, Platform(botUA))
	assert.Equal(t, PlatformUnknown, Platform("  "))
}

func TestNewMiddleware_NilConfigTrustsNobody(t *testing.T) {
	m := NewMiddleware(nil)
	assert.False(t, m.isTrustedProxy(netip.MustParseAddr("127.0.0.1")))
}
