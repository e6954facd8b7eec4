package middleware

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"loyalty-gateway/pkg/requestcontext"
)

// ClientMetadata extracts the client IP, raw User-Agent, and a parsed device
// summary and stores them in the context. Apply early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIPFromRequest(r)
		ua := r.Header.Get("User-Agent")

		ctx := requestcontext.WithClientMetadata(r.Context(), ip, ua)
		if ua != "" {
			ctx = requestcontext.WithClientDevice(ctx, parseDevice(ua))
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func parseDevice(raw string) requestcontext.Device {
	parsed := useragent.New(raw)
	browser, _ := parsed.Browser()
	return requestcontext.Device{
		Browser: browser,
		OS:      parsed.OS(),
		Mobile:  parsed.Mobile(),
	}
}

// clientIPFromRequest extracts the real client IP, handling proxies and load
// balancers ahead of the gateway.
func clientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs; the first is the client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr is "ip:port" ("[::1]:port" for IPv6).
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return strings.Trim(addr[:idx], "[]")
		}
		return addr
	}
	return ""
}
