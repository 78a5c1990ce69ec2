package handler

import (
	"net"
	"net/http"
	"strings"

	"github.com/mgrushin/go-shortlink/internal/model"
)

// clientIP prefers the first address in X-Forwarded-For, then the direct
// connection address. Empty when neither is usable.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return first
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port, e.g. in tests.
		return r.RemoteAddr
	}

	return host
}

func clickMetaFromRequest(r *http.Request) model.ClickMeta {
	return model.ClickMeta{
		ClientIP:  clientIP(r),
		UserAgent: r.UserAgent(),
		Referrer:  r.Referer(),
	}
}
