package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spectrum-media/quote-api/internal/config"
)

// SecurityHeaders adds the configured browser security headers to every
// response. Report and archive downloads carry financial data, so paths under
// cfg.DownloadPaths also get cfg.DownloadCacheControl.
func SecurityHeaders(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	headers := securityHeaders(cfg)
	downloads := downloadMatcher(cfg.DownloadPaths)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for name, value := range headers {
				h.Set(name, value)
			}
			h.Del("X-Powered-By")
			h.Del("Server")

			if cfg.DownloadCacheControl != "" && downloads(r.URL.Path) {
				h.Set("Cache-Control", cfg.DownloadCacheControl)
				h.Set("Pragma", "no-cache")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// securityHeaders resolves the static header set once; empty settings are omitted
func securityHeaders(cfg *config.SecurityConfig) map[string]string {
	headers := make(map[string]string)
	set := func(name, value string) {
		if value != "" {
			headers[name] = value
		}
	}

	if cfg.ContentTypeNosniff {
		set("X-Content-Type-Options", "nosniff")
	}
	set("X-Frame-Options", cfg.FrameOptions)
	set("X-XSS-Protection", cfg.XSSProtection)
	set("Content-Security-Policy", cfg.ContentSecurityPolicy)
	set("Referrer-Policy", cfg.ReferrerPolicy)
	set("Permissions-Policy", cfg.PermissionsPolicy)

	if cfg.EnableHSTS && cfg.HSTSMaxAge > 0 {
		hsts := fmt.Sprintf("max-age=%d", cfg.HSTSMaxAge)
		if cfg.HSTSIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
		if cfg.HSTSPreload {
			hsts += "; preload"
		}
		set("Strict-Transport-Security", hsts)
	}
	return headers
}

func downloadMatcher(prefixes []string) func(path string) bool {
	var clean []string
	for _, p := range prefixes {
		if p = strings.TrimSpace(p); p != "" {
			clean = append(clean, p)
		}
	}
	return func(path string) bool {
		for _, p := range clean {
			if strings.HasPrefix(path, p) {
				return true
			}
		}
		return false
	}
}
