package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CORSPolicy describes which customer sites may call the public booking endpoints from a browser.
// An origin entry is "*", an exact origin, or a subdomain pattern such as "https://*.example.com".
type CORSPolicy struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// PublicBookingCORS is the policy for the embeddable booking widget: customer sites call the
// public endpoints from arbitrary origins, without cookies, and may read the request id back.
func PublicBookingCORS(origins []string) CORSPolicy {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return CORSPolicy{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         10 * time.Minute,
	}
}

type originSet struct {
	any      bool
	exact    map[string]struct{}
	suffixes []originSuffix
}

type originSuffix struct {
	scheme string
	host   string // ".example.com"
}

func newOriginSet(entries []string) originSet {
	set := originSet{exact: map[string]struct{}{}}
	for _, e := range trimAll(entries) {
		e = strings.ToLower(strings.TrimSuffix(e, "/"))
		switch {
		case e == "*":
			set.any = true
		case strings.Contains(e, "://*."):
			scheme, host, _ := strings.Cut(e, "://*")
			set.suffixes = append(set.suffixes, originSuffix{scheme: scheme + "://", host: host})
		default:
			set.exact[e] = struct{}{}
		}
	}
	return set
}

func (s originSet) empty() bool {
	return !s.any && len(s.exact) == 0 && len(s.suffixes) == 0
}

func (s originSet) allows(origin string) bool {
	if s.any {
		return true
	}
	origin = strings.ToLower(origin)
	if _, ok := s.exact[origin]; ok {
		return true
	}
	for _, sfx := range s.suffixes {
		rest, ok := strings.CutPrefix(origin, sfx.scheme)
		if ok && len(rest) > len(sfx.host) && strings.HasSuffix(rest, sfx.host) {
			return true
		}
	}
	return false
}

// WithCORS answers preflights and decorates responses for allowed origins. Requests from other
// origins reach next untouched, so the browser blocks them. An empty policy is a no-op.
func WithCORS(p CORSPolicy) Middleware {
	origins := newOriginSet(p.AllowedOrigins)
	if origins.empty() {
		return func(next http.Handler) http.Handler { return next }
	}

	methods := trimAll(p.AllowedMethods)
	allowMethods := strings.Join(append(methods, http.MethodOptions), ", ")
	allowHeaders := strings.Join(trimAll(p.AllowedHeaders), ", ")
	exposeHeaders := strings.Join(trimAll(p.ExposedHeaders), ", ")
	maxAge := ""
	if secs := int(p.MaxAge.Seconds()); secs > 0 {
		maxAge = strconv.Itoa(secs)
	}

	// Browsers refuse "*" together with credentials, so the origin is echoed instead.
	allowOrigin := func(origin string) string {
		if origins.any && !p.AllowCredentials {
			return "*"
		}
		return origin
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || !origins.allows(origin) {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Allow-Origin", allowOrigin(origin))
			if p.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}

			requested := r.Header.Get("Access-Control-Request-Method")
			if r.Method != http.MethodOptions || requested == "" {
				if exposeHeaders != "" {
					h.Set("Access-Control-Expose-Headers", exposeHeaders)
				}
				next.ServeHTTP(w, r)
				return
			}

			h.Add("Vary", "Access-Control-Request-Method")
			h.Add("Vary", "Access-Control-Request-Headers")
			if !containsFold(methods, requested) {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			h.Set("Access-Control-Allow-Methods", allowMethods)
			if allowHeaders != "" {
				h.Set("Access-Control-Allow-Headers", allowHeaders)
			}
			if maxAge != "" {
				h.Set("Access-Control-Max-Age", maxAge)
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func containsFold(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}
