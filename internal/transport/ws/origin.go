package ws

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// originPolicy решает, пускать ли браузерный handshake. "*" разрешает всё;
// запрос без Origin (не браузер) пропускается.
type originPolicy struct {
	allowAll bool
	allowed  map[string]struct{}
}

func newOriginPolicy(origins []string) originPolicy {
	p := originPolicy{allowed: make(map[string]struct{})}
	for _, o := range origins {
		o = strings.TrimSpace(o)
		switch {
		case o == "":
			continue
		case o == "*":
			p.allowAll = true
		default:
			norm, ok := normalizeOrigin(o)
			if !ok {
				slog.Warn("ignoring invalid allowed origin", "origin", o)
				continue
			}
			p.allowed[norm] = struct{}{}
		}
	}
	if len(origins) == 0 {
		p.allowAll = true
	}
	return p
}

func (p originPolicy) check(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || p.allowAll {
		return true
	}
	norm, ok := normalizeOrigin(origin)
	if !ok {
		return false
	}
	if _, ok := p.allowed[norm]; ok {
		return true
	}
	slog.Warn("ws origin rejected", "origin", origin)
	return false
}

func normalizeOrigin(origin string) (string, bool) {
	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host), true
}
