package registry

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"golang.org/x/mod/module"
	"golang.org/x/mod/semver"
)

// GoProxy queries a Go module proxy (GOPROXY protocol) for the tags of a module.
type GoProxy struct {
	url  string
	http *httpClient
}

// NewGoProxy creates a module proxy client. An empty baseURL uses the first usable
// entry of $GOPROXY, then DefaultGoProxyURL.
func NewGoProxy(baseURL string, opts ClientOptions) *GoProxy {
	if baseURL == "" {
		baseURL = proxyFromEnv(os.Getenv("GOPROXY"))
	}
	return &GoProxy{url: strings.TrimRight(baseURL, "/"), http: newHTTPClient(opts)}
}

// URL returns the proxy base URL.
func (g *GoProxy) URL() string { return g.url }

// proxyFromEnv picks the first HTTP entry of a GOPROXY list ("direct" and "off" are skipped).
func proxyFromEnv(env string) string {
	for _, entry := range strings.FieldsFunc(env, func(r rune) bool { return r == ',' || r == '|' }) {
		entry = strings.TrimSpace(entry)
		if strings.HasPrefix(entry, "https://") || strings.HasPrefix(entry, "http://") {
			return entry
		}
	}
	return DefaultGoProxyURL
}

// ListVersions fetches <proxy>/<module>/@v/list. Versions are returned without the "v"
// prefix and without "+incompatible".
func (g *GoProxy) ListVersions(ctx context.Context, modPath string) (Snapshot, error) {
	snap := Snapshot{Package: modPath}

	escaped, err := module.EscapePath(modPath)
	if err != nil {
		return snap, fmt.Errorf("%w: invalid module path %q: %v", ErrUnavailable, modPath, err)
	}
	status, body, err := g.http.get(ctx, g.url+"/"+escaped+"/@v/list", nil)
	if err != nil {
		return snap, err
	}
	if status == http.StatusNotFound || status == http.StatusGone {
		g.http.log.Debug().Str("module", modPath).Msg("module not found in proxy")
		return snap, nil
	}
	if status < 200 || status > 299 {
		return snap, statusError(g.url, status)
	}

	var latest string
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		v := strings.TrimSpace(scanner.Text())
		if !semver.IsValid(v) {
			continue
		}
		v = semver.Canonical(v)
		snap.Versions = append(snap.Versions, strings.TrimPrefix(v, "v"))
		if semver.Prerelease(v) == "" && (latest == "" || semver.Compare(v, latest) > 0) {
			latest = v
		}
	}
	if err := scanner.Err(); err != nil {
		return snap, fmt.Errorf("%w: reading version list from %s: %v", ErrUnavailable, g.url, err)
	}
	snap.Latest = strings.TrimPrefix(latest, "v")
	snap.Found = len(snap.Versions) > 0
	return snap, nil
}
