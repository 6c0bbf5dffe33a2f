package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/buger/jsonparser"
)

// NPM queries an npm-compatible registry (registry.npmjs.org, GitHub Packages, Verdaccio...).
type NPM struct {
	url   string
	token string
	http  *httpClient
}

// NewNPM creates a client for the registry at url. An empty token sends no Authorization header.
func NewNPM(url, token string, opts ClientOptions) *NPM {
	if url == "" {
		url = DefaultNPMURL
	}
	return &NPM{
		url:   strings.TrimRight(url, "/"),
		token: token,
		http:  newHTTPClient(opts),
	}
}

// URL returns the registry base URL.
func (n *NPM) URL() string { return n.url }

// ListVersions fetches GET /<package> and returns the keys of "versions" and dist-tags.latest.
// An unknown package is not an error: the snapshot is returned with Found unset.
func (n *NPM) ListVersions(ctx context.Context, pkg string) (Snapshot, error) {
	snap := Snapshot{Package: pkg}

	header := http.Header{}
	// The abbreviated document carries versions and dist-tags and is much smaller.
	header.Set("Accept", "application/vnd.npm.install-v1+json; q=1.0, application/json; q=0.8")
	if n.token != "" {
		header.Set("Authorization", "Bearer "+n.token)
	}

	status, body, err := n.http.get(ctx, n.url+"/"+encodePackageName(pkg), header)
	if err != nil {
		return snap, err
	}
	if status == http.StatusNotFound {
		n.http.log.Debug().Str("package", pkg).Msg("package not found in registry")
		return snap, nil
	}
	if status < 200 || status > 299 {
		return snap, statusError(n.url, status)
	}

	err = jsonparser.ObjectEach(body, func(key, _ []byte, _ jsonparser.ValueType, _ int) error {
		snap.Versions = append(snap.Versions, string(key))
		return nil
	}, "versions")
	if err != nil && !errors.Is(err, jsonparser.KeyPathNotFoundError) {
		return snap, fmt.Errorf("%w: malformed package document from %s: %v", ErrUnavailable, n.url, err)
	}
	snap.Latest, _ = jsonparser.GetString(body, "dist-tags", "latest")
	snap.Found = true
	return snap, nil
}

// encodePackageName escapes scoped names: @scope/name -> @scope%2fname.
func encodePackageName(name string) string {
	if strings.HasPrefix(name, "@") {
		return strings.Replace(name, "/", "%2f", 1)
	}
	return name
}
