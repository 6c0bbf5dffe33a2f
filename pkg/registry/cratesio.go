package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/buger/jsonparser"
)

// CratesIO queries the crates.io API.
type CratesIO struct {
	url  string
	http *httpClient
}

// NewCratesIO creates a crates.io client. An empty baseURL uses DefaultCratesURL.
func NewCratesIO(baseURL string, opts ClientOptions) *CratesIO {
	if baseURL == "" {
		baseURL = DefaultCratesURL
	}
	return &CratesIO{url: strings.TrimRight(baseURL, "/"), http: newHTTPClient(opts)}
}

// URL returns the API base URL.
func (c *CratesIO) URL() string { return c.url }

// ListVersions fetches /api/v1/crates/<name>. Yanked versions stay in the snapshot:
// crates.io never accepts a version number twice, yanked or not.
func (c *CratesIO) ListVersions(ctx context.Context, crate string) (Snapshot, error) {
	snap := Snapshot{Package: crate}

	header := http.Header{}
	header.Set("Accept", "application/json")
	status, body, err := c.http.get(ctx, c.url+"/api/v1/crates/"+url.PathEscape(crate), header)
	if err != nil {
		return snap, err
	}
	if status == http.StatusNotFound {
		c.http.log.Debug().Str("crate", crate).Msg("crate not found in registry")
		return snap, nil
	}
	if status < 200 || status > 299 {
		return snap, statusError(c.url, status)
	}

	yanked := 0
	_, err = jsonparser.ArrayEach(body, func(value []byte, _ jsonparser.ValueType, _ int, _ error) {
		num, err := jsonparser.GetString(value, "num")
		if err != nil || num == "" {
			return
		}
		if y, _ := jsonparser.GetBoolean(value, "yanked"); y {
			yanked++
		}
		snap.Versions = append(snap.Versions, num)
	}, "versions")
	if err != nil && !errors.Is(err, jsonparser.KeyPathNotFoundError) {
		return snap, fmt.Errorf("%w: malformed crate document from %s: %v", ErrUnavailable, c.url, err)
	}
	snap.Latest, _ = jsonparser.GetString(body, "crate", "max_version")
	snap.Found = true
	c.http.log.Debug().Str("crate", crate).Int("versions", len(snap.Versions)).Int("yanked", yanked).Msg("crate versions")
	return snap, nil
}
