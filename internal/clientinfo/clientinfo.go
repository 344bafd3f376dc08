// Package clientinfo parses the DeliWer-Client identification header and
// enforces the minimum supported client version. The storefront ships
// embedded clients that cannot be force-refreshed, so version gating
// happens here rather than in the UI.
package clientinfo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dunglas/httpsfv"
	"golang.org/x/mod/semver"
)

// Header is the client identification header name.
// Format: RFC 8941 dictionary, e.g. `platform="web", version="1.4.2"`.
const Header = "DeliWer-Client"

// Info identifies the calling client.
type Info struct {
	Platform string // "web", "ios", "android"
	Version  string // client build version, plain semver without "v"
}

// ParseHeader extracts client info from a DeliWer-Client header value.
//
// Examples:
//   - platform="web", version="1.4.2"    → {web 1.4.2}
//   - platform="ios"                     → {ios ""}
//
// Returns an error if the header is empty or not a valid dictionary.
func ParseHeader(header string) (*Info, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, errors.New("empty DeliWer-Client header")
	}

	dict, err := httpsfv.UnmarshalDictionary([]string{header})
	if err != nil {
		return nil, fmt.Errorf("invalid DeliWer-Client header: %w", err)
	}

	info := &Info{}
	if v, ok := stringMember(dict, "platform"); ok {
		info.Platform = v
	}
	if v, ok := stringMember(dict, "version"); ok {
		info.Version = v
	}
	if info.Platform == "" {
		return nil, errors.New("platform key not found in DeliWer-Client header")
	}
	return info, nil
}

func stringMember(dict *httpsfv.Dictionary, key string) (string, bool) {
	member, ok := dict.Get(key)
	if !ok {
		return "", false
	}
	item, ok := member.(httpsfv.Item)
	if !ok {
		return "", false
	}
	s, ok := item.Value.(string)
	return s, ok
}

// MeetsMinimum reports whether the declared version satisfies minVersion.
// An undeclared version always passes: gating only applies to clients
// that identify themselves. Non-semver values also pass, rather than
// locking out a client over a malformed build string.
func (i *Info) MeetsMinimum(minVersion string) bool {
	if i == nil || i.Version == "" || minVersion == "" {
		return true
	}
	have := normalizeVersion(i.Version)
	want := normalizeVersion(minVersion)
	if !semver.IsValid(have) || !semver.IsValid(want) {
		return true
	}
	return semver.Compare(have, want) >= 0
}

// normalizeVersion adds the "v" prefix semver.Compare expects.
func normalizeVersion(v string) string {
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

// === Context plumbing ===

type contextKey struct{}

// WithInfo returns a context carrying the client info.
func WithInfo(ctx context.Context, info *Info) context.Context {
	return context.WithValue(ctx, contextKey{}, info)
}

// FromContext returns the client info, or nil for an untagged request.
func FromContext(ctx context.Context) *Info {
	info, _ := ctx.Value(contextKey{}).(*Info)
	return info
}
