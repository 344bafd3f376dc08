package clientinfo

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// exemptPaths bypass version gating: health probes carry no client
// header, and auth must stay reachable so an outdated client can at
// least be told to upgrade after login.
var exemptPaths = []string{"/healthz", "/auth/"}

// Middleware parses the DeliWer-Client header into the request context
// and rejects clients below minVersion with 426 Upgrade Required.
//
// Requests without the header proceed untagged; a malformed header is
// logged and the request proceeds untagged too. Identification is a
// telemetry aid, not an auth gate.
func Middleware(minVersion string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(Header)
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			info, err := ParseHeader(header)
			if err != nil {
				logger.Debug("unparseable client header",
					slog.String("header", header),
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}

			if !exempt(r.URL.Path) && !info.MeetsMinimum(minVersion) {
				logger.Info("outdated client rejected",
					slog.String("platform", info.Platform),
					slog.String("version", info.Version),
					slog.String("min_version", minVersion),
				)
				writeUpgradeRequired(w, minVersion)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithInfo(r.Context(), info)))
		})
	}
}

func exempt(path string) bool {
	for _, p := range exemptPaths {
		if path == p || (strings.HasSuffix(p, "/") && strings.HasPrefix(path, p)) {
			return true
		}
	}
	return false
}

func writeUpgradeRequired(w http.ResponseWriter, minVersion string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUpgradeRequired)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    "CLIENT_UPGRADE_REQUIRED",
			"message": "client version is no longer supported, minimum is " + minVersion,
		},
	})
}
