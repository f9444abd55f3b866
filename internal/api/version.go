package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ClientVersionHeader carries the version of the calling client.
const ClientVersionHeader = "X-Client-Version"

func parseVersion(v string) (*semver.Version, error) {
	// Strip leading 'v' if present (common in version strings)
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	version, err := semver.NewVersion(v)
	if err != nil {
		return nil, fmt.Errorf("invalid version %s: %w", v, err)
	}
	return version, nil
}

// IsClientSupported reports whether clientVersion is at least minVersion.
// An empty minimum accepts every client; an unparseable client version is
// rejected.
func IsClientSupported(clientVersion, minVersion string) (bool, error) {
	if strings.TrimSpace(minVersion) == "" {
		return true, nil
	}
	required, err := parseVersion(minVersion)
	if err != nil {
		return false, err
	}
	client, err := parseVersion(clientVersion)
	if err != nil {
		return false, nil
	}
	return !client.LessThan(required), nil
}

// ClientVersionMiddleware rejects requests from clients older than the
// configured min_client_version with 426 Upgrade Required. Requests
// without the header pass through.
func (s *Server) ClientVersionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientVersion := r.Header.Get(ClientVersionHeader)
		if clientVersion == "" {
			next.ServeHTTP(w, r)
			return
		}

		minVersion := s.app.Config().MinClientVersion
		ok, err := IsClientSupported(clientVersion, minVersion)
		if err != nil {
			// An invalid minimum disables the check.
			next.ServeHTTP(w, r)
			return
		}
		if !ok {
			RespondWithError(w, http.StatusUpgradeRequired, "Client version "+clientVersion+" is no longer supported; minimum is "+minVersion)
			return
		}
		next.ServeHTTP(w, r)
	})
}
