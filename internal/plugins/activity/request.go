package activity

import (
	"net/http"
	"strings"
)

const unknownProvenance = "unknown"

// clientIPHeaders are consulted in order; the first non-empty one wins.
var clientIPHeaders = []string{"X-Forwarded-For", "X-Real-Ip", "Cf-Connecting-Ip"}

// RequestInfoFromHeaders extracts best-effort provenance from request
// headers. X-Forwarded-For contributes its leftmost entry. Missing values
// become "unknown". Headers are taken as sent, whoever the peer is; the
// result is a claim for the audit trail, not an identity for access control.
func RequestInfoFromHeaders(h http.Header) RequestInfo {
	info := RequestInfo{IP: unknownProvenance, UserAgent: unknownProvenance}

	for _, name := range clientIPHeaders {
		v := strings.TrimSpace(h.Get(name))
		if v == "" {
			continue
		}
		if i := strings.IndexByte(v, ','); i >= 0 {
			v = strings.TrimSpace(v[:i])
		}
		if v != "" {
			info.IP = v
			break
		}
	}

	if ua := strings.TrimSpace(h.Get("User-Agent")); ua != "" {
		info.UserAgent = ua
	}

	return info
}
