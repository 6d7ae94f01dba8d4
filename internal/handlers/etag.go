package handlers

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/zeebo/blake3"

	"photo-gallery/internal/logging"
	"photo-gallery/internal/metrics"
)

// galleryETag fingerprints a response body source. kind keeps the HTML
// and JSON representations from sharing a tag.
func galleryETag(kind string, v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Warn("Cannot fingerprint %s response: %v", kind, err)
		return ""
	}

	h := blake3.New()
	_, _ = h.Write([]byte(kind))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(data)
	return `"` + hex.EncodeToString(h.Sum(nil)[:16]) + `"`
}

// notModified sets the ETag header and answers 304 when the client already
// holds the current representation.
func notModified(w http.ResponseWriter, r *http.Request, etag string) bool {
	if etag == "" {
		return false
	}
	w.Header().Set("ETag", etag)

	if !etagMatches(r.Header.Get("If-None-Match"), etag) {
		return false
	}
	metrics.HTTPNotModifiedTotal.WithLabelValues(r.URL.Path).Inc()
	w.WriteHeader(http.StatusNotModified)
	return true
}

// etagMatches applies the weak comparison If-None-Match calls for.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}
