// Package handlers provides the HTTP handlers of the gallery server.
//
// It includes handlers for:
//   - The gallery page (GET /), rendered from the pug view
//   - The JSON API: GET /api/gallery and POST /api/reindex
//   - Conditional GET through blake3 ETags
//   - Health, liveness, readiness and version endpoints
package handlers
