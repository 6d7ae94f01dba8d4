// Package middleware provides the HTTP middleware chain of the gallery
// server: request IDs, a W3C Extended Log Format access log, Prometheus
// request metrics and gzip compression of text responses.
package middleware
