package middleware

import (
	"net/http"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
)

// CompressionConfig holds configuration for the compression middleware
type CompressionConfig struct {
	// MinSize is the smallest body, in bytes, worth compressing.
	MinSize int
	// Level is a gzip level from gzip.BestSpeed to gzip.BestCompression.
	Level int
	// CompressibleTypes lists media types (without parameters) to compress.
	// Thumbnails are JPEG and are never listed.
	CompressibleTypes []string
}

// DefaultCompressionConfig returns the settings used by the server.
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize: 1024,
		Level:   gzip.DefaultCompression,
		CompressibleTypes: []string{
			"text/html",
			"text/css",
			"text/plain",
			"text/javascript",
			"application/json",
			"application/yaml",
			"image/svg+xml",
		},
	}
}

// gzipPools holds one writer pool per compression level.
var gzipPools sync.Map

func gzipPool(level int) *sync.Pool {
	if p, ok := gzipPools.Load(level); ok {
		return p.(*sync.Pool)
	}
	p, _ := gzipPools.LoadOrStore(level, &sync.Pool{
		New: func() interface{} {
			w, err := gzip.NewWriterLevel(nil, level)
			if err != nil {
				w, _ = gzip.NewWriterLevel(nil, gzip.DefaultCompression)
			}
			return w
		},
	})
	return p.(*sync.Pool)
}

// gzipResponseWriter holds back the first MinSize bytes so it can choose
// between a compressed and a plain response.
type gzipResponseWriter struct {
	http.ResponseWriter
	config  CompressionConfig
	pending []byte
	status  int
	decided bool
	gz      *gzip.Writer
}

func newGzipResponseWriter(w http.ResponseWriter, config CompressionConfig) *gzipResponseWriter {
	return &gzipResponseWriter{
		ResponseWriter: w,
		config:         config,
		status:         http.StatusOK,
	}
}

func (g *gzipResponseWriter) WriteHeader(statusCode int) {
	if g.decided {
		return
	}
	g.status = statusCode
}

func (g *gzipResponseWriter) Write(data []byte) (int, error) {
	if g.decided {
		if g.gz != nil {
			return g.gz.Write(data)
		}
		return g.ResponseWriter.Write(data)
	}

	g.pending = append(g.pending, data...)
	if len(g.pending) >= g.config.MinSize {
		if err := g.decide(); err != nil {
			return 0, err
		}
	}
	return len(data), nil
}

func (g *gzipResponseWriter) compressible() bool {
	// bodiless responses and already-encoded bodies pass through
	if g.status == http.StatusNotModified || g.status == http.StatusNoContent {
		return false
	}
	if g.Header().Get("Content-Encoding") != "" {
		return false
	}
	if len(g.pending) < g.config.MinSize {
		return false
	}

	mediaType, _, _ := strings.Cut(g.Header().Get("Content-Type"), ";")
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	for _, t := range g.config.CompressibleTypes {
		if mediaType == t {
			return true
		}
	}
	return false
}

// decide writes the status line and the pending bytes, compressed or not.
func (g *gzipResponseWriter) decide() error {
	g.decided = true
	compress := g.compressible()
	pending := g.pending
	g.pending = nil

	if !compress {
		g.ResponseWriter.WriteHeader(g.status)
		_, err := g.ResponseWriter.Write(pending)
		return err
	}

	h := g.Header()
	h.Del("Content-Length")
	h.Set("Content-Encoding", "gzip")
	h.Add("Vary", "Accept-Encoding")
	g.ResponseWriter.WriteHeader(g.status)

	g.gz = gzipPool(g.config.Level).Get().(*gzip.Writer)
	g.gz.Reset(g.ResponseWriter)
	_, err := g.gz.Write(pending)
	return err
}

// Close flushes anything still pending and returns the writer to its pool.
func (g *gzipResponseWriter) Close() error {
	if !g.decided {
		// short bodies are judged on what arrived
		g.decided = true
		pending := g.pending
		g.pending = nil
		g.ResponseWriter.WriteHeader(g.status)
		if len(pending) > 0 {
			if _, err := g.ResponseWriter.Write(pending); err != nil {
				return err
			}
		}
		return nil
	}
	if g.gz == nil {
		return nil
	}
	err := g.gz.Close()
	gzipPool(g.config.Level).Put(g.gz)
	g.gz = nil
	return err
}

// Flush implements http.Flusher
func (g *gzipResponseWriter) Flush() {
	if !g.decided {
		_ = g.decide()
	}
	if g.gz != nil {
		_ = g.gz.Flush()
	}
	if f, ok := g.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Compression returns a middleware that gzips text responses for clients
// that accept it.
func Compression(config CompressionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			gzw := newGzipResponseWriter(w, config)
			defer func() { _ = gzw.Close() }()
			next.ServeHTTP(gzw, r)
		})
	}
}
