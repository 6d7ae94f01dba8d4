package middleware

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

// AccessLogService is written to the #Software directive of the access log.
const AccessLogService = "PhotoGallery/1.0"

// w3cFields lists the columns of each access log line.
const w3cFields = "date time c-ip cs-method cs-uri-stem cs-uri-query sc-status sc-bytes time-taken sc(Content-Encoding) cs(User-Agent) cs(Referer) x-request-id"

// statusRecorder captures the status code and body size of a response.
type statusRecorder struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (rw *statusRecorder) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

func (rw *statusRecorder) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// LoggingConfig holds configuration for the access log middleware
type LoggingConfig struct {
	// Output receives one line per request. Defaults to os.Stdout.
	Output          io.Writer
	SkipPaths       []string
	SkipExtensions  []string
	LogStaticFiles  bool
	LogHealthChecks bool
}

// DefaultLoggingConfig logs page, API and health requests but not stylesheets
// or thumbnails.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Output:          os.Stdout,
		SkipExtensions:  []string{".css", ".js", ".ico", ".png", ".jpg", ".jpeg", ".svg"},
		LogStaticFiles:  false,
		LogHealthChecks: true,
	}
}

// W3CLogger writes requests in W3C Extended Log File Format.
type W3CLogger struct {
	config      LoggingConfig
	serviceName string

	mu          sync.Mutex
	wroteFields bool
}

// NewW3CLogger creates a logger writing to config.Output.
func NewW3CLogger(config LoggingConfig, serviceName string) *W3CLogger {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	return &W3CLogger{
		config:      config,
		serviceName: serviceName,
	}
}

var healthCheckPaths = map[string]bool{
	"/health":  true,
	"/healthz": true,
	"/livez":   true,
	"/readyz":  true,
}

// sanitizeLogField drops control characters so a client cannot forge log
// lines. Newlines become spaces; tabs are kept.
func sanitizeLogField(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r':
			b.WriteRune(' ')
		case r == '\t':
			b.WriteRune(r)
		case r < 0x20 || r == 0x7f:
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Logger returns the access log middleware.
func Logger(config LoggingConfig) func(http.Handler) http.Handler {
	logger := NewW3CLogger(config, AccessLogService)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if logger.shouldSkip(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)
			logger.logRequest(r, rec, time.Since(start))
		})
	}
}

func (l *W3CLogger) logRequest(r *http.Request, rec *statusRecorder, duration time.Duration) {
	now := time.Now().UTC()

	line := strings.Join([]string{
		now.Format("2006-01-02"),
		now.Format("15:04:05"),
		orDash(sanitizeLogField(clientIP(r))),
		orDash(sanitizeLogField(r.Method)),
		orDash(sanitizeLogField(r.URL.EscapedPath())),
		orDash(sanitizeLogField(r.URL.RawQuery)),
		fmt.Sprint(rec.statusCode),
		fmt.Sprint(rec.bytesWritten),
		fmt.Sprint(duration.Milliseconds()),
		orDash(rec.Header().Get("Content-Encoding")),
		orDash(escapeW3CField(sanitizeLogField(r.Header.Get("User-Agent")))),
		orDash(escapeW3CField(sanitizeLogField(r.Header.Get("Referer")))),
		orDash(RequestIDFromContext(r.Context())),
	}, " ")

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.wroteFields {
		fmt.Fprintf(l.config.Output, "#Software: %s\n#Fields: %s\n", l.serviceName, w3cFields)
		l.wroteFields = true
	}
	fmt.Fprintln(l.config.Output, line)
}

func (l *W3CLogger) shouldSkip(path string) bool {
	for _, skip := range l.config.SkipPaths {
		if strings.HasPrefix(path, skip) {
			return true
		}
	}

	if !l.config.LogHealthChecks && healthCheckPaths[path] {
		return true
	}

	if !l.config.LogStaticFiles {
		lower := strings.ToLower(path)
		for _, ext := range l.config.SkipExtensions {
			if strings.HasSuffix(lower, ext) {
				return true
			}
		}
	}
	return false
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return strings.Trim(ip, "[]")
}

// escapeW3CField quotes values containing blanks or quotes, doubling any
// embedded quotes.
func escapeW3CField(s string) string {
	if strings.ContainsAny(s, " \t\"") {
		return "\"" + strings.ReplaceAll(s, "\"", "\"\"") + "\""
	}
	return s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
