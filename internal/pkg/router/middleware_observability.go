package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/samber/lo"
	"github.com/shandysiswandi/adminotp/internal/pkg/config"
	"github.com/shandysiswandi/adminotp/internal/pkg/instrument"
	"github.com/shandysiswandi/adminotp/internal/pkg/session"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	maxLoggedBodyBytes = 16 * 1024 // 16KB
	maskedValue        = "***"
)

// credentialHeaders are masked regardless of configuration; they carry the
// session id or the bearer token.
var credentialHeaders = []string{"authorization", "cookie", "set-cookie"}

type bodyKind int

const (
	bodyNone bodyKind = iota
	bodyJSON
	bodyForm
	bodyOther
)

func classifyBody(contentType string) bodyKind {
	if contentType == "" {
		return bodyNone
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return bodyOther
	}

	switch mediaType {
	case "application/json":
		return bodyJSON
	case "application/x-www-form-urlencoded":
		return bodyForm
	default:
		return bodyOther
	}
}

func maskKeysFromConfig(cfg config.Config) map[string]struct{} {
	var fields []string
	if cfg != nil {
		fields = cfg.GetArray("instrument.log_mask_fields")
	}

	return lo.SliceToMap(fields, func(field string) (string, struct{}) {
		return strings.ToLower(field), struct{}{}
	})
}

func maskHeaders(headers http.Header, maskKeys map[string]struct{}) http.Header {
	result := headers.Clone()
	for key := range result {
		lower := strings.ToLower(key)
		if _, found := maskKeys[lower]; found || lo.Contains(credentialHeaders, lower) {
			result.Set(key, maskedValue)
		}
	}
	return result
}

func maskJSON(v any, maskKeys map[string]struct{}) any {
	switch val := v.(type) {
	case map[string]any:
		masked := make(map[string]any, len(val))
		for k, v2 := range val {
			if _, found := maskKeys[strings.ToLower(k)]; found {
				masked[k] = maskedValue
				continue
			}
			masked[k] = maskJSON(v2, maskKeys)
		}
		return masked
	case []any:
		return lo.Map(val, func(item any, _ int) any {
			return maskJSON(item, maskKeys)
		})
	default:
		return v
	}
}

func maskForm(values url.Values, maskKeys map[string]struct{}) map[string]any {
	masked := make(map[string]any, len(values))
	for k, v := range values {
		if _, found := maskKeys[strings.ToLower(k)]; found {
			masked[k] = maskedValue
			continue
		}
		if len(v) == 1 {
			masked[k] = v[0]
			continue
		}
		masked[k] = v
	}
	return masked
}

// describeBody renders a captured body for the log line. Form posts carry
// passwords and codes, so anything that is not JSON or a form is reduced to
// its size.
func describeBody(contentType string, body []byte, truncated bool, maskKeys map[string]struct{}) any {
	if len(body) == 0 {
		return nil
	}

	var out any
	switch classifyBody(contentType) {
	case bodyJSON:
		var decoded any
		if err := json.Unmarshal(body, &decoded); err != nil {
			out = map[string]any{"bytes": len(body), "invalid_json": true}
			break
		}
		out = maskJSON(decoded, maskKeys)
	case bodyForm:
		values, err := url.ParseQuery(string(body))
		if err != nil {
			out = map[string]any{"bytes": len(body), "invalid_form": true}
			break
		}
		out = maskForm(values, maskKeys)
	default:
		out = map[string]any{"bytes": len(body), "content_type": contentType}
	}

	if truncated {
		return map[string]any{"body": out, "truncated": true}
	}
	return out
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	body   bytes.Buffer
	capped bool
	err    error
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	if !w.capped {
		remaining := maxLoggedBodyBytes - w.body.Len()
		if len(p) > remaining {
			w.body.Write(p[:remaining])
			w.capped = true
		} else {
			w.body.Write(p)
		}
	}

	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

func (w *statusRecorder) SetError(err error) {
	w.err = err
}

func (w *statusRecorder) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func matchedRoutePath(r *http.Request) string {
	pattern := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath()
	if pattern != "" {
		return pattern
	}
	return r.URL.Path
}

func readRequestBody(r *http.Request) ([]byte, bool) {
	if r.Body == nil {
		return nil, false
	}

	limited := io.LimitReader(r.Body, maxLoggedBodyBytes+1)
	//nolint:errcheck // best effort for logging only
	raw, _ := io.ReadAll(limited)
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), r.Body))
	if len(raw) > maxLoggedBodyBytes {
		return raw[:maxLoggedBodyBytes], true
	}
	return raw, false
}

func logRequest(ctx context.Context, r *http.Request, route string, maskKeys map[string]struct{}) {
	body, truncated := readRequestBody(r)

	slog.InfoContext(
		ctx,
		"request received",
		"method", r.Method,
		"path", route,
		"uri", r.URL.Path,
		"headers", maskHeaders(r.Header, maskKeys),
		"body", describeBody(r.Header.Get("Content-Type"), body, truncated, maskKeys),
	)
}

func middlewareObservability(cfg config.Config, ins instrument.Instrumentation) Middleware {
	maskKeys := maskKeysFromConfig(cfg)
	tracer := ins.Tracer("http.server")
	meter := ins.Meter("http.server")

	requestCounter, err := meter.Int64Counter("http.server.requests", metric.WithDescription("Number of HTTP requests received"))
	if err != nil {
		slog.Error("failed to create http request counter", "error", err)
	}

	durationHistogram, err := meter.Float64Histogram("http.server.duration", metric.WithDescription("HTTP request duration in milliseconds"))
	if err != nil {
		slog.Error("failed to create http duration histogram", "error", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)
			start := time.Now()

			ctx, span := tracer.Start(
				r.Context(),
				r.Method+" "+route,
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.HTTPRouteKey.String(route),
				),
			)
			defer span.End()

			logRequest(ctx, r, route, maskKeys)

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.statusCode()
			attrs := []attribute.KeyValue{
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
				semconv.HTTPResponseStatusCodeKey.Int(status),
			}

			if rec.err != nil {
				span.RecordError(rec.err)
			}

			switch {
			case status >= http.StatusInternalServerError && rec.err != nil:
				span.SetStatus(codes.Error, rec.err.Error())
			case status >= http.StatusInternalServerError:
				span.SetStatus(codes.Error, http.StatusText(status))
			default:
				span.SetStatus(codes.Ok, "")
			}

			span.SetAttributes(attrs...)
			span.SetAttributes(
				semconv.ServerAddressKey.String(r.Host),
				attribute.Bool("adminotp.session.present", session.GetID(ctx) != ""),
				attribute.Int("http.response_content_length", rec.bytes),
			)

			if requestCounter != nil {
				requestCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
			}
			if durationHistogram != nil {
				durationHistogram.Record(ctx, float64(time.Since(start).Milliseconds()), metric.WithAttributes(attrs...))
			}

			slog.InfoContext(
				ctx,
				"response sent",
				"method", r.Method,
				"path", route,
				"status", status,
				"location", rec.Header().Get("Location"),
				"bytes", rec.bytes,
				"latency_ms", time.Since(start).Milliseconds(),
				"body", describeBody(rec.Header().Get("Content-Type"), rec.body.Bytes(), rec.capped, maskKeys),
			)
		})
	}
}
