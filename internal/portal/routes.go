// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package portal

import (
	"log/slog"
	"net/http"

	sloghttp "github.com/samber/slog-http"
	"go.opentelemetry.io/otel/trace"
)

// register provided routes to http.ServerMux
func registerRoutes(
	mux *http.ServeMux,
	routes map[string]http.Handler,
) {
	for route, handler := range routes {
		mux.Handle(route, traced(route, handler))
	}
}

func (p *Portal) addRoutes() map[string]http.Handler {
	routes := make(map[string]http.Handler)

	routes["GET /healthz"] = http.HandlerFunc(healthz)
	routes["GET /invite/{token}"] = p.requireGuest(p.invitation)
	routes["POST /invite/{token}/rsvp"] = http.HandlerFunc(p.rsvp)
	routes["GET /invite/qr/{token}"] = p.requireGuest(p.qrCode)
	routes["GET /invite/validate/{token}"] = http.HandlerFunc(p.validate)

	return routes
}

// traced opens a span per request and adds its ids to the request log.
func traced(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), route)
		defer span.End()
		r = r.WithContext(ctx)

		sc := trace.SpanFromContext(ctx).SpanContext()
		sloghttp.AddCustomAttributes(r, slog.String("trace-id", sc.TraceID().String()))
		sloghttp.AddCustomAttributes(r, slog.String("span-id", sc.SpanID().String()))
		next.ServeHTTP(w, r)
	})
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("ok"))
}
