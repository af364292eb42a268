package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"secondmain/internal/observability"
)

// TracingMiddleware opens a server span per request. The span is renamed to
// the matched route once the handler chain has run, and carries the listing
// or user id taken from the route params.
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), propagation.HeaderCarrier(c.GetReqHeaders()))

		ctx, span := observability.Tracer.Start(ctx, c.Method(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(c.Method()),
				semconv.URLPath(c.Path()),
				semconv.ClientAddress(c.IP()),
				semconv.UserAgentOriginal(c.Get(fiber.HeaderUserAgent)),
			),
		)
		defer span.End()

		traceID := span.SpanContext().TraceID().String()
		c.Locals("traceID", traceID)
		c.Locals("spanID", span.SpanContext().SpanID().String())
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			span.SetAttributes(attribute.String("request.id", rid))
		}
		c.Set("X-Trace-ID", traceID)
		c.SetUserContext(ctx)

		err := c.Next()

		status := responseStatus(c, err)
		span.SetAttributes(semconv.HTTPResponseStatusCode(status))

		// unmatched requests end on the catch-all mounted at "/"; keep them unnamed
		if route := c.Route(); route != nil && (route.Path != "/" || c.Path() == "/") {
			span.SetName(c.Method() + " " + route.Path)
			span.SetAttributes(semconv.HTTPRoute(route.Path))
			span.SetAttributes(routeAttributes(c, route.Path)...)
		}

		if uid, ok := c.Locals("userID").(uint); ok {
			span.SetAttributes(attribute.Int64("user.id", int64(uid)))
		}

		if err != nil {
			span.RecordError(err)
		}
		if status >= fiber.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}

		return err
	}
}

// routeAttributes maps the params of the annonce and admin routes to span
// attributes.
func routeAttributes(c *fiber.Ctx, route string) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	switch {
	case strings.HasPrefix(route, "/api/annonces/user/:userId"):
		attrs = append(attrs, attribute.String("listing.owner_id", c.Params("userId")))
	case strings.HasPrefix(route, "/api/annonces/:id"):
		attrs = append(attrs, attribute.String("listing.id", c.Params("id")))
	case strings.HasPrefix(route, "/api/admin/users/:id"):
		attrs = append(attrs, attribute.String("admin.target_user_id", c.Params("id")))
	case route == "/api/annonces" || route == "/api/annonces/":
		if category := c.Query("category"); category != "" {
			attrs = append(attrs, attribute.String("listing.category", category))
		}
	}
	return attrs
}

// responseStatus is the status the client will see. An error still in flight
// has not been written by the error handler yet.
func responseStatus(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}

