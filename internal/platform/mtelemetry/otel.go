// Package mtelemetry wires OpenTelemetry tracing and provides the span
// helper conventions every repository/service method uses.
package mtelemetry

import (
	"context"
	"encoding/json"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry owns the tracer provider lifecycle for one process.
//
// Only the trace signal is wired: this core has no readiness/metrics
// endpoint and no log-shipping requirement (spec Non-goals), so there is
// no caller for a second OTLP exporter pipeline.
type Telemetry struct {
	ServiceName    string
	ServiceVersion string
	DeploymentEnv  string
	Endpoint       string

	TracerProvider *sdktrace.TracerProvider
	shutdown       func(context.Context) error
}

// Initialize builds and globally installs the tracer provider.
func (t *Telemetry) Initialize(ctx context.Context) (*Telemetry, error) {
	res, err := sdkresource.Merge(
		sdkresource.Default(),
		sdkresource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(t.ServiceName),
			semconv.ServiceVersion(t.ServiceVersion),
			semconv.DeploymentEnvironment(t.DeploymentEnv),
		),
	)
	if err != nil {
		return nil, err
	}

	exp, err := otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(t.Endpoint), otlptracegrpc.WithInsecure())
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp), sdktrace.WithResource(res))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	t.TracerProvider = tp
	t.shutdown = func(ctx context.Context) error {
		if err := exp.Shutdown(ctx); err != nil {
			return err
		}

		return tp.Shutdown(ctx)
	}

	return t, nil
}

// Shutdown flushes and closes the exporter. Safe to call on a zero-value
// Telemetry that was never initialized.
func (t *Telemetry) Shutdown(ctx context.Context) {
	if t.shutdown == nil {
		return
	}

	if err := t.shutdown(ctx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
}

// Tracer returns a named tracer from the globally installed provider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// SetSpanAttributesFromStruct JSON-encodes valueStruct and attaches it to
// span under key, mirroring the repository-layer convention of recording
// the full request/row shape on each operation's span.
func SetSpanAttributesFromStruct(span *trace.Span, key string, valueStruct any) error {
	b, err := json.Marshal(valueStruct)
	if err != nil {
		return err
	}

	(*span).SetAttributes(attribute.KeyValue{
		Key:   attribute.Key(key),
		Value: attribute.StringValue(string(b)),
	})

	return nil
}

// HandleSpanError records err on span with a status message, matching the
// convention used at every repository/service call site in this module.
func HandleSpanError(span *trace.Span, message string, err error) {
	(*span).SetStatus(codes.Error, message+": "+err.Error())
	(*span).RecordError(err)
}
