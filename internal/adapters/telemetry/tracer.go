package telemetry

import (
	"context"
	"io"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

// Attribute keys set on node spans and their events.
const (
	NodeKey    = attribute.Key("kiln.node")
	StreamKey  = attribute.Key("kiln.stream")
	DataKey    = attribute.Key("kiln.data")
	LevelKey   = attribute.Key("kiln.level")
	MessageKey = attribute.Key("kiln.message")
)

// Tracer implements ports.Telemetry with one OpenTelemetry span per node.
// It owns a private tracer provider; the global one is left alone.
type Tracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// NewTracer creates a Tracer whose spans are handed to processors.
func NewTracer(name string, processors ...sdktrace.SpanProcessor) *Tracer {
	opts := []sdktrace.TracerProviderOption{sdktrace.WithSampler(sdktrace.AlwaysSample())}
	for _, p := range processors {
		opts = append(opts, sdktrace.WithSpanProcessor(p))
	}
	provider := sdktrace.NewTracerProvider(opts...)
	return &Tracer{
		provider: provider,
		tracer:   provider.Tracer(name),
	}
}

// Record starts a span for the node path name.
func (t *Tracer) Record(ctx context.Context, name string) (context.Context, ports.Vertex) {
	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(NodeKey.String(name)))
	v := newSpanVertex(span)
	return ports.ContextWithVertex(ctx, v), v
}

// Close ends the provider, flushing every processor.
func (t *Tracer) Close() error {
	return t.provider.Shutdown(context.Background())
}

// spanVertex adds process output to its span as batched events.
type spanVertex struct {
	span   trace.Span
	stdout *BatchProcessor
	stderr *BatchProcessor
	once   sync.Once
}

func newSpanVertex(span trace.Span) *spanVertex {
	v := &spanVertex{span: span}
	v.stdout = NewBatchProcessor(0, 0, v.outputEvent(domain.Stdout))
	v.stderr = NewBatchProcessor(0, 0, v.outputEvent(domain.Stderr))
	return v
}

func (v *spanVertex) outputEvent(stream domain.Stream) func([]byte) {
	return func(data []byte) {
		v.span.AddEvent("output", trace.WithAttributes(
			StreamKey.String(stream.String()),
			DataKey.String(string(data)),
		))
	}
}

func (v *spanVertex) Stdout() io.Writer {
	return v.stdout
}

func (v *spanVertex) Stderr() io.Writer {
	return v.stderr
}

func (v *spanVertex) Log(level domain.LogLevel, msg string) {
	v.span.AddEvent("log", trace.WithAttributes(
		LevelKey.String(level.String()),
		MessageKey.String(msg),
	))
}

func (v *spanVertex) Complete(err error) {
	v.once.Do(func() {
		_ = v.stdout.Close()
		_ = v.stderr.Close()
		if err != nil {
			v.span.RecordError(err)
			v.span.SetStatus(codes.Error, err.Error())
		} else {
			v.span.SetStatus(codes.Ok, "")
		}
		v.span.End()
	})
}
