package telemetry

import (
	"context"
	"errors"
	"io"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

// Multi records every node with each of recorders. Nil recorders are skipped.
func Multi(recorders ...ports.Telemetry) ports.Telemetry {
	var m multi
	for _, r := range recorders {
		if r != nil {
			m = append(m, r)
		}
	}
	if len(m) == 1 {
		return m[0]
	}
	return m
}

type multi []ports.Telemetry

func (m multi) Record(ctx context.Context, name string) (context.Context, ports.Vertex) {
	vertices := make(multiVertex, 0, len(m))
	for _, r := range m {
		var v ports.Vertex
		ctx, v = r.Record(ctx, name)
		vertices = append(vertices, v)
	}
	return ports.ContextWithVertex(ctx, vertices), vertices
}

func (m multi) Close() error {
	var errs error
	for _, r := range m {
		errs = errors.Join(errs, r.Close())
	}
	return errs
}

type multiVertex []ports.Vertex

func (mv multiVertex) Stdout() io.Writer {
	writers := make([]io.Writer, len(mv))
	for i, v := range mv {
		writers[i] = v.Stdout()
	}
	return io.MultiWriter(writers...)
}

func (mv multiVertex) Stderr() io.Writer {
	writers := make([]io.Writer, len(mv))
	for i, v := range mv {
		writers[i] = v.Stderr()
	}
	return io.MultiWriter(writers...)
}

func (mv multiVertex) Log(level domain.LogLevel, msg string) {
	for _, v := range mv {
		v.Log(level, msg)
	}
}

func (mv multiVertex) Complete(err error) {
	for _, v := range mv {
		v.Complete(err)
	}
}
