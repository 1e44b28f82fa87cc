// Package plugin lets a host application run pipelines through a JSON request and response.
package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// Request asks for a pipeline run.
type Request struct {
	// WorkingDir is the directory the pipeline runs in. Required.
	WorkingDir string `json:"workingDir"`
	// Environment is applied on top of the process and pipeline environments.
	Environment map[string]string `json:"environment,omitempty"`
	// Pipeline is the pipeline file, relative to WorkingDir. Empty discovers it.
	Pipeline string `json:"pipeline,omitempty"`
	// Targets restricts the run to these node paths.
	Targets []string `json:"targets,omitempty"`
}

// Response reports the outcome of a Request.
type Response struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	ExitCode int    `json:"exitCode"`
}

// RunFunc runs the pipeline a request describes.
type RunFunc func(ctx context.Context, req Request) error

// Handler executes plugin requests.
type Handler struct {
	run RunFunc
}

// NewHandler creates a Handler delegating runs to run.
func NewHandler(run RunFunc) *Handler {
	return &Handler{run: run}
}

// Handle validates and runs req. Failures are reported in the response, never returned.
func (h *Handler) Handle(ctx context.Context, req Request) Response {
	if strings.TrimSpace(req.WorkingDir) == "" {
		return failure(zerr.Wrap(domain.ErrConfiguration, "plugin request has no working directory"))
	}
	if err := h.run(ctx, req); err != nil {
		return failure(err)
	}
	return Response{Success: true}
}

// Serve decodes one request from r, handles it and encodes the response to w.
// The returned error only covers decoding and encoding.
func (h *Handler) Serve(ctx context.Context, r io.Reader, w io.Writer) (Response, error) {
	var req Request
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var resp Response
	var decodeErr error
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		decodeErr = zerr.Wrap(err, "failed to decode plugin request")
		resp = failure(zerr.With(zerr.Wrap(domain.ErrConfiguration, "invalid plugin request"), "reason", err.Error()))
	} else {
		resp = h.Handle(ctx, req)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return resp, errors.Join(decodeErr, zerr.Wrap(err, "failed to encode plugin response"))
	}
	return resp, decodeErr
}

func failure(err error) Response {
	return Response{
		Success:  false,
		Message:  err.Error(),
		ExitCode: domain.ExitCode(err),
	}
}
