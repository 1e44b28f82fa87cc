// Package config loads kiln pipeline files.
package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// FileNames are the pipeline file names Discover looks for, in order of preference.
var FileNames = []string{"kiln.yaml", "kiln.yml", "kiln.json", "kiln.toml"}

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader for YAML, JSON and TOML pipeline files.
type Loader struct {
	logger ports.Logger
}

// NewLoader creates a new Loader.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{logger: logger}
}

// Discover returns the absolute path of the pipeline file in dir.
func (l *Loader) Discover(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to resolve directory"), "dir", dir)
	}

	var found []string
	for _, name := range FileNames {
		candidate := filepath.Join(abs, name)
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			found = append(found, candidate)
		}
	}

	switch len(found) {
	case 0:
		return "", zerr.With(zerr.Wrap(domain.ErrConfigNotFound, "no pipeline file"), "dir", abs)
	case 1:
	default:
		l.logger.Warn("several pipeline files found, using " + filepath.Base(found[0]))
	}
	return found[0], nil
}

// Load reads, decodes and validates the pipeline file at path.
// An unnamed pipeline takes the name of its directory.
func (l *Loader) Load(path string) (*domain.Pipeline, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, zerr.With(zerr.Wrap(domain.ErrConfigNotFound, "pipeline file does not exist"), "path", path)
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read pipeline file"), "path", path)
	}

	file, err := decode(path, data)
	if err != nil {
		return nil, err
	}

	pipeline := file.toDomain()
	if pipeline.Name == "" {
		if abs, err := filepath.Abs(path); err == nil {
			pipeline.Name = filepath.Base(filepath.Dir(abs))
		}
	}

	if err := pipeline.Validate(); err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return pipeline, nil
}

func decode(path string, data []byte) (*PipelineFile, error) {
	var file PipelineFile

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&file); err != nil {
			return nil, parseError(path, err)
		}
	case ".yaml", ".yml", ".json":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
			return nil, parseError(path, err)
		}
	default:
		return nil, zerr.With(
			zerr.With(zerr.Wrap(domain.ErrConfiguration, "unsupported pipeline file format"), "path", path),
			"extension", ext,
		)
	}

	return &file, nil
}

func parseError(path string, err error) error {
	wrapped := zerr.Wrap(domain.ErrConfiguration, "failed to parse pipeline file")
	return zerr.With(zerr.With(wrapped, "path", path), "reason", err.Error())
}

func (f *PipelineFile) toDomain() *domain.Pipeline {
	return &domain.Pipeline{
		Name:        f.Name,
		Environment: f.Environment,
		Steps:       stepsToDomain(f.Steps),
	}
}

func stepsToDomain(dtos []StepDTO) []domain.StepSpec {
	if len(dtos) == 0 {
		return nil
	}
	steps := make([]domain.StepSpec, len(dtos))
	for i := range dtos {
		dto := &dtos[i]
		steps[i] = domain.StepSpec{
			Name:         dto.Name,
			Dir:          dto.Dir,
			Environment:  dto.Environment,
			Cmd:          dto.Cmd,
			Args:         dto.Args,
			AllowFailure: dto.AllowFailure,
			Optional:     dto.Optional,
			Outputs:      dto.Outputs,
			Clean:        dto.Clean,
			Steps:        stepsToDomain(dto.Steps),
		}
		if dto.Git != nil {
			steps[i].Git = &domain.GitStep{
				Action:     domain.GitAction(strings.ToLower(dto.Git.Action)),
				Ref:        dto.Git.Ref,
				Message:    dto.Git.Message,
				Name:       dto.Git.Name,
				Submodules: dto.Git.Submodules,
			}
		}
	}
	return steps
}
