package ports

import "go.trai.ch/kiln/internal/core/domain"

// ConfigLoader defines the interface for loading pipeline files.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads and validates the pipeline file at path.
	Load(path string) (*domain.Pipeline, error)
	// Discover returns the pipeline file in dir, trying the supported names in order.
	Discover(dir string) (string, error)
}
