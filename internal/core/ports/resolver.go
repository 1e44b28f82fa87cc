package ports

// PathResolver expands glob patterns relative to a root directory.
//
//go:generate go run go.uber.org/mock/mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks
type PathResolver interface {
	// Resolve returns the sorted, de-duplicated absolute paths matching patterns under root.
	Resolve(patterns []string, root string) ([]string, error)
}
