package ports

// Cleaner removes build artifacts before a step runs.
//
//go:generate go run go.uber.org/mock/mockgen -source=cleaner.go -destination=mocks/mock_cleaner.go -package=mocks
type Cleaner interface {
	// Clean removes every path matching patterns under root and returns the removed paths.
	Clean(root string, patterns []string) (removed []string, err error)
}
