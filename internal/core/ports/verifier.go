package ports

// Verifier defines the interface for verifying declared step outputs.
//
//go:generate go run go.uber.org/mock/mockgen -source=verifier.go -destination=mocks/mock_verifier.go -package=mocks
type Verifier interface {
	// VerifyOutputs returns the output patterns under root that match no file.
	VerifyOutputs(root string, outputs []string) (missing []string, err error)
}
