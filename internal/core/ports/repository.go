package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

//go:generate go run go.uber.org/mock/mockgen -source=repository.go -destination=mocks/mock_repository.go -package=mocks

// Repository is a version-controlled working tree.
// Fetch, Pull and Checkout stream the tool's output to the logger the repository was opened with.
type Repository interface {
	// Root returns the absolute path of the working tree.
	Root() string
	// Revision describes HEAD: hash, commit time, nearest version tag and commits since it.
	Revision(ctx context.Context) (domain.Revision, error)
	// Commit records all tracked changes with message.
	Commit(ctx context.Context, message string) error
	// Tag creates an annotated tag at HEAD, or a lightweight one when message is empty.
	Tag(ctx context.Context, name, message string) error
	// Submodules returns the initialized submodules in declaration order.
	Submodules(ctx context.Context) ([]Repository, error)
	// Fetch downloads objects and refs; ref may be empty for the default refspec.
	Fetch(ctx context.Context, ref string) error
	// Pull fetches and integrates ref into the current branch.
	Pull(ctx context.Context, ref string) error
	// Checkout switches the working tree to ref.
	Checkout(ctx context.Context, ref string) error
}

// RepositoryOpener opens the repository containing dir.
type RepositoryOpener interface {
	// Open fails with an error matching domain.ErrConfiguration when dir is not inside a repository.
	Open(ctx context.Context, dir string, env domain.Environment, logger Logger) (Repository, error)
}
