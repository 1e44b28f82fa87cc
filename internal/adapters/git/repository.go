// Package git implements the repository port by running the git CLI through the process engine.
package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.trai.ch/kiln/internal/adapters/shell"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/task"
	"go.trai.ch/zerr"
)

// Executable is the name of the git binary looked up on the context PATH.
const Executable = "git"

var (
	_ ports.RepositoryOpener = (*Opener)(nil)
	_ ports.Repository       = (*Repository)(nil)
)

// Opener opens git working trees.
type Opener struct{}

// NewOpener creates a new Opener.
func NewOpener() *Opener {
	return &Opener{}
}

// Open locates the working tree containing dir.
func (o *Opener) Open(ctx context.Context, dir string, env domain.Environment, logger ports.Logger) (ports.Repository, error) {
	tc, err := task.NewContext(dir, env, logger)
	if err != nil {
		return nil, err
	}
	tc = tc.Wrap(tc.Environment().Derive(map[string]string{"GIT_TERMINAL_PROMPT": "0"}))

	root, err := shell.Output(ctx, tc.WithLogger(queryLogger{logger}), request("rev-parse", "--show-toplevel"))
	if err != nil {
		if errors.Is(err, domain.ErrInterrupted) {
			return nil, err
		}
		wrapped := zerr.Wrap(domain.ErrConfiguration, "not a git repository")
		return nil, zerr.With(zerr.With(wrapped, "dir", tc.WorkingDir()), "reason", err.Error())
	}
	return newRepository(tc.WrapDir(filepath.Clean(root), nil)), nil
}

// Repository is a git working tree.
type Repository struct {
	root  string
	tc    *task.Context
	quiet *task.Context
}

func newRepository(tc *task.Context) *Repository {
	return &Repository{
		root:  tc.WorkingDir(),
		tc:    tc,
		quiet: tc.WithLogger(queryLogger{tc.Logger()}),
	}
}

// Root returns the absolute path of the working tree.
func (r *Repository) Root() string {
	return r.root
}

// Revision describes HEAD. Without a reachable version tag the version is v0.0.0
// and the build number counts every commit.
func (r *Repository) Revision(ctx context.Context) (domain.Revision, error) {
	out, err := r.query(ctx, "log", "-1", "--format=%H%n%ct")
	if err != nil {
		if errors.Is(err, domain.ErrInterrupted) {
			return domain.Revision{}, err
		}
		wrapped := zerr.Wrap(domain.ErrConfiguration, "repository has no commits")
		return domain.Revision{}, zerr.With(wrapped, "root", r.root)
	}
	hash, rawTime, ok := strings.Cut(out, "\n")
	if !ok {
		return domain.Revision{}, zerr.With(zerr.New("unexpected git log output"), "output", out)
	}
	secs, err := strconv.ParseInt(strings.TrimSpace(rawTime), 10, 64)
	if err != nil {
		return domain.Revision{}, zerr.With(zerr.Wrap(err, "invalid commit time"), "output", out)
	}

	var version string
	var count int
	desc, err := r.query(ctx, "describe", "--tags", "--long", "--match", "v[0-9]*", "--match", "[0-9]*")
	if err == nil {
		version, count, ok = parseDescribe(desc)
	}
	if err != nil || !ok {
		total, err := r.query(ctx, "rev-list", "--count", "HEAD")
		if err != nil {
			return domain.Revision{}, zerr.With(zerr.Wrap(err, "failed to count commits"), "root", r.root)
		}
		if count, err = strconv.Atoi(strings.TrimSpace(total)); err != nil {
			return domain.Revision{}, zerr.With(zerr.Wrap(err, "invalid commit count"), "output", total)
		}
		version = ""
	}

	return domain.NewRevision(strings.TrimSpace(hash), time.Unix(secs, 0).UTC(), version, count), nil
}

// parseDescribe splits the long form TAG-COUNT-gHASH.
func parseDescribe(desc string) (tag string, count int, ok bool) {
	desc = strings.TrimSpace(desc)
	i := strings.LastIndex(desc, "-g")
	if i <= 0 {
		return "", 0, false
	}
	rest := desc[:i]
	j := strings.LastIndex(rest, "-")
	if j <= 0 {
		return "", 0, false
	}
	count, err := strconv.Atoi(rest[j+1:])
	if err != nil {
		return "", 0, false
	}
	return rest[:j], count, true
}

// Commit records all tracked changes.
func (r *Repository) Commit(ctx context.Context, message string) error {
	if message == "" {
		return zerr.With(zerr.Wrap(domain.ErrConfiguration, "commit message is empty"), "root", r.root)
	}
	return r.monitored(ctx, "commit", "--all", "--message", message)
}

// Tag creates an annotated tag at HEAD, or a lightweight one when message is empty.
func (r *Repository) Tag(ctx context.Context, name, message string) error {
	if name == "" {
		return zerr.With(zerr.Wrap(domain.ErrConfiguration, "tag name is empty"), "root", r.root)
	}
	args := []string{"tag", name}
	if message != "" {
		args = []string{"tag", "--annotate", name, "--message", message}
	}
	return r.monitored(ctx, args...)
}

// Submodules returns the initialized submodules in .gitmodules order.
func (r *Repository) Submodules(ctx context.Context) ([]ports.Repository, error) {
	if _, err := os.Stat(filepath.Join(r.root, ".gitmodules")); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	out, err := r.query(ctx, "config", "--file", ".gitmodules", "--get-regexp", `^submodule\..*\.path$`)
	if err != nil {
		var exitErr *domain.ProcessExitError
		// Exit code 1 means no submodule is declared.
		if errors.As(err, &exitErr) && exitErr.Code == 1 {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to list submodules"), "root", r.root)
	}

	var subs []ports.Repository
	for line := range strings.SplitSeq(out, "\n") {
		_, path, ok := strings.Cut(strings.TrimSpace(line), " ")
		if !ok {
			continue
		}
		dir := filepath.Join(r.root, filepath.FromSlash(path))
		if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
			continue
		}
		subs = append(subs, newRepository(r.tc.WrapDir(dir, nil)))
	}
	return subs, nil
}

// Fetch downloads objects and refs from origin.
func (r *Repository) Fetch(ctx context.Context, ref string) error {
	return r.monitored(ctx, withRef([]string{"fetch", "origin"}, ref)...)
}

// Pull fast-forwards the current branch to ref from origin.
func (r *Repository) Pull(ctx context.Context, ref string) error {
	return r.monitored(ctx, withRef([]string{"pull", "--ff-only", "origin"}, ref)...)
}

// Checkout switches the working tree to ref.
func (r *Repository) Checkout(ctx context.Context, ref string) error {
	if ref == "" {
		return zerr.With(zerr.Wrap(domain.ErrConfiguration, "checkout requires a ref"), "root", r.root)
	}
	return r.monitored(ctx, "checkout", ref)
}

func withRef(args []string, ref string) []string {
	if ref == "" {
		return args
	}
	return append(args, ref)
}

func (r *Repository) query(ctx context.Context, args ...string) (string, error) {
	return shell.Output(ctx, r.quiet, request(args...))
}

func (r *Repository) monitored(ctx context.Context, args ...string) error {
	return shell.NewProcessTask(shell.Request(request(args...))).Handle(ctx, r.tc)
}

// queryLogger drops the replay preamble and output of read-only git invocations.
type queryLogger struct {
	ports.Logger
}

func (queryLogger) Info(string) {}

func (queryLogger) Output(domain.Stream, string) {}

func request(args ...string) domain.ProcessRequest {
	return domain.ProcessRequest{Argv: append([]string{Executable}, args...)}
}
