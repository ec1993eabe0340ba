package scm

import (
	"context"
	"errors"
	"fmt"
	"os"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Options configures a checkout into the workspace.
type Options struct {
	URL         string
	Ref         string
	Destination string
	Depth       int
}

// CloneFunc is the checkout entry point consumed by the engine; tests swap in
// fakes.
type CloneFunc func(ctx context.Context, opts Options) error

// Clone materializes the repository at opts.Destination. An existing clone
// whose origin already points at opts.URL is a no-op; any other existing
// content at the destination is an error rather than silently overwritten.
func Clone(ctx context.Context, opts Options) error {
	if opts.URL == "" {
		return fmt.Errorf("checkout: url is required")
	}
	if opts.Destination == "" {
		return fmt.Errorf("checkout: destination is required")
	}

	if info, err := os.Stat(opts.Destination); err == nil {
		empty, emptyErr := isEmptyDir(opts.Destination, info)
		if emptyErr != nil {
			return fmt.Errorf("checkout: cannot access destination: %w", emptyErr)
		}
		if !empty {
			return verifyExisting(opts)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checkout: cannot access destination: %w", err)
	}

	cloneOpts := &git.CloneOptions{URL: opts.URL}
	if opts.Depth > 0 {
		cloneOpts.Depth = opts.Depth
	}
	if opts.Ref != "" {
		cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(opts.Ref)
		cloneOpts.SingleBranch = true
	}

	if _, err := git.PlainCloneContext(ctx, opts.Destination, false, cloneOpts); err != nil {
		return fmt.Errorf("checkout: clone %s: %w", opts.URL, err)
	}

	return nil
}

// isEmptyDir reports whether path is a directory with no entries. Cloning
// into an existing empty directory (the freshly created workspace) is fine.
func isEmptyDir(path string, info os.FileInfo) (bool, error) {
	if !info.IsDir() {
		return false, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}

func verifyExisting(opts Options) error {
	repo, err := git.PlainOpen(opts.Destination)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return fmt.Errorf("checkout: destination %s exists and is not a git repository", opts.Destination)
		}
		return fmt.Errorf("checkout: open existing clone: %w", err)
	}

	remote, err := repo.Remote("origin")
	if err != nil {
		return fmt.Errorf("checkout: existing clone has no origin remote: %w", err)
	}

	urls := remote.Config().URLs
	if len(urls) == 0 || urls[0] != opts.URL {
		actual := ""
		if len(urls) > 0 {
			actual = urls[0]
		}
		return fmt.Errorf("checkout: destination already tracks %q, want %q", actual, opts.URL)
	}

	return nil
}
