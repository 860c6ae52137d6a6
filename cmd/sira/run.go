package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sira-systems/sira/internal/crypto"
	"github.com/sira-systems/sira/internal/logging"
	"github.com/sira-systems/sira/internal/planload"
	"github.com/sira-systems/sira/internal/planload/gitsource"
	"github.com/sira-systems/sira/internal/report"
	"github.com/sira-systems/sira/internal/runner"
	"github.com/sira-systems/sira/internal/siraconfig"
	"github.com/sira-systems/sira/internal/transport/sshtransport"
)

type runFlags struct {
	manifests   []string
	user        string
	identity    string
	knownHosts  string
	noSudo      bool
	gitURL      string
	gitRef      string
	gitCheckout string
}

// gitDir returns the local checkout directory for git-backed manifests,
// defaulting to a fixed path under the OS temp directory keyed by the
// remote URL so repeated runs against the same remote reuse one clone
// (spec §1: manifest *loading* is out of the core engine's scope, but a
// runnable CLI still needs a concrete default).
func (f *runFlags) gitDir() string {
	if f.gitCheckout != "" {
		return f.gitCheckout
	}
	return filepath.Join(os.TempDir(), "sira-manifests-"+sanitizeForPath(f.gitURL))
}

func sanitizeForPath(s string) string {
	return strings.NewReplacer("/", "_", ":", "_", "@", "_").Replace(s)
}

func newRunCmd(root *rootFlags) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a plan's manifests against their hosts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, root, flags)
		},
	}

	cmd.Flags().StringSliceVarP(&flags.manifests, "manifest", "m", nil, "manifest file to run (repeatable)")
	_ = cmd.MarkFlagRequired("manifest")
	cmd.Flags().StringVar(&flags.user, "user", "", "SSH login user (defaults to $USER)")
	cmd.Flags().StringVar(&flags.identity, "identity", "", "path to an SSH private key (defaults to the SSH agent)")
	cmd.Flags().StringVar(&flags.knownHosts, "known-hosts", "", "path to a known_hosts file (defaults to ~/.ssh/known_hosts)")
	cmd.Flags().BoolVar(&flags.noSudo, "no-sudo", false, "invoke the managed-node client executor without sudo")
	cmd.Flags().StringVar(&flags.gitURL, "git-url", "", "git remote to sync manifests from before running (manifest paths resolve relative to its checkout)")
	cmd.Flags().StringVar(&flags.gitRef, "git-ref", "", "branch to check out from --git-url (defaults to the remote's default branch)")
	cmd.Flags().StringVar(&flags.gitCheckout, "git-checkout", "", "local directory to clone/pull --git-url into (defaults to a path under the OS temp directory)")

	return cmd
}

func runPlan(cmd *cobra.Command, root *rootFlags, flags *runFlags) error {
	level := "info"
	if root.verbose {
		level = "debug"
	}
	log, err := logging.New(logging.Options{
		Writer:        os.Stderr,
		Level:         level,
		HumanReadable: term.IsTerminal(int(os.Stderr.Fd())),
		Layer:         "engine",
		Component:     "run",
	})
	if err != nil {
		return err
	}

	correlationID, err := logging.GenerateCorrelationID()
	if err != nil {
		return fmt.Errorf("generate correlation id: %w", err)
	}
	ctx := logging.WithCorrelationID(cmd.Context(), correlationID)

	manifestFiles := flags.manifests
	if flags.gitURL != "" {
		dir, err := gitsource.Sync(gitsource.Source{URL: flags.gitURL, Ref: flags.gitRef, Dir: flags.gitDir()})
		if err != nil {
			return fmt.Errorf("sync manifests from git: %w", err)
		}
		manifestFiles = make([]string, len(flags.manifests))
		for i, m := range flags.manifests {
			if filepath.IsAbs(m) {
				manifestFiles[i] = m
				continue
			}
			manifestFiles[i] = filepath.Join(dir, m)
		}
	}

	p, err := planload.LoadPlan(manifestFiles)
	if err != nil {
		return fmt.Errorf("load plan: %w", err)
	}

	dirs := siraconfig.NewDirectories()
	signer := crypto.NewSigner(dirs)
	dialer := sshtransport.NewDialer(sshtransport.Config{
		User:           flags.user,
		PrivateKeyPath: flags.identity,
		KnownHostsFile: flags.knownHosts,
		NoSudo:         flags.noSudo,
	})
	reporter := report.New(cmd.OutOrStdout(), cmd.ErrOrStderr())

	hosts := p.Hosts()
	log.Info(ctx, "starting run", "hosts", len(hosts), "manifests", len(manifestFiles))

	failures := runner.Run(ctx, dialer, signer, reporter, p)
	if len(failures) == 0 {
		log.Info(ctx, "run completed", "hosts", len(hosts))
		return nil
	}

	for _, f := range failures {
		log.Error(ctx, f.Err, "host failed", "host", f.Host)
	}
	return fmt.Errorf("%d of %d host(s) failed", len(failures), len(hosts))
}
